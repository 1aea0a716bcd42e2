package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"offrecord/internal/services/identity"
	"offrecord/internal/store"
)

const strong = "Correct-Horse-9"

func newService(t *testing.T) *identity.Service {
	t.Helper()
	return identity.New(store.NewIdentityFileStore(t.TempDir(), store.ScryptParams{N: 1 << 10, R: 8, P: 1}))
}

func TestGenerateRejectsWeakPassphrase(t *testing.T) {
	svc := newService(t)
	for _, p := range []string{"short1!A", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(p, "alice", "xmpp")
		require.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestGenerateAndFingerprint(t *testing.T) {
	svc := newService(t)
	id, fp, err := svc.GenerateIdentity(strong, "alice", "xmpp")
	require.NoError(t, err)
	require.NotEmpty(t, fp)

	got, err := svc.FingerprintIdentity(strong, "alice", "xmpp")
	require.NoError(t, err)
	require.Equal(t, fp, got)

	loaded, err := svc.LoadIdentity(strong, "alice", "xmpp")
	require.NoError(t, err)
	require.Equal(t, id, loaded)
}

func TestKeyringCaches(t *testing.T) {
	svc := newService(t)
	id, _, err := svc.GenerateIdentity(strong, "alice", "xmpp")
	require.NoError(t, err)

	kr := identity.NewKeyring(svc, strong)
	got, err := kr.SigningKeyPair("alice", "xmpp")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = kr.SigningKeyPair("alice", "irc")
	require.ErrorIs(t, err, store.ErrNoIdentity)
}
