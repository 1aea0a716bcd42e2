package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/store"
)

// fast keeps scrypt cheap in tests.
var fast = store.ScryptParams{N: 1 << 10, R: 8, P: 1}

func TestIdentity_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	var ids domain.IdentityStore = store.NewIdentityFileStore(home, fast)

	id, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	require.NoError(t, ids.SaveIdentity("pass", "alice", "xmpp", id))

	got, err := ids.LoadIdentity("pass", "alice", "xmpp")
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	ids := store.NewIdentityFileStore(t.TempDir(), fast)
	id, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	require.NoError(t, ids.SaveIdentity("correct", "alice", "xmpp", id))

	_, err = ids.LoadIdentity("wrong", "alice", "xmpp")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestIdentity_Missing(t *testing.T) {
	ids := store.NewIdentityFileStore(t.TempDir(), fast)
	_, err := ids.LoadIdentity("pass", "alice", "xmpp")
	require.ErrorIs(t, err, store.ErrNoIdentity)
}

func TestIdentity_PerAccountAndProtocol(t *testing.T) {
	home := t.TempDir()
	ids := store.NewIdentityFileStore(home, fast)

	xmpp, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	irc, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	require.NoError(t, ids.SaveIdentity("pass", "alice", "xmpp", xmpp))
	require.NoError(t, ids.SaveIdentity("pass", "alice/work", "irc", irc))

	got, err := ids.LoadIdentity("pass", "alice/work", "irc")
	require.NoError(t, err)
	require.Equal(t, irc.Public, got.Public)

	recs, err := ids.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "alice", recs[0].Account)
	require.Equal(t, crypto.Fingerprint(xmpp.Public[:]), recs[0].Fingerprint)
	require.Equal(t, "alice/work", recs[1].Account)
}

func TestIdentity_SwappedFileRejected(t *testing.T) {
	home := t.TempDir()
	ids := store.NewIdentityFileStore(home, fast)
	id, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	require.NoError(t, ids.SaveIdentity("pass", "alice", "xmpp", id))

	dir := filepath.Join(home, "identities")
	b, err := os.ReadFile(filepath.Join(dir, "alice@xmpp.json.enc"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mallory@xmpp.json.enc"), b, 0o600))

	_, err = ids.LoadIdentity("pass", "mallory", "xmpp")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}
