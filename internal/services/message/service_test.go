package message_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"offrecord/internal/conversation"
	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/metrics"
	"offrecord/internal/protocol/ake"
	"offrecord/internal/protocol/policy"
	"offrecord/internal/protocol/wire"
	"offrecord/internal/services/message"
	"offrecord/internal/testutil"
	"offrecord/internal/util/ratelimit"
)

var bob = domain.ConversationKey{User: "bob", Account: "alice", Protocol: "xmpp"}

type harness struct {
	svc      *message.Service
	listener *testutil.Listener
	provider *testutil.Provider
	registry *conversation.Registry
}

func newHarness(t *testing.T, p policy.Policy) *harness {
	t.Helper()
	l := testutil.NewListener(p)
	id, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	l.Signer = id
	prov := &testutil.Provider{}
	reg := conversation.NewRegistry()
	svc := message.New(reg, l, ake.NewMachine(prov), zerolog.Nop(), nil, nil)
	return &harness{svc: svc, listener: l, provider: prov, registry: reg}
}

func (h *harness) context(t *testing.T) *conversation.Context {
	t.Helper()
	c, err := h.registry.Lookup(bob)
	require.NoError(t, err)
	return c
}

func TestDisabledPolicyPassesThrough(t *testing.T) {
	h := newHarness(t, policy.Never|policy.RequireEncryption|policy.ErrorStartAKE)
	for _, in := range []string{
		"hello",
		"?OTRv2?",
		"?OTR Error: boom",
		wire.DHKey{Gy: make([]byte, 32)}.Encode(),
		"?OTR:AAIDAAAA.",
	} {
		got, err := h.svc.ReceiveMessage(bob, in)
		require.NoError(t, err)
		require.Equal(t, message.Received{Text: in, Display: true}, got)
	}
	require.Empty(t, h.listener.Injected)
	require.Empty(t, h.listener.Errors)
	require.Equal(t, domain.AuthStateNone, h.context(t).AKE.Auth)
}

func TestInvalidKey(t *testing.T) {
	h := newHarness(t, policy.Opportunistic)
	_, err := h.svc.ReceiveMessage(domain.ConversationKey{User: "bob", Protocol: "xmpp"}, "hi")
	require.ErrorIs(t, err, conversation.ErrInvalidArgument)
	require.Empty(t, h.registry.Keys())
}

func TestQueryInitiates(t *testing.T) {
	h := newHarness(t, policy.Manual)
	got, err := h.svc.ReceiveMessage(bob, wire.Query([]int{2}))
	require.NoError(t, err)
	require.False(t, got.Display)

	c := h.context(t)
	require.Equal(t, domain.AuthStateAwaitingDHKey, c.AKE.Auth)
	require.Len(t, c.AKE.Ours, 2)
	require.Len(t, h.listener.Injected, 1)
	require.Equal(t, wire.KindDHCommit, wire.Classify(h.listener.Injected[0]))
}

func TestQueryV1Only(t *testing.T) {
	h := newHarness(t, policy.Manual)
	_, err := h.svc.ReceiveMessage(bob, "?OTR?")
	var unsupported *message.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, wire.KindV1KeyExchange, unsupported.Kind)
	require.Equal(t, domain.AuthStateNone, h.context(t).AKE.Auth)

	h = newHarness(t, policy.AllowV2)
	got, err := h.svc.ReceiveMessage(bob, "?OTR?")
	require.NoError(t, err)
	require.Equal(t, message.Received{}, got)
	require.Empty(t, h.listener.Injected)
}

func TestV2OnlyQueryRoundTrip(t *testing.T) {
	sender := policy.AllowV2
	h := newHarness(t, policy.Manual)
	_, err := h.svc.ReceiveMessage(bob, wire.Query(sender.Versions()))
	require.NoError(t, err)
	require.Equal(t, domain.AuthStateAwaitingDHKey, h.context(t).AKE.Auth)
}

func TestErrorStartsAKE(t *testing.T) {
	cases := []struct {
		name string
		pol  policy.Policy
		want []int
	}{
		{"both", policy.Opportunistic, []int{1, 2}},
		{"v2 only", policy.AllowV2 | policy.ErrorStartAKE, []int{2}},
		{"v1 only", policy.AllowV1 | policy.ErrorStartAKE, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.pol)
			got, err := h.svc.ReceiveMessage(bob, "?OTR Error: not private")
			require.NoError(t, err)
			require.False(t, got.Display)
			require.Equal(t, []string{"not private"}, h.listener.Errors)
			require.Len(t, h.listener.Injected, 1)

			q := h.listener.Injected[0]
			require.Equal(t, wire.KindQuery, wire.Classify(q))
			versions := wire.ParseQuery(q)
			require.True(t, sort.IntsAreSorted(versions))
			require.Equal(t, tc.want, versions)
		})
	}
}

func TestErrorWithoutErrorStartAKE(t *testing.T) {
	h := newHarness(t, policy.Manual)
	_, err := h.svc.ReceiveMessage(bob, "?OTR Error: nope")
	require.NoError(t, err)
	require.Equal(t, []string{"nope"}, h.listener.Errors)
	require.Empty(t, h.listener.Injected)
}

func TestErrorQueryThrottled(t *testing.T) {
	l := testutil.NewListener(policy.Opportunistic)
	limiter := ratelimit.New[domain.ConversationKey](0.001, 1, 0)
	svc := message.New(conversation.NewRegistry(), l, ake.NewMachine(&testutil.Provider{}), zerolog.Nop(), nil, limiter)

	for i := 0; i < 3; i++ {
		_, err := svc.ReceiveMessage(bob, "?OTR Error: again")
		require.NoError(t, err)
	}
	require.Len(t, l.Errors, 3)
	require.Len(t, l.Injected, 1)
}

func TestUnsupportedKinds(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := testutil.NewListener(policy.Opportunistic)
	svc := message.New(conversation.NewRegistry(), l, ake.NewMachine(&testutil.Provider{}), zerolog.Nop(), metrics.NewDispatch(reg), nil)

	cases := map[string]wire.Kind{
		wire.RevealSignature{R: []byte{1}, EncryptedSignature: []byte{2}}.Encode(): wire.KindRevealSignature,
		"?OTR:AAISAAAA.": wire.KindSignature,
		"?OTR:AAEKAAAA.": wire.KindV1KeyExchange,
		"?OTR:AAIDAAAA.": wire.KindData,
	}
	for in, kind := range cases {
		_, err := svc.ReceiveMessage(bob, in)
		require.ErrorIs(t, err, message.ErrUnsupported)
		var unsupported *message.UnsupportedError
		require.True(t, errors.As(err, &unsupported))
		require.Equal(t, kind, unsupported.Kind)
	}
	require.Empty(t, l.Injected)

	n, err := prom.GatherAndCount(reg, "offrecord_unsupported_total")
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestKeyExchangeIgnoredWithoutV2(t *testing.T) {
	h := newHarness(t, policy.AllowV1)
	for _, in := range []string{
		wire.DHCommit{EncryptedGx: []byte{1}, HashedGx: []byte{1}}.Encode(),
		wire.DHKey{Gy: make([]byte, 32)}.Encode(),
	} {
		got, err := h.svc.ReceiveMessage(bob, in)
		require.NoError(t, err)
		require.Equal(t, message.Received{}, got)
	}
	require.Empty(t, h.listener.Injected)
	require.Equal(t, domain.AuthStateNone, h.context(t).AKE.Auth)
}

func TestMalformedKeyExchange(t *testing.T) {
	h := newHarness(t, policy.Manual)
	_, err := h.svc.ReceiveMessage(bob, "?OTR:AAIC***.")
	require.ErrorIs(t, err, wire.ErrMalformed)
	require.Equal(t, domain.AuthStateNone, h.context(t).AKE.Auth)
}

func TestUntaggedPlaintext(t *testing.T) {
	for _, tc := range []struct {
		state domain.MessageState
		warn  bool
	}{
		{domain.MessageStatePlaintext, false},
		{domain.MessageStateEncrypted, true},
		{domain.MessageStateFinished, true},
	} {
		h := newHarness(t, policy.Always)
		c := h.context(t)
		c.MessageState = tc.state

		got, err := h.svc.ReceiveMessage(bob, "hello bob")
		require.NoError(t, err)
		require.Equal(t, message.Received{Text: "hello bob", Display: true}, got)
		if tc.warn {
			require.Len(t, h.listener.Warnings, 1, tc.state.String())
		} else {
			require.Empty(t, h.listener.Warnings, tc.state.String())
		}
	}
}

func TestTaggedPlaintextWarnings(t *testing.T) {
	tagged := "hi" + wire.Tag([]int{2})

	h := newHarness(t, policy.AllowV2|policy.RequireEncryption)
	got, err := h.svc.ReceiveMessage(bob, tagged)
	require.NoError(t, err)
	require.Equal(t, "hi", got.Text)
	require.Len(t, h.listener.Warnings, 1)

	h = newHarness(t, policy.AllowV2)
	_, err = h.svc.ReceiveMessage(bob, tagged)
	require.NoError(t, err)
	require.Empty(t, h.listener.Warnings)

	h = newHarness(t, policy.AllowV2)
	h.context(t).MessageState = domain.MessageStateEncrypted
	got, err = h.svc.ReceiveMessage(bob, tagged)
	require.NoError(t, err)
	require.Equal(t, "hi", got.Text)
	require.Len(t, h.listener.Warnings, 1)
	require.Empty(t, h.listener.Injected)
}

func TestWhitespaceStartsAKE(t *testing.T) {
	h := newHarness(t, policy.Opportunistic)
	got, err := h.svc.ReceiveMessage(bob, "hi"+wire.Tag([]int{1, 2}))
	require.NoError(t, err)
	require.Equal(t, message.Received{Text: "hi", Display: true}, got)
	require.Equal(t, domain.AuthStateAwaitingDHKey, h.context(t).AKE.Auth)
	require.Len(t, h.listener.Injected, 1)

	h = newHarness(t, policy.Opportunistic)
	got, err = h.svc.ReceiveMessage(bob, "hi"+wire.Tag([]int{1}))
	require.ErrorIs(t, err, message.ErrUnsupported)
	require.Equal(t, "hi", got.Text)
	require.Equal(t, domain.AuthStateNone, h.context(t).AKE.Auth)
}

func TestProviderFailureLeavesContextUnchanged(t *testing.T) {
	h := newHarness(t, policy.Manual)
	h.provider.FailKeyPair = true
	_, err := h.svc.ReceiveMessage(bob, "?OTRv2?")
	require.ErrorIs(t, err, testutil.ErrInjected)
	c := h.context(t)
	require.Equal(t, domain.AuthStateNone, c.AKE.Auth)
	require.Empty(t, c.AKE.Ours)
	require.Empty(t, h.listener.Injected)

	h.provider.FailKeyPair = false
	_, err = h.svc.ReceiveMessage(bob, "?OTRv2?")
	require.NoError(t, err)
	before := c.AKE.Clone()
	h.listener.Reset()

	h.listener.SignErr = testutil.ErrInjected
	_, err = h.svc.ReceiveMessage(bob, wire.DHKey{Gy: make([]byte, 32)}.Encode())
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Equal(t, before, c.AKE)
	require.Empty(t, h.listener.Injected)
}

func TestSendMessage(t *testing.T) {
	h := newHarness(t, policy.Never)
	out, err := h.svc.SendMessage(bob, "plain")
	require.NoError(t, err)
	require.Equal(t, "plain", out)

	h = newHarness(t, policy.Opportunistic)
	out, err = h.svc.SendMessage(bob, "hello")
	require.NoError(t, err)
	pt := wire.ParsePlaintext(out)
	require.Equal(t, "hello", pt.Clean)
	require.Equal(t, []int{1, 2}, pt.Versions)

	h = newHarness(t, policy.Always)
	_, err = h.svc.SendMessage(bob, "secret")
	require.ErrorIs(t, err, message.ErrEncryptionRequired)
	require.Len(t, h.listener.Injected, 1)
	require.Equal(t, wire.KindQuery, wire.Classify(h.listener.Injected[0]))

	h = newHarness(t, policy.Manual)
	h.context(t).MessageState = domain.MessageStateEncrypted
	_, err = h.svc.SendMessage(bob, "x")
	require.ErrorIs(t, err, message.ErrUnsupported)

	h.context(t).MessageState = domain.MessageStateFinished
	_, err = h.svc.SendMessage(bob, "x")
	require.ErrorIs(t, err, message.ErrConversationFinished)
}

func TestStartAKEAndStatus(t *testing.T) {
	h := newHarness(t, policy.AllowV2)
	require.NoError(t, h.svc.StartAKE(bob))
	require.Equal(t, []string{"?OTRv2?"}, h.listener.Injected)

	st, err := h.svc.Status(bob)
	require.NoError(t, err)
	require.Equal(t, domain.AuthStateNone, st.Auth)
	require.Equal(t, domain.MessageStatePlaintext, st.MessageState)

	h = newHarness(t, policy.Never)
	require.ErrorIs(t, h.svc.StartAKE(bob), message.ErrDisabled)
}

// peer is one side of an in-process conversation using the real provider.
type peer struct {
	svc      *message.Service
	listener *testutil.Listener
	key      domain.ConversationKey
}

func newPeer(t *testing.T, me, them string) *peer {
	t.Helper()
	l := testutil.NewListener(policy.Opportunistic)
	id, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	l.Signer = id
	svc := message.New(conversation.NewRegistry(), l, ake.NewMachine(crypto.NewProvider()), zerolog.Nop(), nil, nil)
	return &peer{svc: svc, listener: l, key: domain.ConversationKey{User: them, Account: me, Protocol: "xmpp"}}
}

// pump delivers injected messages between a and b until both are quiet.
func pump(t *testing.T, a, b *peer) (unsupported int) {
	t.Helper()
	for round := 0; round < 16; round++ {
		moved := false
		for _, pair := range [][2]*peer{{a, b}, {b, a}} {
			from, to := pair[0], pair[1]
			for _, msg := range from.listener.TakeInjected() {
				moved = true
				_, err := to.svc.ReceiveMessage(to.key, msg)
				if errors.Is(err, message.ErrUnsupported) {
					unsupported++
					continue
				}
				require.NoError(t, err)
			}
		}
		if !moved {
			return unsupported
		}
	}
	t.Fatal("handshake did not settle")
	return unsupported
}

func auth(t *testing.T, p *peer) domain.AuthState {
	t.Helper()
	st, err := p.svc.Status(p.key)
	require.NoError(t, err)
	return st.Auth
}

func TestHandshakeBetweenPeers(t *testing.T) {
	alice := newPeer(t, "alice", "bob")
	bobPeer := newPeer(t, "bob", "alice")

	require.NoError(t, alice.svc.StartAKE(alice.key))
	unsupported := pump(t, alice, bobPeer)

	// bob initiated on the query, alice replied DH-Key, bob revealed.
	require.Equal(t, domain.AuthStateAwaitingSignature, auth(t, bobPeer))
	require.Equal(t, domain.AuthStateAwaitingRevealSignature, auth(t, alice))
	require.Equal(t, 1, unsupported)
}

func TestSimultaneousInitiationConverges(t *testing.T) {
	alice := newPeer(t, "alice", "bob")
	bobPeer := newPeer(t, "bob", "alice")

	_, err := alice.svc.ReceiveMessage(alice.key, "?OTRv2?")
	require.NoError(t, err)
	_, err = bobPeer.svc.ReceiveMessage(bobPeer.key, "?OTRv2?")
	require.NoError(t, err)

	pump(t, alice, bobPeer)

	states := []domain.AuthState{auth(t, alice), auth(t, bobPeer)}
	require.ElementsMatch(t, []domain.AuthState{
		domain.AuthStateAwaitingSignature,
		domain.AuthStateAwaitingRevealSignature,
	}, states)
}

type memRelay struct {
	queue []domain.Envelope
	acked int
}

func (r *memRelay) SendMessage(_ context.Context, env domain.Envelope) error {
	r.queue = append(r.queue, env)
	return nil
}

func (r *memRelay) FetchMessages(_ context.Context, _ string, limit int) ([]domain.Envelope, error) {
	if limit > 0 && limit < len(r.queue) {
		return r.queue[:limit], nil
	}
	return r.queue, nil
}

func (r *memRelay) AckMessages(_ context.Context, _ string, count int) error {
	r.acked += count
	r.queue = r.queue[count:]
	return nil
}

func TestDrain(t *testing.T) {
	h := newHarness(t, policy.Manual)
	relay := &memRelay{}
	for _, body := range []string{"hello", "?OTR:AAIDAAAA.", "?OTR:AAIC!.", "world"} {
		require.NoError(t, relay.SendMessage(context.Background(), domain.Envelope{From: "bob", To: "alice", Body: body}))
	}

	got, err := h.svc.Drain(context.Background(), relay, "alice", "xmpp", 10)
	require.NoError(t, err)
	require.Equal(t, 4, relay.acked)
	require.Len(t, got, 2)
	require.Equal(t, "hello", got[0].Text)
	require.Equal(t, "world", got[1].Text)
}

func TestDrainStopsOnProviderFailure(t *testing.T) {
	h := newHarness(t, policy.Manual)
	h.provider.FailRandom = true
	relay := &memRelay{}
	for _, body := range []string{"first", "?OTRv2?", "after"} {
		require.NoError(t, relay.SendMessage(context.Background(), domain.Envelope{From: "bob", Body: body}))
	}

	got, err := h.svc.Drain(context.Background(), relay, "alice", "xmpp", 10)
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Len(t, got, 1)
	require.Equal(t, 1, relay.acked)
	require.Len(t, relay.queue, 2)
}
