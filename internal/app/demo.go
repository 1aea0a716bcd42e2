package app

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"offrecord/internal/conversation"
	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/protocol/ake"
	"offrecord/internal/protocol/policy"
	"offrecord/internal/protocol/wire"
	messagesvc "offrecord/internal/services/message"
)

const demoProtocol = "demo"

// loopback is an in-memory listener whose injected messages are queued for
// the other demo peer.
type loopback struct {
	name   string
	policy policy.Policy
	id     domain.SigningKeyPair
	out    io.Writer

	mu     sync.Mutex
	outbox []string
}

func (l *loopback) PolicyFor(domain.ConversationKey) policy.Policy { return l.policy }

func (l *loopback) Inject(key domain.ConversationKey, msg string) {
	l.mu.Lock()
	l.outbox = append(l.outbox, msg)
	l.mu.Unlock()
	fmt.Fprintf(l.out, "%-5s -> %-5s %-16s %s\n", l.name, key.User, wire.Classify(msg), abbreviate(msg))
}

func (l *loopback) ShowWarning(_ domain.ConversationKey, w string) {
	fmt.Fprintf(l.out, "%-5s warning: %s\n", l.name, w)
}

func (l *loopback) ShowError(_ domain.ConversationKey, e string) {
	fmt.Fprintf(l.out, "%-5s error: %s\n", l.name, e)
}

func (l *loopback) SigningKeyPair(string, string) (domain.SigningKeyPair, error) {
	return l.id, nil
}

func (l *loopback) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.outbox
	l.outbox = nil
	return out
}

type demoPeer struct {
	svc      *messagesvc.Service
	listener *loopback
	key      domain.ConversationKey
}

func newDemoPeer(name, peer string, pol policy.Policy, out io.Writer, logger zerolog.Logger) (*demoPeer, error) {
	id, err := crypto.GenerateEd25519()
	if err != nil {
		return nil, err
	}
	l := &loopback{name: name, policy: pol, id: id, out: out}
	svc := messagesvc.New(
		conversation.NewRegistry(),
		l,
		ake.NewMachine(crypto.NewProvider()),
		logger.With().Str("peer", name).Logger(),
		nil,
		nil,
	)
	return &demoPeer{
		svc:      svc,
		listener: l,
		key:      domain.ConversationKey{User: peer, Account: name, Protocol: demoProtocol},
	}, nil
}

func (p *demoPeer) receive(out io.Writer, msg string) error {
	got, err := p.svc.ReceiveMessage(p.key, msg)
	if got.Display {
		fmt.Fprintf(out, "%-5s shows %q\n", p.listener.name, got.Text)
	}
	if errors.Is(err, messagesvc.ErrUnsupported) {
		fmt.Fprintf(out, "%-5s stops: %v\n", p.listener.name, err)
		return nil
	}
	return err
}

// RunDemo runs two in-process peers through a whitespace-tagged greeting and
// the handshake it triggers, printing the transcript to out.
func RunDemo(out io.Writer, logger zerolog.Logger, pol policy.Policy) error {
	alice, err := newDemoPeer("alice", "bob", pol, out, logger)
	if err != nil {
		return err
	}
	bob, err := newDemoPeer("bob", "alice", pol, out, logger)
	if err != nil {
		return err
	}

	greeting, err := alice.svc.SendMessage(alice.key, "hi bob")
	switch {
	case errors.Is(err, messagesvc.ErrEncryptionRequired):
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "%-5s -> %-5s %-16s %q\n", "alice", "bob", wire.Classify(greeting), greeting)
		if err := bob.receive(out, greeting); err != nil {
			return err
		}
	}

	for round := 0; round < 16; round++ {
		moved := false
		for _, pair := range [][2]*demoPeer{{alice, bob}, {bob, alice}} {
			for _, msg := range pair[0].listener.take() {
				moved = true
				if err := pair[1].receive(out, msg); err != nil {
					return err
				}
			}
		}
		if !moved {
			break
		}
	}

	for _, p := range []*demoPeer{alice, bob} {
		st, err := p.svc.Status(p.key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-5s messaging=%s auth=%s\n", p.listener.name, st.MessageState, st.Auth)
	}
	return nil
}

func abbreviate(msg string) string {
	if len(msg) <= 40 {
		return msg
	}
	return msg[:37] + "..."
}
