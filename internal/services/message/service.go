package message

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"offrecord/internal/conversation"
	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/metrics"
	"offrecord/internal/protocol/ake"
	"offrecord/internal/protocol/policy"
	"offrecord/internal/protocol/wire"
	"offrecord/internal/util/ratelimit"
)

const (
	warnUnencrypted      = "The following message was received unencrypted."
	warnEncryptionNeeded = "Received an unencrypted message while encryption is required."
)

// Received is the outcome of dispatching one inbound message.
type Received struct {
	Text    string
	Display bool // false when the message was consumed by the protocol
}

// Service dispatches inbound messages per conversation.
type Service struct {
	registry *conversation.Registry
	listener domain.Listener
	machine  *ake.Machine
	log      zerolog.Logger
	metrics  *metrics.Dispatch
	limiter  *ratelimit.Limiter[domain.ConversationKey]
	now      func() time.Time
}

// New constructs a dispatcher. metrics and limiter may be nil; a nil
// limiter never throttles error-triggered queries.
func New(
	registry *conversation.Registry,
	listener domain.Listener,
	machine *ake.Machine,
	logger zerolog.Logger,
	m *metrics.Dispatch,
	limiter *ratelimit.Limiter[domain.ConversationKey],
) *Service {
	return &Service{
		registry: registry,
		listener: listener,
		machine:  machine,
		log:      logger.With().Str("component", "dispatcher").Logger(),
		metrics:  m,
		limiter:  limiter,
		now:      time.Now,
	}
}

// ReceiveMessage dispatches text received from key.User. Received may carry
// text alongside a non-nil error when a whitespace-tagged message asked for
// an unsupported handshake.
func (s *Service) ReceiveMessage(key domain.ConversationKey, text string) (Received, error) {
	c, err := s.registry.Lookup(key)
	if err != nil {
		return Received{}, err
	}
	c.Lock()
	defer c.Unlock()

	pol := s.listener.PolicyFor(c.Key)
	if !pol.Enabled() {
		return Received{Text: text, Display: true}, nil
	}

	kind := wire.Classify(text)
	s.metrics.Received(kind.String())
	s.log.Debug().Str("peer", peerID(c.Key)).Stringer("kind", kind).Msg("received")

	switch kind {
	case wire.KindQuery:
		return Received{}, s.receiveQuery(c, pol, text)

	case wire.KindError:
		s.listener.ShowError(c.Key, wire.ParseError(text))
		if pol.ErrorStartsAKE() {
			if s.limiter.Allow(c.Key, s.now()) {
				s.inject(c.Key, wire.Query(pol.Versions()))
			} else {
				s.log.Debug().Str("peer", peerID(c.Key)).Msg("error query throttled")
			}
		}
		return Received{}, nil

	case wire.KindDHCommit:
		if !pol.AllowV2() {
			return Received{}, nil
		}
		msg, err := wire.DecodeDHCommit(text)
		if err != nil {
			return Received{}, fmt.Errorf("%s: %w", kind, err)
		}
		tr, err := s.machine.ReceiveDHCommit(c.AKE, msg)
		if err != nil {
			return Received{}, err
		}
		s.apply(c, tr)
		return Received{}, nil

	case wire.KindDHKey:
		if !pol.AllowV2() {
			return Received{}, nil
		}
		msg, err := wire.DecodeDHKey(text)
		if err != nil {
			return Received{}, fmt.Errorf("%s: %w", kind, err)
		}
		tr, err := s.machine.ReceiveDHKey(c.AKE, msg, s.signer(c.Key))
		if err != nil {
			return Received{}, err
		}
		s.apply(c, tr)
		return Received{}, nil

	case wire.KindRevealSignature, wire.KindSignature, wire.KindV1KeyExchange, wire.KindData:
		return Received{}, s.unsupported(c, kind)

	case wire.KindPlaintext:
		return s.receivePlaintext(c, pol, text)
	}
	return Received{}, fmt.Errorf("unhandled message kind %s", kind)
}

func (s *Service) receiveQuery(c *conversation.Context, pol policy.Policy, text string) error {
	versions := wire.ParseQuery(text)
	switch {
	case wire.Contains(versions, 2) && pol.AllowV2():
		return s.initiate(c)
	case wire.Contains(versions, 1) && pol.AllowV1():
		return s.unsupported(c, wire.KindV1KeyExchange)
	}
	return nil
}

func (s *Service) receivePlaintext(c *conversation.Context, pol policy.Policy, text string) (Received, error) {
	pt := wire.ParsePlaintext(text)
	out := Received{Text: pt.Clean, Display: true}

	if c.MessageState != domain.MessageStatePlaintext {
		s.listener.ShowWarning(c.Key, warnUnencrypted)
	} else if pt.Tagged && pol.RequireEncryption() {
		s.listener.ShowWarning(c.Key, warnEncryptionNeeded)
	}
	if !pt.Tagged || !pol.WhitespaceStartsAKE() {
		return out, nil
	}

	switch {
	case wire.Contains(pt.Versions, 2) && pol.AllowV2():
		return out, s.initiate(c)
	case wire.Contains(pt.Versions, 1) && pol.AllowV1():
		return out, s.unsupported(c, wire.KindV1KeyExchange)
	}
	return out, nil
}

func (s *Service) initiate(c *conversation.Context) error {
	tr, err := s.machine.Initiate(c.AKE)
	if err != nil {
		return err
	}
	s.apply(c, tr)
	return nil
}

// apply commits a transition and performs its actions. Called with the
// context locked.
func (s *Service) apply(c *conversation.Context, tr ake.Transition) {
	prev := c.AKE
	c.Commit(tr.Next)
	if tr.Changed(prev) {
		s.metrics.Transition(prev.Auth.String(), tr.Next.Auth.String())
		s.log.Debug().
			Str("peer", peerID(c.Key)).
			Stringer("from", prev.Auth).
			Stringer("to", tr.Next.Auth).
			Msg("ake transition")
	}
	for _, a := range tr.Actions {
		switch a := a.(type) {
		case ake.Inject:
			s.inject(c.Key, a.Message)
		}
	}
}

func (s *Service) inject(key domain.ConversationKey, msg string) {
	s.metrics.Injected()
	s.listener.Inject(key, msg)
}

func (s *Service) unsupported(c *conversation.Context, kind wire.Kind) error {
	s.metrics.Unsupported(kind.String())
	s.log.Warn().Str("peer", peerID(c.Key)).Stringer("kind", kind).Msg("unsupported message")
	return &UnsupportedError{Kind: kind}
}

func (s *Service) signer(key domain.ConversationKey) ake.SignerFunc {
	return func() (domain.SigningKeyPair, error) {
		return s.listener.SigningKeyPair(key.Account, key.Protocol)
	}
}

// SendMessage gates outbound text. It returns the text to transmit, which
// may carry a whitespace tag.
func (s *Service) SendMessage(key domain.ConversationKey, text string) (string, error) {
	c, err := s.registry.Lookup(key)
	if err != nil {
		return "", err
	}
	c.Lock()
	defer c.Unlock()

	pol := s.listener.PolicyFor(c.Key)
	if !pol.Enabled() {
		return text, nil
	}
	switch c.MessageState {
	case domain.MessageStatePlaintext:
		if pol.RequireEncryption() {
			s.inject(c.Key, wire.Query(pol.Versions()))
			return "", ErrEncryptionRequired
		}
		if pol.SendWhitespaceTag() {
			return text + wire.Tag(pol.Versions()), nil
		}
		return text, nil
	case domain.MessageStateEncrypted:
		return "", &UnsupportedError{Kind: wire.KindData}
	case domain.MessageStateFinished:
		return "", ErrConversationFinished
	}
	return "", fmt.Errorf("unknown message state %v", c.MessageState)
}

// StartAKE asks the peer to begin a handshake by injecting a Query for
// every version policy allows.
func (s *Service) StartAKE(key domain.ConversationKey) error {
	c, err := s.registry.Lookup(key)
	if err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()

	pol := s.listener.PolicyFor(c.Key)
	if !pol.Enabled() {
		return ErrDisabled
	}
	s.inject(c.Key, wire.Query(pol.Versions()))
	return nil
}

// Status returns a snapshot of the conversation with key.
func (s *Service) Status(key domain.ConversationKey) (conversation.Snapshot, error) {
	c, err := s.registry.Lookup(key)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Conversations lists every conversation this dispatcher has seen.
func (s *Service) Conversations() []domain.ConversationKey {
	return s.registry.Keys()
}

// peerID is the log-safe form of a conversation key.
func peerID(key domain.ConversationKey) string {
	return crypto.Fingerprint([]byte(key.String())).String()
}
