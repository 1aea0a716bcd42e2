package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/policy"
)

// KeySource supplies long-term signing identities.
type KeySource interface {
	SigningKeyPair(account, protocol string) (domain.SigningKeyPair, error)
}

// HostListener connects the protocol core to the relay and a terminal.
type HostListener struct {
	cfg     Config
	keys    KeySource
	relay   domain.RelayClient
	log     zerolog.Logger
	timeout time.Duration

	mu  sync.Mutex
	out io.Writer
}

var _ domain.Listener = (*HostListener)(nil)

// NewHostListener returns a listener that injects through relay and prints
// notices to out.
func NewHostListener(cfg Config, keys KeySource, relay domain.RelayClient, out io.Writer, logger zerolog.Logger) *HostListener {
	return &HostListener{
		cfg:     cfg,
		keys:    keys,
		relay:   relay,
		out:     out,
		log:     logger.With().Str("component", "listener").Logger(),
		timeout: 10 * time.Second,
	}
}

func (l *HostListener) PolicyFor(key domain.ConversationKey) policy.Policy {
	return l.cfg.PolicyFor(key.Protocol)
}

// Inject posts msg to the peer. Failures are logged; injection is fire and
// forget.
func (l *HostListener) Inject(key domain.ConversationKey, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	env := domain.Envelope{
		From:      key.Account,
		To:        key.User,
		Protocol:  key.Protocol,
		Body:      msg,
		Timestamp: time.Now().Unix(),
	}
	if err := l.relay.SendMessage(ctx, env); err != nil {
		l.log.Error().Err(err).Str("to", key.User).Msg("inject failed")
	}
}

func (l *HostListener) ShowWarning(key domain.ConversationKey, warning string) {
	l.printf("[%s] warning: %s\n", key.User, warning)
}

func (l *HostListener) ShowError(key domain.ConversationKey, errText string) {
	l.printf("[%s] error: %s\n", key.User, errText)
}

func (l *HostListener) SigningKeyPair(account, protocol string) (domain.SigningKeyPair, error) {
	return l.keys.SigningKeyPair(account, protocol)
}

func (l *HostListener) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}
