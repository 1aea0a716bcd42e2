package testutil

import (
	"sync"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/policy"
)

// Listener records everything the dispatcher hands to the host.
type Listener struct {
	mu       sync.Mutex
	Policy   policy.Policy
	Signer   domain.SigningKeyPair
	SignErr  error
	Injected []string
	Warnings []string
	Errors   []string
	// OnInject, when set, is called after a message is recorded.
	OnInject func(key domain.ConversationKey, msg string)
}

var _ domain.Listener = (*Listener)(nil)

// NewListener returns a recording listener with the given policy.
func NewListener(p policy.Policy) *Listener {
	return &Listener{Policy: p}
}

func (l *Listener) PolicyFor(domain.ConversationKey) policy.Policy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Policy
}

func (l *Listener) SetPolicy(p policy.Policy) {
	l.mu.Lock()
	l.Policy = p
	l.mu.Unlock()
}

func (l *Listener) Inject(key domain.ConversationKey, msg string) {
	l.mu.Lock()
	l.Injected = append(l.Injected, msg)
	hook := l.OnInject
	l.mu.Unlock()
	if hook != nil {
		hook(key, msg)
	}
}

func (l *Listener) ShowWarning(_ domain.ConversationKey, warning string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warnings = append(l.Warnings, warning)
}

func (l *Listener) ShowError(_ domain.ConversationKey, errText string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, errText)
}

func (l *Listener) SigningKeyPair(string, string) (domain.SigningKeyPair, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Signer, l.SignErr
}

// TakeInjected returns and clears the injected messages.
func (l *Listener) TakeInjected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.Injected
	l.Injected = nil
	return out
}

// Reset clears all recorded output.
func (l *Listener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Injected, l.Warnings, l.Errors = nil, nil, nil
}
