package conversation

import (
	"errors"
	"sort"
	"sync"

	"offrecord/internal/domain"
)

// ErrInvalidArgument is returned when a conversation key has an empty part.
var ErrInvalidArgument = errors.New("conversation key: user, account and protocol must be non-empty")

// Registry maps conversation keys to contexts. Contexts are never evicted.
type Registry struct {
	mu       sync.Mutex
	contexts map[domain.ConversationKey]*Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{contexts: make(map[domain.ConversationKey]*Context)}
}

// Get returns the context for (user, account, protocol), creating it on
// first access. Concurrent first access yields one context.
func (r *Registry) Get(user, account, protocol string) (*Context, error) {
	if user == "" || account == "" || protocol == "" {
		return nil, ErrInvalidArgument
	}
	key := domain.ConversationKey{User: user, Account: account, Protocol: protocol}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contexts[key]; ok {
		return c, nil
	}
	c := newContext(key)
	r.contexts[key] = c
	return c, nil
}

// Lookup is Get keyed by a ConversationKey.
func (r *Registry) Lookup(key domain.ConversationKey) (*Context, error) {
	return r.Get(key.User, key.Account, key.Protocol)
}

// Keys returns every known conversation key, sorted by account, protocol
// and then user.
func (r *Registry) Keys() []domain.ConversationKey {
	r.mu.Lock()
	keys := make([]domain.ConversationKey, 0, len(r.contexts))
	for k := range r.contexts {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		return a.User < b.User
	})
	return keys
}
