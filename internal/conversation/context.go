package conversation

import (
	"sync"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/ake"
	"offrecord/internal/util/memzero"
)

// Context is the state of one conversation. Fields are guarded by the
// Context lock.
type Context struct {
	mu sync.Mutex

	Key          domain.ConversationKey
	MessageState domain.MessageState
	AKE          ake.State
}

func newContext(key domain.ConversationKey) *Context {
	return &Context{Key: key, MessageState: domain.MessageStatePlaintext}
}

func (c *Context) Lock()   { c.mu.Lock() }
func (c *Context) Unlock() { c.mu.Unlock() }

// Commit installs next as the handshake state. Private halves of local
// pairs that next no longer carries are wiped. The caller holds the lock.
func (c *Context) Commit(next ake.State) {
	for i := range c.AKE.Ours {
		if !carries(next.Ours, c.AKE.Ours[i].Public) {
			memzero.Zero(c.AKE.Ours[i].Private[:])
		}
	}
	if c.AKE.R != nil && !sameBacking(c.AKE.R, next.R) {
		memzero.Zero(c.AKE.R)
	}
	c.AKE = next
}

// Snapshot is a copy of the observable conversation state.
type Snapshot struct {
	Key          domain.ConversationKey
	MessageState domain.MessageState
	Auth         domain.AuthState
	OurKeys      int
	TheirKeys    int
}

// Snapshot copies the state under the context lock. It acquires that lock
// itself, so a caller already holding it (between Lock and Unlock) must not
// call Snapshot; it would deadlock.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Key:          c.Key,
		MessageState: c.MessageState,
		Auth:         c.AKE.Auth,
		OurKeys:      len(c.AKE.Ours),
		TheirKeys:    len(c.AKE.Theirs),
	}
}

func carries(pairs []domain.DHKeyPair, pub domain.X25519Public) bool {
	for _, kp := range pairs {
		if kp.Public.Equal(pub) {
			return true
		}
	}
	return false
}

func sameBacking(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}
