package ake

import (
	"offrecord/internal/domain"
)

// State is the handshake portion of a conversation.
type State struct {
	Auth   domain.AuthState
	R      []byte                // commitment value, withheld until Reveal-Signature
	Ours   []domain.DHKeyPair    // local ephemeral pairs, oldest first
	Theirs []domain.X25519Public // peer ephemeral keys, oldest first
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Auth: s.Auth}
	if s.R != nil {
		out.R = append([]byte(nil), s.R...)
	}
	if s.Ours != nil {
		out.Ours = make([]domain.DHKeyPair, len(s.Ours))
		for i, kp := range s.Ours {
			kp.PublicHash = append([]byte(nil), kp.PublicHash...)
			out.Ours[i] = kp
		}
	}
	if s.Theirs != nil {
		out.Theirs = append([]domain.X25519Public(nil), s.Theirs...)
	}
	return out
}

// Current returns the first local pair, the one exposed to the peer in
// DH-Commit and DH-Key.
func (s State) Current() (domain.DHKeyPair, bool) {
	if len(s.Ours) == 0 {
		return domain.DHKeyPair{}, false
	}
	return s.Ours[0], true
}

// Action is something the caller performs after committing a Transition.
type Action interface {
	isAction()
}

// Inject sends an encoded protocol message to the peer.
type Inject struct {
	Message string
}

func (Inject) isAction() {}

// Transition is the outcome of a step.
type Transition struct {
	Next    State
	Actions []Action
}

// Changed reports whether the step moved to another auth state.
func (t Transition) Changed(prev State) bool { return t.Next.Auth != prev.Auth }

// ignore is the explicit no-op outcome.
func ignore(s State) Transition { return Transition{Next: s} }

func emit(next State, msg string) Transition {
	return Transition{Next: next, Actions: []Action{Inject{Message: msg}}}
}
