package domain

import "fmt"

// ConversationKey identifies one peer conversation on one local account.
type ConversationKey struct {
	User     string // remote peer
	Account  string // local account
	Protocol string // transport protocol, e.g. "xmpp"
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Account, k.Protocol, k.User)
}

// MessageState governs how received plaintext is surfaced.
type MessageState int

const (
	MessageStatePlaintext MessageState = iota
	MessageStateEncrypted
	MessageStateFinished
)

func (s MessageState) String() string {
	switch s {
	case MessageStatePlaintext:
		return "plaintext"
	case MessageStateEncrypted:
		return "encrypted"
	case MessageStateFinished:
		return "finished"
	}
	return fmt.Sprintf("MessageState(%d)", int(s))
}

// AuthState is the position of a conversation in the authenticated key
// exchange.
type AuthState int

const (
	AuthStateNone AuthState = iota
	AuthStateAwaitingDHKey
	AuthStateAwaitingRevealSignature
	AuthStateAwaitingSignature
	AuthStateV1Setup
)

func (s AuthState) String() string {
	switch s {
	case AuthStateNone:
		return "none"
	case AuthStateAwaitingDHKey:
		return "awaiting_dhkey"
	case AuthStateAwaitingRevealSignature:
		return "awaiting_revealsig"
	case AuthStateAwaitingSignature:
		return "awaiting_sig"
	case AuthStateV1Setup:
		return "v1_setup"
	}
	return fmt.Sprintf("AuthState(%d)", int(s))
}

// RevealInput is everything bound into a Reveal-Signature message.
type RevealInput struct {
	Version     uint16
	Secret      []byte
	OurPublic   X25519Public
	TheirPublic X25519Public
	KeyID       uint32
	Signer      SigningKeyPair
	R           []byte
}

// RevealPayload is the signed and encrypted part of a Reveal-Signature
// message. The commitment value travels beside it in the clear.
type RevealPayload struct {
	EncryptedSignature []byte
	MAC                []byte
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Envelope is one raw text message carried by the relay. Body is whatever
// the protocol layer produced: plaintext, a Query, or an encoded message.
type Envelope struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Protocol  string `json:"protocol,omitempty"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}
