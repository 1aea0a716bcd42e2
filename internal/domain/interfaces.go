package domain

import (
	"context"

	"offrecord/internal/protocol/policy"
)

// Listener is implemented by the host application. It supplies policy and
// long-term keys, and receives everything the protocol wants to send or show.
type Listener interface {
	// PolicyFor is consulted before every classification decision.
	PolicyFor(key ConversationKey) policy.Policy
	// Inject hands a fully encoded protocol message to the transport.
	Inject(key ConversationKey, msg string)
	ShowWarning(key ConversationKey, warning string)
	ShowError(key ConversationKey, errText string)
	// SigningKeyPair returns the long-term identity for account on protocol.
	SigningKeyPair(account, protocol string) (SigningKeyPair, error)
}

// Provider is the cryptographic boundary used by the handshake.
type Provider interface {
	RandomBytes(n int) ([]byte, error)
	// GenerateKeyPair returns a fresh ephemeral pair with its commitment hash.
	GenerateKeyPair() (DHKeyPair, error)
	// EncryptCommitment hides pub under the commitment value r. It must be
	// deterministic so a resent DH-Commit is byte-identical.
	EncryptCommitment(r []byte, pub X25519Public) ([]byte, error)
	SharedSecret(ours DHKeyPair, theirs X25519Public) ([]byte, error)
	RevealSignature(in RevealInput) (RevealPayload, error)
}

// IdentityStore persists long-term signing identities per account and protocol.
type IdentityStore interface {
	SaveIdentity(passphrase, account, protocol string, id SigningKeyPair) error
	LoadIdentity(passphrase, account, protocol string) (SigningKeyPair, error)
}

// IdentityService creates and loads long-term signing identities.
type IdentityService interface {
	GenerateIdentity(passphrase, account, protocol string) (SigningKeyPair, Fingerprint, error)
	LoadIdentity(passphrase, account, protocol string) (SigningKeyPair, error)
	FingerprintIdentity(passphrase, account, protocol string) (Fingerprint, error)
}

// RelayClient moves raw text messages through the relay.
type RelayClient interface {
	SendMessage(ctx context.Context, env Envelope) error
	FetchMessages(ctx context.Context, username string, limit int) ([]Envelope, error)
	AckMessages(ctx context.Context, username string, count int) error
}
