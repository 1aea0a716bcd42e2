// Package identity manages creation, encryption and loading of long-term
// signing identities.
//
// It enforces passphrase policy, generates Ed25519 key pairs per account and
// protocol, and persists them via the domain.IdentityStore. Keyring caches
// unlocked identities for the lifetime of a chat session.
package identity
