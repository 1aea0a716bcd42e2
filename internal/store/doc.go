// Package store provides file-based persistence for long-term signing
// identities.
//
// Each (account, protocol) identity is sealed in its own file with a key
// derived from the user's passphrase (scrypt + ChaCha20-Poly1305). A plain
// JSON index records which identities exist and their public fingerprints so
// they can be listed without the passphrase. Writes go through a temp file
// and rename. All methods are concurrency-safe via internal locking.
//
// Conversation state is never persisted.
package store
