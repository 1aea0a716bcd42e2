// Package crypto exposes the primitives used by the key exchange.
//
// Contents
//
//   - X25519 key generation and Diffie-Hellman (GenerateX25519, DH)
//   - Ed25519 key generation and signing (GenerateEd25519, SignEd25519)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Provider, the domain.Provider used by the handshake state machine
//
// # Handshake construction
//
// The commitment hash of an ephemeral public key is SHA-256(pub). The key is
// hidden under the 32-byte commitment value r with ChaCha20-Poly1305 and a
// zero nonce; r is single-use so the nonce never repeats under one key, and
// a resent commitment is byte-identical.
//
// Reveal-Signature keys (c, m1, m2) are expanded from the shared secret with
// HKDF-SHA256 salted by r. The signer computes
//
//	M = HMAC(m1, gx || gy || pubB || keyid)
//	X = pubB || keyid || Sign(M)
//
// encrypts X under c and authenticates the ciphertext with HMAC(m2, .)
// truncated to wire.MACSize bytes.
package crypto
