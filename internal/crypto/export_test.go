package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/wire"
)

// The receiving half of the commitment and Reveal-Signature lives here so
// tests can check what Provider produces.

var ErrRevealAuth = errors.New("reveal signature authentication failed")

// OpenCommitment reverses EncryptCommitment once r has been revealed and
// checks the result against the committed hash.
func OpenCommitment(r, encrypted, hash []byte) (domain.X25519Public, error) {
	aead, err := commitmentAEAD(r)
	if err != nil {
		return domain.X25519Public{}, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], encrypted, nil)
	if err != nil {
		return domain.X25519Public{}, fmt.Errorf("open commitment: %w", err)
	}
	pub, err := domain.X25519PublicFromBytes(raw)
	if err != nil {
		return domain.X25519Public{}, err
	}
	if !hmac.Equal(CommitmentHash(pub), hash) {
		return domain.X25519Public{}, errors.New("commitment hash mismatch")
	}
	return pub, nil
}

type Revealed struct {
	Signer domain.Ed25519Public
	KeyID  uint32
}

// VerifyRevealSignature undoes RevealSignature. signerDH is the sender's
// ephemeral public key and verifierDH the receiver's own.
func VerifyRevealSignature(secret, r []byte, signerDH, verifierDH domain.X25519Public, payload domain.RevealPayload) (Revealed, error) {
	keys := kdfReveal(wire.ProtocolVersion, secret, r)
	defer keys.wipe()

	mac := hmacSum(keys.m2, payload.EncryptedSignature)[:wire.MACSize]
	if !hmac.Equal(mac, payload.MAC) {
		return Revealed{}, ErrRevealAuth
	}
	aead, err := chacha20poly1305.New(keys.c)
	if err != nil {
		return Revealed{}, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	x, err := aead.Open(nil, nonce[:], payload.EncryptedSignature, nil)
	if err != nil {
		return Revealed{}, ErrRevealAuth
	}
	var out Revealed
	if len(x) < len(out.Signer)+4 {
		return Revealed{}, ErrRevealAuth
	}
	copy(out.Signer[:], x)
	out.KeyID = binary.BigEndian.Uint32(x[len(out.Signer):])
	sig := x[len(out.Signer)+4:]

	m := hmacSum(keys.m1, signerDH[:], verifierDH[:], out.Signer[:], x[len(out.Signer):len(out.Signer)+4])
	if !ed25519.Verify(ed25519.PublicKey(out.Signer[:]), m, sig) {
		return Revealed{}, ErrRevealAuth
	}
	return out, nil
}
