package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/wire"
)

var (
	// ErrCommitmentKey is returned when r is not a valid cipher key.
	ErrCommitmentKey = errors.New("commitment value must be 32 bytes")
)

// Provider implements domain.Provider with X25519, SHA-256,
// ChaCha20-Poly1305, HKDF-SHA256 and Ed25519.
type Provider struct {
	rand io.Reader
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider returns a Provider reading randomness from crypto/rand.
func NewProvider() *Provider {
	return &Provider{rand: rand.Reader}
}

// RandomBytes returns n bytes of randomness.
func (p *Provider) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(p.rand, b); err != nil {
		return nil, fmt.Errorf("random: %w", err)
	}
	return b, nil
}

// GenerateKeyPair returns a fresh ephemeral pair and the SHA-256 commitment
// hash of its public half.
func (p *Provider) GenerateKeyPair() (domain.DHKeyPair, error) {
	priv, pub, err := GenerateX25519()
	if err != nil {
		return domain.DHKeyPair{}, fmt.Errorf("generate dh pair: %w", err)
	}
	return domain.DHKeyPair{Private: priv, Public: pub, PublicHash: CommitmentHash(pub)}, nil
}

// CommitmentHash is the hash sent in a DH-Commit.
func CommitmentHash(pub domain.X25519Public) []byte {
	sum := sha256.Sum256(pub[:])
	return sum[:]
}

// EncryptCommitment seals pub under r. Output is deterministic in (r, pub).
func (p *Provider) EncryptCommitment(r []byte, pub domain.X25519Public) ([]byte, error) {
	aead, err := commitmentAEAD(r)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	return aead.Seal(nil, nonce[:], pub[:], nil), nil
}

func commitmentAEAD(r []byte) (cipher.AEAD, error) {
	if len(r) != domain.CommitmentSize {
		return nil, ErrCommitmentKey
	}
	return chacha20poly1305.New(r)
}

// SharedSecret computes the Diffie-Hellman secret between ours and theirs.
func (p *Provider) SharedSecret(ours domain.DHKeyPair, theirs domain.X25519Public) ([]byte, error) {
	s, err := DH(ours.Private, theirs)
	if err != nil {
		return nil, fmt.Errorf("shared secret: %w", err)
	}
	return s[:], nil
}

// RevealSignature signs and encrypts the identity block bound to this
// exchange.
func (p *Provider) RevealSignature(in domain.RevealInput) (domain.RevealPayload, error) {
	if len(in.Secret) == 0 {
		return domain.RevealPayload{}, errors.New("reveal signature: empty shared secret")
	}
	keys := kdfReveal(in.Version, in.Secret, in.R)
	defer keys.wipe()

	keyID := binary.BigEndian.AppendUint32(nil, in.KeyID)
	m := hmacSum(keys.m1, in.OurPublic[:], in.TheirPublic[:], in.Signer.Public[:], keyID)
	sig := SignEd25519(in.Signer.Private, m)

	x := make([]byte, 0, len(in.Signer.Public)+len(keyID)+len(sig))
	x = append(x, in.Signer.Public[:]...)
	x = append(x, keyID...)
	x = append(x, sig...)

	aead, err := chacha20poly1305.New(keys.c)
	if err != nil {
		return domain.RevealPayload{}, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	enc := aead.Seal(nil, nonce[:], x, nil)
	mac := hmacSum(keys.m2, enc)[:wire.MACSize]
	return domain.RevealPayload{EncryptedSignature: enc, MAC: mac}, nil
}
