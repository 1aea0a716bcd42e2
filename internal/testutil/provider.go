package testutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"sync"

	"offrecord/internal/domain"
)

// ErrInjected is returned by Provider methods selected to fail.
var ErrInjected = errors.New("injected provider failure")

// Provider is a deterministic domain.Provider. Key pairs are numbered from
// one; the public key is the counter repeated, so tests can tell pairs apart.
type Provider struct {
	mu sync.Mutex
	n  byte

	// HashFor overrides the commitment hash of generated pairs.
	HashFor func(pub domain.X25519Public) []byte

	FailRandom  bool
	FailKeyPair bool
	FailSecret  bool
	FailReveal  bool

	Reveals []domain.RevealInput
}

var _ domain.Provider = (*Provider)(nil)

func (p *Provider) RandomBytes(n int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailRandom {
		return nil, ErrInjected
	}
	p.n++
	return bytes.Repeat([]byte{0xa0 ^ p.n}, n), nil
}

func (p *Provider) GenerateKeyPair() (domain.DHKeyPair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailKeyPair {
		return domain.DHKeyPair{}, ErrInjected
	}
	p.n++
	var kp domain.DHKeyPair
	for i := range kp.Public {
		kp.Public[i] = p.n
		kp.Private[i] = ^p.n
	}
	if p.HashFor != nil {
		kp.PublicHash = p.HashFor(kp.Public)
	} else {
		sum := sha256.Sum256(kp.Public[:])
		kp.PublicHash = sum[:]
	}
	return kp, nil
}

// EncryptCommitment concatenates r and pub.
func (p *Provider) EncryptCommitment(r []byte, pub domain.X25519Public) ([]byte, error) {
	out := append([]byte(nil), r...)
	return append(out, pub[:]...), nil
}

func (p *Provider) SharedSecret(ours domain.DHKeyPair, theirs domain.X25519Public) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSecret {
		return nil, ErrInjected
	}
	sum := sha256.Sum256(append(ours.Public[:], theirs[:]...))
	return sum[:], nil
}

func (p *Provider) RevealSignature(in domain.RevealInput) (domain.RevealPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailReveal {
		return domain.RevealPayload{}, ErrInjected
	}
	p.Reveals = append(p.Reveals, in)
	return domain.RevealPayload{
		EncryptedSignature: append([]byte("sig:"), in.Secret...),
		MAC:                bytes.Repeat([]byte{byte(in.KeyID)}, 20),
	}, nil
}
