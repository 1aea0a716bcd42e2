package domain

import (
	"bytes"
	"fmt"
)

// ------------- X25519 -------------

// X25519Private is an ephemeral Diffie-Hellman private key.
type X25519Private [32]byte

// X25519Public is an ephemeral Diffie-Hellman public key.
type X25519Public [32]byte

func (k X25519Private) Slice() []byte { return k[:] }
func (k X25519Public) Slice() []byte  { return k[:] }

// Equal reports whether two public keys are identical.
func (k X25519Public) Equal(o X25519Public) bool { return bytes.Equal(k[:], o[:]) }

// X25519PublicFromBytes copies b into a public key, rejecting bad lengths.
func X25519PublicFromBytes(b []byte) (X25519Public, error) {
	var out X25519Public
	if len(b) != len(out) {
		return out, fmt.Errorf("X25519 public: want %d bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ------------- Ed25519 -------------

// Ed25519Private is a long-term signing key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Ed25519Public is a long-term signing public key.
type Ed25519Public [32]byte

func (k Ed25519Private) Slice() []byte { return k[:] }
func (k Ed25519Public) Slice() []byte  { return k[:] }

// ------------- Pairs -------------

// CommitmentSize is the length of the commitment value r. It doubles as the
// key that encrypts the DH-Commit public key.
const CommitmentSize = 32

// DHKeyPair is an ephemeral key pair together with the commitment hash of
// its public half.
type DHKeyPair struct {
	Private    X25519Private
	Public     X25519Public
	PublicHash []byte
}

// SigningKeyPair is the long-term identity used to sign Reveal-Signature
// messages.
type SigningKeyPair struct {
	Private Ed25519Private
	Public  Ed25519Public
}
