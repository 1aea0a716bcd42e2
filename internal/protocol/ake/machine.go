package ake

import (
	"errors"
	"fmt"
	"math/big"

	"offrecord/internal/domain"
	"offrecord/internal/protocol/wire"
	"offrecord/internal/util/memzero"
)

var (
	// ErrUnknownState is returned for an AuthState outside the enumeration.
	ErrUnknownState = errors.New("unknown authentication state")
	// ErrNoKeys is returned when a step needs key material the state lacks.
	ErrNoKeys = errors.New("handshake has no ephemeral keys")
)

// SignerFunc supplies the long-term signing identity. It is only called
// when a Reveal-Signature is actually built.
type SignerFunc func() (domain.SigningKeyPair, error)

// Machine runs handshake steps against a crypto provider.
type Machine struct {
	provider domain.Provider
}

// NewMachine returns a Machine backed by provider.
func NewMachine(provider domain.Provider) *Machine {
	return &Machine{provider: provider}
}

// Initiate starts the exchange: a fresh r, two fresh pairs, and a DH-Commit
// binding the first pair.
func (m *Machine) Initiate(s State) (Transition, error) {
	r, err := m.provider.RandomBytes(domain.CommitmentSize)
	if err != nil {
		return Transition{}, fmt.Errorf("initiate: %w", err)
	}
	pairs, err := m.freshPairs()
	if err != nil {
		return Transition{}, fmt.Errorf("initiate: %w", err)
	}
	next := s.Clone()
	next.Auth = domain.AuthStateAwaitingDHKey
	next.R = r
	next.Ours = pairs

	msg, err := m.commitMessage(next)
	if err != nil {
		return Transition{}, fmt.Errorf("initiate: %w", err)
	}
	return emit(next, msg), nil
}

// ReceiveDHCommit handles a peer DH-Commit.
func (m *Machine) ReceiveDHCommit(s State, msg wire.DHCommit) (Transition, error) {
	switch s.Auth {
	case domain.AuthStateNone:
		return m.replyDHKey(s)

	case domain.AuthStateAwaitingDHKey:
		ours, ok := s.Current()
		if !ok {
			return Transition{}, fmt.Errorf("dh commit: %w", ErrNoKeys)
		}
		if Yields(msg.HashedGx, ours.PublicHash) {
			out, err := m.commitMessage(s)
			if err != nil {
				return Transition{}, fmt.Errorf("dh commit: resend: %w", err)
			}
			return emit(s, out), nil
		}
		return m.replyDHKey(s)

	case domain.AuthStateAwaitingRevealSignature:
		ours, ok := s.Current()
		if !ok {
			return Transition{}, fmt.Errorf("dh commit: %w", ErrNoKeys)
		}
		return emit(s, wire.DHKey{Gy: ours.Public.Slice()}.Encode()), nil

	case domain.AuthStateAwaitingSignature, domain.AuthStateV1Setup:
		return m.replyDHKey(s)
	}
	return Transition{}, fmt.Errorf("dh commit: %w: %v", ErrUnknownState, s.Auth)
}

// ReceiveDHKey handles a peer DH-Key.
func (m *Machine) ReceiveDHKey(s State, msg wire.DHKey, signer SignerFunc) (Transition, error) {
	switch s.Auth {
	case domain.AuthStateAwaitingDHKey:
		gy, err := domain.X25519PublicFromBytes(msg.Gy)
		if err != nil {
			return Transition{}, fmt.Errorf("dh key: %w: %v", wire.ErrMalformed, err)
		}
		next := s.Clone()
		next.Theirs = append(next.Theirs, gy)
		next.Auth = domain.AuthStateAwaitingSignature
		out, err := m.revealSignature(next, signer)
		if err != nil {
			return Transition{}, fmt.Errorf("dh key: %w", err)
		}
		return emit(next, out), nil

	case domain.AuthStateAwaitingSignature:
		gy, err := domain.X25519PublicFromBytes(msg.Gy)
		if err != nil || len(s.Theirs) == 0 || !s.Theirs[len(s.Theirs)-1].Equal(gy) {
			return ignore(s), nil
		}
		out, err := m.revealSignature(s, signer)
		if err != nil {
			return Transition{}, fmt.Errorf("dh key: %w", err)
		}
		return emit(s, out), nil

	case domain.AuthStateNone, domain.AuthStateAwaitingRevealSignature, domain.AuthStateV1Setup:
		return ignore(s), nil
	}
	return Transition{}, fmt.Errorf("dh key: %w: %v", ErrUnknownState, s.Auth)
}

// Yields reports whether the holder of ours must give way to a peer whose
// DH-Commit carried incoming: true when incoming is strictly smaller as an
// unsigned big-endian integer. Equal hashes do not yield.
//
// TODO: the comparison is not constant time; switch to a subtle-based
// compare if hash timing ever matters.
func Yields(incoming, ours []byte) bool {
	a := new(big.Int).SetBytes(incoming)
	b := new(big.Int).SetBytes(ours)
	return a.Cmp(b) < 0
}

// replyDHKey makes us the responder: a fresh r, two fresh pairs, and a
// DH-Key exposing the first.
func (m *Machine) replyDHKey(s State) (Transition, error) {
	r, err := m.provider.RandomBytes(domain.CommitmentSize)
	if err != nil {
		return Transition{}, fmt.Errorf("reply dh key: %w", err)
	}
	pairs, err := m.freshPairs()
	if err != nil {
		return Transition{}, fmt.Errorf("reply dh key: %w", err)
	}
	next := s.Clone()
	next.Auth = domain.AuthStateAwaitingRevealSignature
	next.R = r
	next.Ours = pairs
	return emit(next, wire.DHKey{Gy: pairs[0].Public.Slice()}.Encode()), nil
}

func (m *Machine) freshPairs() ([]domain.DHKeyPair, error) {
	pairs := make([]domain.DHKeyPair, 2)
	for i := range pairs {
		kp, err := m.provider.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		pairs[i] = kp
	}
	return pairs, nil
}

// commitMessage encodes the DH-Commit for the state's first pair. The
// provider encrypts deterministically, so a resend is byte-identical.
func (m *Machine) commitMessage(s State) (string, error) {
	ours, ok := s.Current()
	if !ok {
		return "", ErrNoKeys
	}
	enc, err := m.provider.EncryptCommitment(s.R, ours.Public)
	if err != nil {
		return "", err
	}
	return wire.DHCommit{EncryptedGx: enc, HashedGx: ours.PublicHash}.Encode(), nil
}

// revealSignature builds the Reveal-Signature from the newest local pair
// and the newest peer key.
func (m *Machine) revealSignature(s State, signer SignerFunc) (string, error) {
	if len(s.Ours) == 0 || len(s.Theirs) == 0 {
		return "", ErrNoKeys
	}
	id, err := signer()
	if err != nil {
		return "", fmt.Errorf("signing key: %w", err)
	}
	ours := s.Ours[len(s.Ours)-1]
	theirs := s.Theirs[len(s.Theirs)-1]

	secret, err := m.provider.SharedSecret(ours, theirs)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(secret)

	payload, err := m.provider.RevealSignature(domain.RevealInput{
		Version:     wire.ProtocolVersion,
		Secret:      secret,
		OurPublic:   ours.Public,
		TheirPublic: theirs,
		KeyID:       uint32(len(s.Ours) - 1),
		Signer:      id,
		R:           s.R,
	})
	if err != nil {
		return "", err
	}
	return wire.RevealSignature{
		R:                  s.R,
		EncryptedSignature: payload.EncryptedSignature,
		MAC:                payload.MAC,
	}.Encode(), nil
}
