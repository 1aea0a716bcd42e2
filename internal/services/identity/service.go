package identity

import (
	"fmt"
	"sync"
	"unicode"

	"offrecord/internal/crypto"
	"offrecord/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages signing identity creation and access using a backing store.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new signing identity for account on protocol,
// saves it encrypted with the passphrase, and returns it with its
// fingerprint.
func (s *Service) GenerateIdentity(
	passphrase, account, protocol string,
) (domain.SigningKeyPair, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.SigningKeyPair{}, "", ErrWeakPassphrase
	}
	id, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.SigningKeyPair{}, "", err
	}
	if err := s.store.SaveIdentity(passphrase, account, protocol, id); err != nil {
		return domain.SigningKeyPair{}, "", err
	}
	return id, crypto.Fingerprint(id.Public.Slice()), nil
}

// LoadIdentity decrypts and returns the identity for account on protocol.
func (s *Service) LoadIdentity(passphrase, account, protocol string) (domain.SigningKeyPair, error) {
	return s.store.LoadIdentity(passphrase, account, protocol)
}

// FingerprintIdentity returns the fingerprint of the stored public key.
func (s *Service) FingerprintIdentity(passphrase, account, protocol string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase, account, protocol)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(id.Public.Slice()), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

// Keyring unlocks identities on first use with one passphrase and keeps
// them in memory.
type Keyring struct {
	svc        domain.IdentityService
	passphrase string

	mu   sync.Mutex
	keys map[string]domain.SigningKeyPair
}

// NewKeyring returns a Keyring reading from svc.
func NewKeyring(svc domain.IdentityService, passphrase string) *Keyring {
	return &Keyring{svc: svc, passphrase: passphrase, keys: make(map[string]domain.SigningKeyPair)}
}

// SigningKeyPair returns the identity for account on protocol.
func (k *Keyring) SigningKeyPair(account, protocol string) (domain.SigningKeyPair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := account + "|" + protocol
	if id, ok := k.keys[key]; ok {
		return id, nil
	}
	id, err := k.svc.LoadIdentity(k.passphrase, account, protocol)
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	k.keys[key] = id
	return id, nil
}
