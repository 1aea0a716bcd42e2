package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/util/memzero"
)

const (
	identitiesDir = "identities"
	indexFile     = "identities.json"
)

// ErrNoIdentity is returned when no identity exists for an account.
var ErrNoIdentity = errors.New("no identity for account; run init first")

// IdentityRecord is the public index entry of a stored identity.
type IdentityRecord struct {
	Account     string             `json:"account"`
	Protocol    string             `json:"protocol"`
	Fingerprint domain.Fingerprint `json:"fingerprint"`
	CreatedAt   int64              `json:"created_at"`
}

type sealedIdentity struct {
	Private domain.Ed25519Private `json:"private"`
	Public  domain.Ed25519Public  `json:"public"`
}

// IdentityFileStore persists signing identities to disk.
type IdentityFileStore struct {
	dir    string
	params ScryptParams
	mu     sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string, params ScryptParams) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, params: params}
}

// SaveIdentity seals id for (account, protocol), replacing any previous one.
func (s *IdentityFileStore) SaveIdentity(passphrase, account, protocol string, id domain.SigningKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(sealedIdentity{Private: id.Private, Public: id.Public})
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(passphrase, raw, identityAD(account, protocol), s.params)
	if err != nil {
		return err
	}
	if err := replaceFile(s.path(account, protocol), ct); err != nil {
		return err
	}

	index, err := loadIndex(filepath.Join(s.dir, indexFile))
	if err != nil {
		return err
	}
	index[identityKey(account, protocol)] = IdentityRecord{
		Account:     account,
		Protocol:    protocol,
		Fingerprint: crypto.Fingerprint(id.Public[:]),
		CreatedAt:   time.Now().Unix(),
	}
	return saveIndex(filepath.Join(s.dir, indexFile), index)
}

// LoadIdentity reads and decrypts the identity for (account, protocol).
func (s *IdentityFileStore) LoadIdentity(passphrase, account, protocol string) (domain.SigningKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok, err := readIfExists(s.path(account, protocol))
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	if !ok {
		return domain.SigningKeyPair{}, fmt.Errorf("%w: %s on %s", ErrNoIdentity, account, protocol)
	}
	pt, err := open(passphrase, b, identityAD(account, protocol))
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	defer memzero.Zero(pt)

	var id sealedIdentity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.SigningKeyPair{}, err
	}
	return domain.SigningKeyPair{Private: id.Private, Public: id.Public}, nil
}

// List returns the index of stored identities, sorted by account and
// protocol. It does not need the passphrase.
func (s *IdentityFileStore) List() ([]IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := loadIndex(filepath.Join(s.dir, indexFile))
	if err != nil {
		return nil, err
	}
	out := make([]IdentityRecord, 0, len(index))
	for _, rec := range index {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Protocol < out[j].Protocol
	})
	return out, nil
}

func (s *IdentityFileStore) path(account, protocol string) string {
	name := url.PathEscape(account) + "@" + url.PathEscape(protocol) + ".json.enc"
	return filepath.Join(s.dir, identitiesDir, name)
}

func identityKey(account, protocol string) string {
	return fmt.Sprintf("%s|%s", account, protocol)
}

func identityAD(account, protocol string) []byte {
	return []byte(identityKey(account, protocol))
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
