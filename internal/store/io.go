package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// identityIndex maps identityKey(account, protocol) to its public record.
type identityIndex map[string]IdentityRecord

func loadIndex(path string) (identityIndex, error) {
	index := make(identityIndex)
	b, ok, err := readIfExists(path)
	if err != nil || !ok {
		return index, err
	}
	if err := json.Unmarshal(b, &index); err != nil {
		return nil, fmt.Errorf("index %s: %w", filepath.Base(path), err)
	}
	return index, nil
}

func saveIndex(path string, index identityIndex) error {
	b, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return replaceFile(path, b)
}

// readIfExists reports ok=false for a missing file.
func readIfExists(path string) (b []byte, ok bool, err error) {
	b, err = os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// replaceFile writes b to a private temp file in the target directory,
// syncs it, and renames it over path.
func replaceFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
