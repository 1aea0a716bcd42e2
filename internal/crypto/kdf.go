package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"offrecord/internal/util/memzero"
)

// revealKeys are the per-handshake keys protecting the identity block.
type revealKeys struct {
	c  []byte // encrypts X
	m1 []byte // keys M
	m2 []byte // authenticates the encrypted signature
}

// kdfReveal expands the shared secret into c, m1 and m2 with HKDF-SHA256.
func kdfReveal(version uint16, secret, r []byte) revealKeys {
	info := binary.BigEndian.AppendUint16([]byte("AKE|reveal|"), version)
	h := hkdf.New(sha256.New, secret, r, info)
	k := revealKeys{
		c:  make([]byte, 32),
		m1: make([]byte, 32),
		m2: make([]byte, 32),
	}
	_, _ = io.ReadFull(h, k.c)
	_, _ = io.ReadFull(h, k.m1)
	_, _ = io.ReadFull(h, k.m2)
	return k
}

func (k revealKeys) wipe() {
	memzero.Zero(k.c)
	memzero.Zero(k.m1)
	memzero.Zero(k.m2)
}

func hmacSum(key []byte, parts ...[]byte) []byte {
	h := hmac.New(sha256.New, key)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
