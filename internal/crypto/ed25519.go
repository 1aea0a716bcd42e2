package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"offrecord/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (domain.SigningKeyPair, error) {
	var kp domain.SigningKeyPair
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return kp, err
	}
	copy(kp.Private[:], sk)
	copy(kp.Public[:], pk)
	return kp, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}
