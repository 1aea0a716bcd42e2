package wire

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ProtocolVersion is the only encoded-message version this package writes.
const ProtocolVersion uint16 = 2

// MACSize is the length of the truncated MAC carried in Reveal-Signature.
const MACSize = 20

const (
	typeDHCommit  byte = 0x02
	typeDHKey     byte = 0x0a
	typeRevealSig byte = 0x11
)

var (
	// ErrMalformed is returned for encoded messages that cannot be decoded.
	ErrMalformed = errors.New("malformed protocol message")
)

// DHCommit carries the encrypted and hashed initiator public key.
type DHCommit struct {
	EncryptedGx []byte
	HashedGx    []byte
}

// DHKey carries the responder's public key.
type DHKey struct {
	Gy []byte
}

// RevealSignature reveals the commitment value and carries the signed,
// encrypted identity block.
type RevealSignature struct {
	R                  []byte
	EncryptedSignature []byte
	MAC                []byte
}

// Encode returns the wire form of m.
func (m DHCommit) Encode() string {
	return encode(typeDHCommit, m.EncryptedGx, m.HashedGx)
}

// Encode returns the wire form of m.
func (m DHKey) Encode() string {
	return encode(typeDHKey, m.Gy)
}

// Encode returns the wire form of m. The MAC is written as a fixed-size
// trailer, not as a length-prefixed field.
func (m RevealSignature) Encode() string {
	body := appendData(nil, m.R)
	body = appendData(body, m.EncryptedSignature)
	mac := make([]byte, MACSize)
	copy(mac, m.MAC)
	body = append(body, mac...)
	return frame(typeRevealSig, body)
}

// DecodeDHCommit parses a DH-Commit message.
func DecodeDHCommit(text string) (DHCommit, error) {
	body, err := unframe(text, typeDHCommit)
	if err != nil {
		return DHCommit{}, err
	}
	enc, body, err := readData(body)
	if err != nil {
		return DHCommit{}, err
	}
	hash, _, err := readData(body)
	if err != nil {
		return DHCommit{}, err
	}
	if len(hash) == 0 {
		return DHCommit{}, fmt.Errorf("%w: empty commitment hash", ErrMalformed)
	}
	return DHCommit{EncryptedGx: enc, HashedGx: hash}, nil
}

// DecodeDHKey parses a DH-Key message.
func DecodeDHKey(text string) (DHKey, error) {
	body, err := unframe(text, typeDHKey)
	if err != nil {
		return DHKey{}, err
	}
	gy, _, err := readData(body)
	if err != nil {
		return DHKey{}, err
	}
	return DHKey{Gy: gy}, nil
}

// --- framing ---

func encode(typ byte, fields ...[]byte) string {
	var body []byte
	for _, f := range fields {
		body = appendData(body, f)
	}
	return frame(typ, body)
}

func frame(typ byte, body []byte) string {
	out := make([]byte, 0, 3+len(body))
	out = binary.BigEndian.AppendUint16(out, ProtocolVersion)
	out = append(out, typ)
	out = append(out, body...)
	return encodedPrefix + base64.StdEncoding.EncodeToString(out) + "."
}

func unframe(text string, want byte) ([]byte, error) {
	if !strings.HasPrefix(text, encodedPrefix) {
		return nil, fmt.Errorf("%w: missing prefix", ErrMalformed)
	}
	payload := text[len(encodedPrefix):]
	end := strings.IndexByte(payload, '.')
	if end < 0 {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformed)
	}
	raw, err := base64.StdEncoding.DecodeString(payload[:end])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("%w: short header", ErrMalformed)
	}
	if v := binary.BigEndian.Uint16(raw); v != ProtocolVersion {
		return nil, fmt.Errorf("%w: version %d", ErrMalformed, v)
	}
	if raw[2] != want {
		return nil, fmt.Errorf("%w: type 0x%02x, want 0x%02x", ErrMalformed, raw[2], want)
	}
	return raw[3:], nil
}

func appendData(dst, b []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}

func readData(b []byte) (field, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("%w: short length", ErrMalformed)
	}
	n := binary.BigEndian.Uint32(b)
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, fmt.Errorf("%w: field of %d bytes overruns message", ErrMalformed, n)
	}
	return append([]byte(nil), b[:n]...), b[n:], nil
}
