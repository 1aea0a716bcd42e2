package wire

import "fmt"

// DecodeRevealSignature parses a Reveal-Signature message.
func DecodeRevealSignature(text string) (RevealSignature, error) {
	body, err := unframe(text, typeRevealSig)
	if err != nil {
		return RevealSignature{}, err
	}
	r, body, err := readData(body)
	if err != nil {
		return RevealSignature{}, err
	}
	enc, body, err := readData(body)
	if err != nil {
		return RevealSignature{}, err
	}
	if len(body) != MACSize {
		return RevealSignature{}, fmt.Errorf("%w: mac is %d bytes", ErrMalformed, len(body))
	}
	return RevealSignature{R: r, EncryptedSignature: enc, MAC: append([]byte(nil), body...)}, nil
}
