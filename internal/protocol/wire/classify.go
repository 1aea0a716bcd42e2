package wire

import "strings"

// Kind is the message kind recognised from the wire prefix.
type Kind int

const (
	KindPlaintext Kind = iota
	KindQuery
	KindDHCommit
	KindDHKey
	KindRevealSignature
	KindSignature
	KindV1KeyExchange
	KindData
	KindError
)

const (
	queryPrefix     = "?OTR"
	encodedPrefix   = "?OTR:"
	errorPrefix     = "?OTR Error:"
	dhCommitPrefix  = "?OTR:AAIC"
	dhKeyPrefix     = "?OTR:AAIK"
	revealSigPrefix = "?OTR:AAIR"
	signaturePrefix = "?OTR:AAIS"
	v1KeyExPrefix   = "?OTR:AAEK"
	dataV1Prefix    = "?OTR:AAED"
	dataV2Prefix    = "?OTR:AAID"
)

// prefixes is ordered; the first match wins.
var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{queryPrefix + "?", KindQuery},
	{queryPrefix + "v", KindQuery},
	{dhCommitPrefix, KindDHCommit},
	{dhKeyPrefix, KindDHKey},
	{revealSigPrefix, KindRevealSignature},
	{signaturePrefix, KindSignature},
	{v1KeyExPrefix, KindV1KeyExchange},
	{dataV1Prefix, KindData},
	{dataV2Prefix, KindData},
	{errorPrefix, KindError},
}

// Classify determines the kind of a raw inbound message. Anything that
// matches none of the protocol prefixes is plaintext.
func Classify(text string) Kind {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p.prefix) {
			return p.kind
		}
	}
	return KindPlaintext
}

func (k Kind) String() string {
	switch k {
	case KindPlaintext:
		return "plaintext"
	case KindQuery:
		return "query"
	case KindDHCommit:
		return "dh_commit"
	case KindDHKey:
		return "dh_key"
	case KindRevealSignature:
		return "reveal_signature"
	case KindSignature:
		return "signature"
	case KindV1KeyExchange:
		return "v1_key_exchange"
	case KindData:
		return "data"
	case KindError:
		return "error"
	}
	return "unknown"
}
