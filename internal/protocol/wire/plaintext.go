package wire

import "strings"

const (
	tagBase = " \t  \t\t\t\t \t \t \t  "
	tagV1   = " \t \t  \t "
	tagV2   = "  \t\t  \t "
	tagV3   = "  \t\t  \t\t"
	tagLen  = 8
)

// Plaintext is an unmarked message, optionally carrying a whitespace tag.
type Plaintext struct {
	Clean    string // text with the tag removed
	Versions []int  // versions advertised by the tag, nil when untagged
	Tagged   bool
}

// ParsePlaintext locates and strips a whitespace tag.
func ParsePlaintext(text string) Plaintext {
	i := strings.Index(text, tagBase)
	if i < 0 {
		return Plaintext{Clean: text}
	}
	end := i + len(tagBase)
	seen := make(map[int]bool)
	for end+tagLen <= len(text) {
		v, ok := tagVersion(text[end : end+tagLen])
		if !ok {
			break
		}
		seen[v] = true
		end += tagLen
	}
	return Plaintext{
		Clean:    text[:i] + text[end:],
		Versions: sortedVersions(seen),
		Tagged:   true,
	}
}

// Tag builds a whitespace tag advertising versions.
func Tag(versions []int) string {
	var b strings.Builder
	b.WriteString(tagBase)
	if Contains(versions, 1) {
		b.WriteString(tagV1)
	}
	if Contains(versions, 2) {
		b.WriteString(tagV2)
	}
	return b.String()
}

// tagVersion recognises one version tag. Other whitespace is user text.
func tagVersion(chunk string) (int, bool) {
	switch chunk {
	case tagV1:
		return 1, true
	case tagV2:
		return 2, true
	case tagV3:
		return 3, true
	}
	return 0, false
}

// ParseError returns the human-readable part of an Error message.
func ParseError(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, errorPrefix))
}
