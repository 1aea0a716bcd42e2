package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Policy is a set of feature flags negotiated per conversation.
type Policy uint32

const (
	AllowV1            Policy = 0x01
	AllowV2            Policy = 0x02
	RequireEncryption  Policy = 0x04
	SendWhitespaceTag  Policy = 0x08
	WhitespaceStartAKE Policy = 0x10
	ErrorStartAKE      Policy = 0x20
)

// Presets matching the usual client settings.
const (
	Never         Policy = 0
	Manual               = AllowV1 | AllowV2
	Opportunistic        = AllowV1 | AllowV2 | SendWhitespaceTag | WhitespaceStartAKE | ErrorStartAKE
	Always               = AllowV1 | AllowV2 | RequireEncryption | WhitespaceStartAKE | ErrorStartAKE
)

var flagNames = map[string]Policy{
	"allow_v1":             AllowV1,
	"allow_v2":             AllowV2,
	"require_encryption":   RequireEncryption,
	"send_whitespace_tag":  SendWhitespaceTag,
	"whitespace_start_ake": WhitespaceStartAKE,
	"error_start_ake":      ErrorStartAKE,
}

var presets = map[string]Policy{
	"never":         Never,
	"manual":        Manual,
	"opportunistic": Opportunistic,
	"always":        Always,
}

func (p Policy) has(f Policy) bool { return p&f != 0 }

// AllowV1 reports whether the legacy protocol version may be used.
func (p Policy) AllowV1() bool { return p.has(AllowV1) }

// AllowV2 reports whether protocol version 2 may be used.
func (p Policy) AllowV2() bool { return p.has(AllowV2) }

// RequireEncryption reports whether plaintext should be refused or flagged.
func (p Policy) RequireEncryption() bool { return p.has(RequireEncryption) }

// SendWhitespaceTag reports whether outbound plaintext advertises our versions.
func (p Policy) SendWhitespaceTag() bool { return p.has(SendWhitespaceTag) }

// WhitespaceStartsAKE reports whether a tagged plaintext starts a handshake.
func (p Policy) WhitespaceStartsAKE() bool { return p.has(WhitespaceStartAKE) }

// ErrorStartsAKE reports whether a received Error message triggers a Query.
func (p Policy) ErrorStartsAKE() bool { return p.has(ErrorStartAKE) }

// Enabled reports whether any protocol version is allowed.
func (p Policy) Enabled() bool { return p.AllowV1() || p.AllowV2() }

// Versions returns the allowed protocol versions in ascending order.
func (p Policy) Versions() []int {
	var out []int
	if p.AllowV1() {
		out = append(out, 1)
	}
	if p.AllowV2() {
		out = append(out, 2)
	}
	return out
}

// String lists the set flags by name.
func (p Policy) String() string {
	var names []string
	for name, f := range flagNames {
		if p.has(f) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "never"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// Parse accepts either a preset name (never, manual, opportunistic, always)
// or a list of flag names separated by '|' or ','.
func Parse(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Never, nil
	}
	if p, ok := presets[s]; ok {
		return p, nil
	}
	var out Policy
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		f, ok := flagNames[strings.TrimSpace(part)]
		if !ok {
			return Never, fmt.Errorf("unknown policy flag %q", part)
		}
		out |= f
	}
	return out, nil
}
