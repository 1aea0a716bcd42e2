package wire

import (
	"sort"
	"strconv"
	"strings"
)

// ParseQuery returns the protocol versions advertised by a Query message,
// ascending and without duplicates.
//
//	?OTR?       version 1
//	?OTRv2?     version 2
//	?OTR?v2?    versions 1 and 2
func ParseQuery(text string) []int {
	if !strings.HasPrefix(text, queryPrefix) {
		return nil
	}
	rest := text[len(queryPrefix):]
	seen := make(map[int]bool)
	if strings.HasPrefix(rest, "?") {
		seen[1] = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "v") {
		rest = rest[1:]
		end := strings.IndexByte(rest, '?')
		if end >= 0 {
			for _, c := range rest[:end] {
				if c >= '0' && c <= '9' {
					seen[int(c-'0')] = true
				}
			}
		}
	}
	return sortedVersions(seen)
}

// Query builds a Query message advertising versions.
func Query(versions []int) string {
	seen := make(map[int]bool, len(versions))
	for _, v := range versions {
		seen[v] = true
	}
	var b strings.Builder
	b.WriteString(queryPrefix)
	if seen[1] {
		b.WriteByte('?')
	}
	var rest []int
	for _, v := range sortedVersions(seen) {
		if v != 1 && v > 0 && v < 10 {
			rest = append(rest, v)
		}
	}
	if len(rest) > 0 {
		b.WriteByte('v')
		for _, v := range rest {
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte('?')
	}
	return b.String()
}

// Contains reports whether versions lists v.
func Contains(versions []int, v int) bool {
	for _, x := range versions {
		if x == v {
			return true
		}
	}
	return false
}

func sortedVersions(seen map[int]bool) []int {
	out := make([]int, 0, len(seen))
	for v, ok := range seen {
		if ok {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
