// Package policy evaluates the per-conversation feature flags that decide
// which protocol versions are allowed and which events start a handshake.
//
// A Policy is a plain bitset; every predicate is pure and unknown bits are
// ignored.
package policy
