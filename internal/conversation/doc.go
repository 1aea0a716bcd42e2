// Package conversation holds per-peer conversation state and the registry
// that owns it.
//
// A Context is created on first access and lives for the lifetime of its
// Registry. Callers hold the Context lock for the whole of one dispatch so
// that classification, handshake steps and state commits for one peer never
// interleave.
package conversation
