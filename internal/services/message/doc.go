// Package message dispatches inbound protocol text for a conversation and
// gates outbound text by policy.
//
// ReceiveMessage classifies one inbound message, drives the handshake state
// machine, hands any protocol replies to the Listener, and returns the text
// (if any) to show the local user. Reveal-Signature, Signature, version 1
// Key-Exchange and Data messages are reported as *UnsupportedError.
//
// Drain adapts the dispatcher to the relay: it fetches queued envelopes,
// dispatches them in order, and acknowledges what was processed.
package message
