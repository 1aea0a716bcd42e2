// Package ake implements the version 2 authenticated key exchange state
// machine up to the Reveal-Signature message.
//
// Steps are pure with respect to the conversation: each takes the current
// State and returns a Transition holding the next State and the Actions to
// perform. Callers commit Next and perform the actions only when the step
// returned no error, so a failing provider or listener never leaves a
// half-updated conversation behind.
//
//	None ──Initiate──▶ AwaitingDHKey ──DH-Key──▶ AwaitingSignature
//	  │                     │
//	  └──DH-Commit──▶ AwaitingRevealSignature ◀──DH-Commit (we win)──┘
package ake
