// Package main runs the in-memory HTTP relay used by offrecord peers during
// development and tests. It queues text envelopes for recipients until they
// fetch and acknowledge them.
//
// HTTP API
//
//	POST /msg/{user}
//	    Enqueue an Envelope destined to {user}. If Timestamp is zero, the
//	    server fills it with the current Unix time.
//
//	GET /msg/{user}?limit=N
//	    Return up to N queued Envelopes for {user}.
//
//	POST /msg/{user}/ack { "count": N }
//	    Drop the first N queued envelopes for {user}.
//
//	GET /healthz, GET /metrics
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Senders over --send-rps get 429; a full recipient queue gets 507.
//   - Every request is access-logged through zerolog.
//
// The relay never sees private keys. Handshake messages pass through it as
// opaque text.
package main
