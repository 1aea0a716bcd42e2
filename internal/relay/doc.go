// Package relay is a store-and-forward HTTP relay for raw protocol text and
// the client that talks to it.
//
// HTTP API
//
//	POST /msg/{user}
//	    Enqueue an Envelope destined to {user}. If Timestamp is zero, the
//	    server fills it with the current Unix time.
//
//	GET /msg/{user}?limit=N
//	    Return up to N queued Envelopes for {user}. If limit is absent or
//	    greater than the queue length, all queued envelopes are returned.
//
//	POST /msg/{user}/ack { "count": N }
//	    Drop the first N queued envelopes for {user}. If N exceeds the queue
//	    length, the queue is cleared.
//
//	GET /metrics
//	    Prometheus metrics, when the server was given a registry.
//
// All state is held in memory and lost on process exit. The relay only ever
// sees what peers send: plaintext, queries and encoded handshake messages.
// Requests accept a context for cancellation and deadlines. Non-2xx statuses
// are returned as errors with the HTTP method, full URL, and status text.
package relay
