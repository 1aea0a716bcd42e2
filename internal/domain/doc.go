// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (keys, conversation keys, handshake states) and the
// contracts of the Listener and crypto Provider boundaries.
package domain
