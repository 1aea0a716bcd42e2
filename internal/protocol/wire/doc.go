// Package wire classifies and encodes the text messages of the protocol.
//
// # Message kinds
//
// Every message travels as plain text over the host transport and is
// recognised by a fixed prefix:
//
//	?OTR? / ?OTRv        Query
//	?OTR:AAIC            DH-Commit
//	?OTR:AAIK            DH-Key
//	?OTR:AAIR            Reveal-Signature
//	?OTR:AAIS            Signature
//	?OTR:AAEK            legacy (version 1) Key-Exchange
//	?OTR:AAED, ?OTR:AAID Data
//	?OTR Error:          Error
//
// Anything else is plaintext, which may hide a whitespace tag advertising the
// sender's supported versions.
//
// # Encoding
//
// Encoded messages are "?OTR:" + base64(payload) + ".", where the payload is
// a big-endian uint16 version, a type byte, and length-prefixed fields.
// DH-Commit and DH-Key are decoded; Reveal-Signature is only encoded since
// an inbound one is never processed. The other kinds are classified but
// never decoded.
package wire
