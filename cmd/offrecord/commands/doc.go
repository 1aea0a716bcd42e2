// Package commands defines the offrecord CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init           Create the signing identity for --account on --protocol
//   - fingerprint    Print the identity fingerprint (or list all with --all)
//   - query          Print the Query message for the configured policy
//   - send           Send one line to a peer through the relay
//   - recv           Fetch, dispatch and print queued messages
//   - chat           Interactive conversation with a peer
//   - demo           Run two in-process peers through a handshake
//
// # Implementation
//
// The root command loads Config (YAML file, then OFFRECORD_* environment,
// then flags), builds the logger and the dependency graph before any
// subcommand runs, so handlers share one app.Wire.
package commands
