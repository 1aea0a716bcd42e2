// Package app wires application dependencies for the CLI.
//
// It loads Config (YAML file, then environment overrides), builds the
// logger, identity store, relay client and dispatcher, and provides the
// HostListener that connects the protocol core to the relay and the
// terminal. Chat and RunDemo are the interactive and in-process front ends.
package app
