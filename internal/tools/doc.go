// Package tools owns external process invocation for loader drivers.
//
// Ownership boundary:
// - command execution helpers
//
// - argv formatting for logs and errors
package tools
