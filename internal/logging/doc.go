// Package logging provides file-based logging with rotation for codescope.
// Logs are written as JSON lines to ~/.codescope/logs/ so that analysis and
// indexing activity can be inspected with the codescope-logs viewer.
//
// In MCP server mode logging never touches stdout or stderr: stdout carries
// the JSON-RPC stream and stray bytes there break the protocol.
package logging
