// Package server implements the MCP (Model Context Protocol) server for shelf detection.
//
// This package provides a JSON-RPC 2.0 server that exposes the detection
// pipeline through the MCP protocol, so an assistant can scan a shelf list,
// inspect the candidates and export them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - shelf_detect: Detect shelf rectangles in an image or PDF, optionally with OCR
//   - shelf_export: Export the current result set as CSV or JSON
//   - shelf_overlay: Render the current rectangles on a page as PNG
//   - shelf_status: Readiness of the geometry backend and OCR engine
//
// # State
//
// The result of the last successful shelf_detect is the current result set.
// A failed shelf_detect clears it, so shelf_export and shelf_overlay never
// return data from an earlier document as if it were current. Rasterized
// documents are cached by path and resolution for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid arguments, -32000 for every other failure
//   - message: Human-readable error description
//   - data: {"kind": <error kind>, "error": <details>}
package server
