// Package server implements the MCP (Model Context Protocol) server for
// screen recognition.
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
// Recognition:
//   - screen_recognize: OCR a screenshot, identify its template and extract fields
//   - screen_match: Identify the template and its alignment only
//   - screen_ocr: Return the recognized lines and words
//
// Templates:
//   - template_list: List loaded templates in match order
//   - template_get: Fetch one template by id or screen type
//   - template_reload: Reload templates from disk
//
// # Error Handling
//
// A screen that cannot be recognized is a normal result: screen_recognize
// answers with success=false and the reason in errors. Tool execution errors
// (unreadable file, bad arguments, template configuration errors) are
// returned as JSON-RPC error responses with code -32000; malformed tools/call
// params use -32602. A line that is not JSON is answered with -32700 and a
// null id. Notifications (requests without an id) are never answered.
//
// # Usage
//
//	srv := server.New(recognizer, store, version, logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
