// Package server implements the MCP (Model Context Protocol) server for blob
// counting.
//
// This package provides a JSON-RPC 2.0 server that exposes the segmentation
// pipeline through the MCP protocol, so MCP clients can count and inspect the
// objects in an image.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Blob Segmentation:
//   - blob_segment: Count objects; report area, bounding box and centroid
//   - blob_mask: Render the binary, cleaned or labeled stage
//   - blob_annotate: Draw boxes, centroids and coordinates
//   - blob_crop: Extract one accepted object
//
// Every blob_* tool starts from the server's configuration (or the
// "adaptive" preset) and accepts per-call overrides for the threshold,
// morphology and area filter. Overrides never change the server's own
// configuration.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Lines that are not valid JSON get a -32700 parse error reply.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
