// Package flow defines the read-only flow records that filter expressions
// are evaluated against.
//
// A Flow is one intercepted client/server exchange: an HTTP request/response
// pair, a raw TCP stream, or a WebSocket connection. Sub-records are optional
// and model the lifecycle of the exchange:
//
//   - Request is present once the client has sent a request line.
//   - Response is present only after a reply has arrived.
//   - Error is present when the flow terminated abnormally.
//
// Response and Error are mutually exclusive. Validate reports records that
// violate this, and the loaders reject them.
//
// # Serialization
//
// Records decode from YAML, JSON or CUE using the field names of mitmproxy
// flow dumps (status_code, client_conn, server_conn, content_length).
// Headers accept both the compact pair form and the explicit map form:
//
//	headers:
//	  - [Content-Type, text/html]
//	  - {name: Cache-Control, value: no-cache}
//
// Addresses accept [host, port] or {host: ..., port: ...}.
//
// MarshalCanonical produces sorted-key, NFC-normalized JSON. The store uses
// it for its data column and the golden tests use it for snapshots, so the
// same flow always serializes to the same bytes.
package flow
