// Package services defines shared helpers consumed by dispatch, transcode, and
// the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper, so callers can classify
//     failures (external tool, validation, not found) with errors.Is and map
//     them to HTTP status codes.
package services
