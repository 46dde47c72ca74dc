// Package ipc exposes the primary process over JSON-RPC on a Unix socket and
// ships the matching client.
//
// Workers and the CLI hand resize jobs to the dispatcher with Submit; the CLI
// also uses Status and Stop.
// The wire message mirrors the original "new-resize" inter-process message so
// the payload stays recognisable in logs and captures.
package ipc
