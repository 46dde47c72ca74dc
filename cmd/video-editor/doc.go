// Command video-editor runs the video upload service and controls it.
//
// `serve` runs the primary in the foreground: it owns the resize dispatcher
// and forks one HTTP worker per CPU. `start`, `stop` and `status` manage a
// detached primary over its IPC socket.
package main
