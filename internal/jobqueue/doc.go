// Package jobqueue holds the transcode job type and the FIFO queue with a
// single current-job slot that the dispatcher drains.
//
// Queue is not safe for concurrent use. The dispatcher's event loop owns it.
package jobqueue
