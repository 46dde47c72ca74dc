// Package dispatch runs resize jobs one at a time in submission order.
//
// A Dispatcher owns the job queue and a single current-job slot. Submissions
// are appended to the queue; whenever the slot is free the head of the queue
// moves into it and executes on its own goroutine. When execution reaches a
// terminal state the slot is cleared and the next job starts. Only one
// Dispatcher may exist per data directory; New enforces that with an
// exclusive lock file and fails with ErrAlreadyRunning otherwise.
//
// On success the record's processing flag for the job's "WxH" key is
// cleared. On failure the partial output is removed and the flag is left set
// so the job is recovered the next time a Dispatcher is constructed.
package dispatch
