// Package daemon coordinates the long-running primary process.
//
// It owns the store handle, the single dispatcher and, unless the primary
// serves HTTP itself, the worker pool. Run drives the dispatcher loop and the
// pool under one context; Stop cancels it. The IPC service and the status
// command read state through Status and hand new jobs in through Submit.
//
// Keep orchestration here: job execution lives in dispatch and process
// supervision in supervisor.
package daemon
