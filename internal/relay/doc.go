// Package relay hands resize jobs from an HTTP handler to the dispatcher.
//
// Submission is fire-and-forget: Submit never reports an error and never
// waits on the dispatcher. Local forwards in-process for the inline primary.
// Remote forwards over the primary's IPC socket from a worker process,
// logging and dropping messages it cannot deliver.
package relay
