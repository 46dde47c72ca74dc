// Package httpapi serves the public video routes from worker processes (or
// from the primary when it runs inline).
//
// Uploads, thumbnails, dimension probes and audio extraction run inside the
// request. Resizes are only recorded here: the handler persists the
// processing flag and hands the job to a relay.Submitter, which forwards it
// to the single dispatcher.
package httpapi
