// Package daemonrun assembles the primary and worker processes from their
// parts and runs them until a signal or an IPC stop request arrives.
package daemonrun
