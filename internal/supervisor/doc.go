// Package supervisor keeps a fixed number of worker processes alive.
//
// Each slot runs its own loop: launch a worker, wait for it to exit, launch a
// replacement. Exited workers are replaced immediately with no backoff and no
// restart limit. Only a failure to launch at all waits SpawnRetry before the
// next attempt.
package supervisor
