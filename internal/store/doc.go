// Package store persists video records.
//
// Two drivers share one contract: the JSON driver keeps the records in a
// single array file and the SQLite driver keeps them in a small relational
// schema. Both hold the loaded set in memory; callers bracket read-modify-write
// cycles with Lock, or use Mutate and View which do that for them. Lock is
// exclusive across goroutines and across processes, so HTTP workers and the
// dispatcher can update the same file safely.
package store
