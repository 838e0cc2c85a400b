// Package state implements the state stores consumed by the alarm decision engine.
//
// MemoryStore keeps everything in process. FileStore keeps the same data in
// memory and rewrites a JSON document on disk after every mutation, guarded by
// a lock file so that two processes never write the state at once.
package state
