// Package task implements the background synchronization task queue.
//
// A task is one scheduled unit of work: fetch activity data for one user on
// one platform for one calendar date. Tasks are persisted rows (see the Store
// interface); the queue is driven entirely by external periodic triggers
// calling the Processor, so no worker goroutines live here.
//
// Lifecycle:
//
//	pending --(claim)--> processing --(success)--> completed
//	processing --(failure, retries left)--> pending (priority demoted)
//	processing --(failure, retries exhausted)--> failed
//
// The claim transition is the correctness-critical operation: the Store must
// guarantee at-most-one claimant per task even when batch invocations overlap
// as separate OS processes.
package task
