// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store and internal/task.
//
// The task store is where the queue's exclusivity guarantee lives: claiming
// uses FOR UPDATE SKIP LOCKED inside a scoped transaction so two concurrent
// claimers, even in separate processes, can never both observe and take the
// same pending row. All operations retry transient connection failures a
// small fixed number of times before surfacing them.
package postgres
