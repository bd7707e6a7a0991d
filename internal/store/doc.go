// Package store provides SQLite-backed durable storage for blockvm run
// logs.
//
// The store is an append-only log with:
//   - Runs: one row per runtime run, keyed by run ID, with the project
//     fingerprint and engine version it ran under
//   - Events: every trace event of a run (thread starts, hats, procedure
//     entry and exit, reports, monitor updates, errors)
//   - Variables: snapshots of target variables at chosen frames
//
// # Ordering and identity
//
// Events are ordered by their logical sequence number, never by wall
// time: ORDER BY seq ASC, id COLLATE BINARY ASC. Event IDs are content
// hashes (see ir.EventID), so writing the same event twice is a no-op and
// two runs of the same project can be compared event by event.
//
// EventFilter narrows a read by kind, thread, block and frame range. It
// compiles to a parameterized WHERE clause; filter values are never
// spliced into SQL text.
//
// # Database configuration
//
// Set per connection through the DSN:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must belong to a known run
package store
