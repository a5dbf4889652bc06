// Package repositories implements SQLite persistence for stored scan history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ScanRunRepository] : one row per stored library scan
//   - [PackResultRepository] : per-pack counts and selection flags belonging to a run
//   - [ReportStore] : converts a [tasks.Report] into a run and its pack results
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #3) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
