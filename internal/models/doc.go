// Package models defines the persisted entities of packfilter's scan history.
//
//   - [ScanRun] : one library scan with the bounds and thresholds it used and its totals
//   - [PackResult] : the counts and verdicts for one pack within a run
//
// Both implement [Model], which provides IDs, timestamps and validation, and
// support soft deletes. [Repository] is the CRUD contract the SQLite
// repositories fulfil.
package models
