// Package store provides SQLite-backed storage for flow records and named
// filter expressions.
//
// # Tables
//
//   - flows: one row per flow. A handful of indexed columns (kind, status
//     code, presence flags) let filtersql push simple leaves down to SQL;
//     the data column holds the canonical JSON of the whole record.
//   - saved_filters: named filter strings with their descriptions.
//
// # Querying
//
// QueryFlows compiles the predicate's expression tree with filtersql. When
// the WHERE clause is exact the rows are returned as-is; otherwise every row
// is re-checked with the Go predicate, so results always equal evaluating the
// predicate over ListFlows.
//
// All listings are ordered by id COLLATE BINARY ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
