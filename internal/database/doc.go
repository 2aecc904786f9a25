// Package database provides SQLite storage for the content index.
//
// It handles storage and retrieval of:
//   - Entry records parsed from content files
//   - Category metadata records
//   - Image asset records
//   - Per-file content fingerprints used for change detection
//
// The database uses WAL mode for improved concurrent read performance and
// includes automatic schema initialization. Mutating operations that can hit
// SQLite lock contention are wrapped in a bounded retry loop.
package database
