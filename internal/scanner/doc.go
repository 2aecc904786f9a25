// Package scanner turns content files into index records.
//
// The Dispatcher routes a file by extension to one of three scanners:
//   - EntryScanner: .md/.htm/.html entry files with RFC-822 style headers
//   - CategoryScanner: .cat/.meta category metadata files
//   - ImageScanner: image assets (dimensions and format)
//
// Scanner results are normalized into a tri-state Outcome at the dispatcher
// boundary; the scheduler never interprets raw scanner errors itself.
package scanner
