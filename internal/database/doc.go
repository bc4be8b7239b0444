// Package database stores extraction history in SQLite.
//
// HistoryDB keeps three tables:
//   - extractions: one row per run with document metadata and a summary
//   - pointers: each input pointer with its position and routed category
//   - matches: each match with its page and position
//
// Categories are not part of the JSON wire shape, so they are stored
// relationally to let reports be rebuilt exactly. The driver is
// modernc.org/sqlite, which needs no cgo.
package database
