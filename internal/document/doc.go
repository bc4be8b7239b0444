// Package document turns stored documents into per-page text.
//
// A Provider reads one document format and returns pages numbered from 1.
// Pages with no extractable text are kept with an empty Text so that page
// numbers stay aligned with the source document. Every provider
// NFC-normalises page text.
//
// Supported formats:
//   - PDF (.pdf): structure checked with pdfcpu, text read with ledongthuc/pdf
//   - HTML (.html, .htm): CSS page-break properties split pages
//   - Markdown (.md, .markdown): thematic breaks (---) split pages
//   - Plain text (.txt): form feeds split pages
//
// A corrupt or invalid document fails with an error matching
// ErrDocumentUnreadable. Callers surface it unchanged.
package document
