// Package model defines the core data structures shared by docpointer packages.
//
// This package contains the following main types:
//   - Page: One page of extracted document text
//   - FieldCategory: The semantic class a pointer is routed to
//   - Match / PointerResult / ExtractionResponse: The extraction result shape
//   - ExtractionReport: A response wrapped with document metadata for reporting
//
// The types serialize to the JSON wire shape served by the HTTP API and
// stored in the history database.
package model
