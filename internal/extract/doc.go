// Package extract answers pointer queries against document pages.
//
// Scanner applies one category's detector to one page. Extractor classifies
// each pointer once, scans every page with the matching detector, and
// assembles one model.PointerResult per pointer in input order, with
// matches ordered by page and then by position within the page.
//
// Extraction performs no I/O and holds no mutable shared state. With
// WithWorkers(n > 1) the per-(pointer, page) scans run on an errgroup and
// the results are reassembled into the same order the sequential path
// produces.
package extract
