// Package pipeline moves documents through extraction as a sequence of
// steps: sweep expired uploads, store the upload (or digest a local
// file), read pages, extract pointers, and persist the report.
//
// Each step implements Step and works on a Job. BatchProcessor runs many
// jobs concurrently with errgroup and returns them in input order.
package pipeline
