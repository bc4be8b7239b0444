// Package main provides the entry point for the docpointer CLI.
//
// docpointer answers free-text pointer queries such as "signature date" or
// "total amount" against the pages of PDF, HTML, Markdown and text
// documents.
//
// Usage:
//
//	docpointer extract --pointer "total amount" invoice.pdf
//	docpointer serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
