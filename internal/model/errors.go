package model

import "errors"

var (
	// ErrUnknownCategory is returned when a category name cannot be parsed.
	ErrUnknownCategory = errors.New("unknown field category")

	// ErrPageNumbering is returned when pages are not numbered 1..n in order.
	ErrPageNumbering = errors.New("pages must be numbered contiguously from 1")
)
