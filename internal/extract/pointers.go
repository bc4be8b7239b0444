package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrInvalidPointers is returned when a pointer list is not a JSON
	// array of strings.
	ErrInvalidPointers = errors.New("invalid JSON for pointers")

	// ErrTooManyPointers is returned when a pointer list exceeds the limit.
	ErrTooManyPointers = errors.New("too many pointers")
)

const pointerSchemaURL = "pointers.json"

const pointerSchemaSource = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "string"}
}`

// pointerSchema is compiled on first use and shared afterwards.
var pointerSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(pointerSchemaURL, strings.NewReader(pointerSchemaSource)); err != nil {
		return nil, fmt.Errorf("add pointer schema: %w", err)
	}
	return compiler.Compile(pointerSchemaURL)
})

// ParsePointers decodes a JSON pointer list such as ["total amount","email"].
// Pointers are returned unmodified, duplicates included. A limit of zero or
// less disables the length check.
//
// Design decision: the list is checked against a JSON Schema rather than
// by unmarshalling into []string. The schema error names the offending
// item's location, which is what a client needs when the HTTP API
// answers 400.
func ParsePointers(data []byte, limit int) ([]string, error) {
	schema, err := pointerSchema()
	if err != nil {
		return nil, err
	}

	// Unmarshal rejects anything after the first value, closing brackets
	// included.
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPointers, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPointers, err)
	}

	items, _ := doc.([]any)
	if limit > 0 && len(items) > limit {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyPointers, len(items), limit)
	}
	pointers := make([]string, len(items))
	for i, item := range items {
		pointers[i], _ = item.(string)
	}
	return pointers, nil
}
