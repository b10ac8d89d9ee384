package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalid is returned when a serialized tree does not describe a document.
var ErrInvalid = errors.New("invalid document")

//go:embed document.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to load document schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("document.schema.json")
	})
	return schema, schemaErr
}

// Validate checks raw JSON against the document schema.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Validate(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Decode validates and parses a serialized document tree.
func Decode(data []byte) (*Node, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &n, nil
}

// Encode serializes a tree. A nil tree encodes as an empty document.
func Encode(n *Node) ([]byte, error) {
	if n == nil {
		n = Doc()
	}
	return json.Marshal(n)
}
