// Package schema holds the DefraDB collection schemas used by the defra
// page store.
package schema

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed schemas/*.graphql
var schemaFS embed.FS

// Schema is a DefraDB collection schema.
type Schema struct {
	Name string // collection name, e.g. "Page"
	SDL  string
}

// names lists collections in the order they are applied.
var names = []string{"Page"}

// All returns every schema in application order.
func All() ([]Schema, error) {
	schemas := make([]Schema, 0, len(names))
	for _, name := range names {
		s, err := Get(name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, *s)
	}
	return schemas, nil
}

// Get returns a single schema by collection name.
func Get(name string) (*Schema, error) {
	for _, n := range names {
		if n != name {
			continue
		}
		content, err := schemaFS.ReadFile("schemas/" + strings.ToLower(name) + ".graphql")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		return &Schema{Name: name, SDL: string(content)}, nil
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}
