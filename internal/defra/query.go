package defra

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// IDPattern matches DefraDB document IDs (bae-<uuid>) and simple identifiers.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks that id is safe to interpolate into a GraphQL query.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if len(id) > 500 {
		return fmt.Errorf("ID too long: %d characters", len(id))
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("invalid ID format: contains unsafe characters")
	}
	return nil
}

// Direction is a sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// QueryBuilder constructs GraphQL queries that pass filter values as
// variables.
type QueryBuilder struct {
	collection string
	filters    []filterDef
	fields     []string
	order      []string
	limit      int
	varIndex   int
}

type filterDef struct {
	field   string
	op      string
	varName string
	varType string
	value   any
}

// NewQuery creates a QueryBuilder for the given collection.
func NewQuery(collection string) *QueryBuilder {
	return &QueryBuilder{
		collection: collection,
		fields:     []string{"_docID"},
	}
}

// Where adds a filter using the DefraDB operator op (for example "_eq").
func (q *QueryBuilder) Where(field, op string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{
		field:   field,
		op:      op,
		varName: q.nextVarName(),
		varType: inferGraphQLType(value),
		value:   value,
	})
	return q
}

// Filter adds an equality filter.
func (q *QueryBuilder) Filter(field string, value any) *QueryBuilder {
	return q.Where(field, "_eq", value)
}

// FilterNe adds an inequality filter.
func (q *QueryBuilder) FilterNe(field string, value any) *QueryBuilder {
	return q.Where(field, "_ne", value)
}

// FilterILike adds a case-insensitive pattern filter. % matches any run of
// characters.
func (q *QueryBuilder) FilterILike(field, pattern string) *QueryBuilder {
	return q.Where(field, "_ilike", pattern)
}

// Fields sets the fields to return (replaces default of just _docID).
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	q.fields = fields
	return q
}

// OrderBy appends a sort key.
func (q *QueryBuilder) OrderBy(field string, dir Direction) *QueryBuilder {
	q.order = append(q.order, fmt.Sprintf("{%s: %s}", field, dir))
	return q
}

// Limit sets the maximum number of results.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Build returns the query string and variables map.
func (q *QueryBuilder) Build() (string, map[string]any) {
	vars := make(map[string]any, len(q.filters))
	varDefs := make([]string, 0, len(q.filters))
	filterParts := make([]string, 0, len(q.filters))
	for _, f := range q.filters {
		varDefs = append(varDefs, fmt.Sprintf("$%s: %s", f.varName, f.varType))
		vars[f.varName] = f.value
		filterParts = append(filterParts, fmt.Sprintf("%s: {%s: $%s}", f.field, f.op, f.varName))
	}

	var b strings.Builder
	if len(varDefs) > 0 {
		fmt.Fprintf(&b, "query(%s) ", strings.Join(varDefs, ", "))
	}
	b.WriteString("{ ")
	b.WriteString(q.collection)

	var args []string
	if len(filterParts) > 0 {
		args = append(args, fmt.Sprintf("filter: {%s}", strings.Join(filterParts, ", ")))
	}
	switch len(q.order) {
	case 0:
	case 1:
		args = append(args, "order: "+q.order[0])
	default:
		args = append(args, "order: ["+strings.Join(q.order, ", ")+"]")
	}
	if q.limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", q.limit))
	}
	if len(args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}

	b.WriteString(" { ")
	b.WriteString(strings.Join(q.fields, " "))
	b.WriteString(" } }")

	return b.String(), vars
}

// Execute builds and executes the query on the given client.
func (q *QueryBuilder) Execute(ctx context.Context, client *Client) (*GQLResponse, error) {
	query, vars := q.Build()
	resp, err := client.Execute(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, &RequestError{Op: "query", Message: msg}
	}
	return resp, nil
}

func (q *QueryBuilder) nextVarName() string {
	name := fmt.Sprintf("v%d", q.varIndex)
	q.varIndex++
	return name
}

func inferGraphQLType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Boolean"
	default:
		return "String"
	}
}
