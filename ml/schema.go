package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Schema is the canonical, ordered list of feature columns the model was
// trained against. The model has no column names at inference time, only
// positions, so order is load-bearing. Immutable after load.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a schema from an ordered column list.
func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("schema has no columns")
	}
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("schema column %d is empty", i)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("duplicate schema column %q", name)
		}
		index[name] = i
	}
	return &Schema{columns: columns, index: index}, nil
}

// LoadSchema reads a schema descriptor produced by the training pipeline,
// a JSON object with a "columns" array.
func LoadSchema(path string) (*Schema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var descriptor struct {
		Columns []string `json:"columns"`
	}
	if err := json.Unmarshal(payload, &descriptor); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	schema, err := NewSchema(descriptor.Columns)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// Columns returns the canonical column order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Index returns the position of a column, if the schema contains it.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}
