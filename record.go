package litedb

import (
	"fmt"
	"reflect"
	"strings"
)

// Record is one row of a Table, addressed by column name. A Session reads
// its values while binding and never keeps a reference to it.
type Record struct {
	table  *Table
	values map[string]any
}

// Table returns the table the record belongs to.
func (r *Record) Table() *Table {
	return r.table
}

// Get returns the value of column name, or nil when the column is unknown.
func (r *Record) Get(name string) any {
	return r.values[name]
}

// Set assigns the value of column name.
func (r *Record) Set(name string, value any) error {
	if _, ok := r.values[name]; !ok {
		return fmt.Errorf("%w: %s has no column %q", ErrArgument, r.table.Name(), name)
	}
	r.values[name] = value
	return nil
}

// Map returns a copy of the column to value mapping.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Values returns the values in lexicographic column order.
func (r *Record) Values() []any {
	vals := make([]any, len(r.table.schema.Columns))
	for i, col := range r.table.schema.Columns {
		vals[i] = r.values[col]
	}
	return vals
}

// Equal reports whether both records belong to the same table and hold
// the same values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.table == o.table && reflect.DeepEqual(r.values, o.values)
}

func (r *Record) String() string {
	parts := make([]string, len(r.table.schema.Columns))
	for i, col := range r.table.schema.Columns {
		parts[i] = fmt.Sprintf("%s=%v", col, r.values[col])
	}
	return fmt.Sprintf("%s(%s)", r.table.Name(), strings.Join(parts, ", "))
}
