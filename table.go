package litedb

import (
	"context"
	"fmt"

	"github.com/LionelAuroux/LiteDb/internal/core"
)

// Statements is the SQL text generated for a table.
type Statements = core.Statements

// Table is an immutable table description together with its generated
// statements. Declare tables once, typically as package-level variables,
// and share them between sessions.
type Table struct {
	schema core.Schema
}

// Define compiles a table description. fields maps each column name to its
// SQL definition; constraints are raw table constraint clauses. Exactly one
// primary key must be declared, either inline in one field definition or as
// a single "primary key(col, ...)" constraint.
func Define(name string, fields map[string]string, constraints ...string) (*Table, error) {
	sc, err := core.Compile(name, fields, constraints)
	if err != nil {
		return nil, err
	}
	return &Table{schema: sc}, nil
}

// MustDefine is like Define but panics on a malformed declaration.
func MustDefine(name string, fields map[string]string, constraints ...string) *Table {
	t, err := Define(name, fields, constraints...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string { return t.schema.Name }

// Columns returns the column names in lexicographic order.
func (t *Table) Columns() []string { return append([]string(nil), t.schema.Columns...) }

// PrimaryKey returns the key columns in declared order.
func (t *Table) PrimaryKey() []string { return append([]string(nil), t.schema.PrimaryKey...) }

// Constraints returns the raw constraint clauses.
func (t *Table) Constraints() []string { return append([]string(nil), t.schema.Constraints...) }

// Definition returns the SQL definition of column name.
func (t *Table) Definition(name string) (string, bool) {
	def, ok := t.schema.Fields[name]
	return def, ok
}

// SQL returns the generated statements.
func (t *Table) SQL() Statements { return t.schema.Statements }

// Record builds a record from values given in lexicographic column order.
func (t *Table) Record(values ...any) (*Record, error) {
	if len(values) != len(t.schema.Columns) {
		return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrArgument, t.Name(), len(t.schema.Columns), len(values))
	}
	return t.NewRecord(values, nil)
}

// Keyed builds a record from a column mapping; absent columns are nil.
func (t *Table) Keyed(named map[string]any) (*Record, error) {
	return t.NewRecord(nil, named)
}

// Scan builds a record from a row selected with "select *".
func (t *Table) Scan(row Row) (*Record, error) {
	if row == nil {
		return nil, fmt.Errorf("%w: %s: no row", ErrArgument, t.Name())
	}
	return t.Record(row...)
}

// NewRecord builds a record either positionally or by name. Supplying both
// forms is rejected.
func (t *Table) NewRecord(positional []any, named map[string]any) (*Record, error) {
	cols := t.schema.Columns
	if len(positional) > 0 && len(named) > 0 {
		return nil, fmt.Errorf("%w: %s: positional and named values are exclusive", ErrArgument, t.Name())
	}
	values := make(map[string]any, len(cols))
	for _, col := range cols {
		values[col] = nil
	}
	switch {
	case len(positional) > 0:
		if len(positional) != len(cols) {
			return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrArgument, t.Name(), len(cols), len(positional))
		}
		for i, col := range cols {
			values[col] = positional[i]
		}
	default:
		for k, v := range named {
			if _, ok := values[k]; !ok {
				return nil, fmt.Errorf("%w: %s has no column %q", ErrArgument, t.Name(), k)
			}
			values[k] = v
		}
	}
	return &Record{table: t, values: values}, nil
}

// Insert runs the generated insert statement.
func (t *Table) Insert(ctx context.Context, s *Session, p Param) error {
	return s.Execute(ctx, t.schema.Statements.Insert, p)
}

// Update runs the generated update statement keyed by the primary key.
func (t *Table) Update(ctx context.Context, s *Session, p Param) error {
	if t.schema.Statements.Update == "" {
		return fmt.Errorf("%w: %s has no column outside its primary key", ErrArgument, t.Name())
	}
	return s.Execute(ctx, t.schema.Statements.Update, p)
}

// Delete runs the generated delete statement. A Keyed argument must name
// exactly the primary key columns.
func (t *Table) Delete(ctx context.Context, s *Session, p Param) error {
	if keys, ok := p.(Keyed); ok {
		if err := t.checkKeys(keys); err != nil {
			return err
		}
	}
	return s.Execute(ctx, t.schema.Statements.Delete, p)
}

// UpdateIf runs "update <table> set <fields> where <condition>". Both
// fragments are raw SQL inserted verbatim: never build them from untrusted
// input.
func (t *Table) UpdateIf(ctx context.Context, s *Session, fields, condition string) error {
	return s.Execute(ctx, t.schema.Statements.FillUpdateIf(fields, condition), nil)
}

// DeleteIf runs "delete from <table> where <condition>". The condition is
// raw SQL inserted verbatim: never build it from untrusted input.
func (t *Table) DeleteIf(ctx context.Context, s *Session, condition string) error {
	return s.Execute(ctx, t.schema.Statements.FillDeleteIf(condition), nil)
}

func (t *Table) checkKeys(keys Keyed) error {
	if len(keys) != len(t.schema.PrimaryKey) {
		return fmt.Errorf("%w: %s: delete needs exactly the key columns %v", ErrArgument, t.Name(), t.schema.PrimaryKey)
	}
	for _, k := range t.schema.PrimaryKey {
		if _, ok := keys[k]; !ok {
			return fmt.Errorf("%w: %s: missing key column %q", ErrArgument, t.Name(), k)
		}
	}
	return nil
}
