// File: internal/core/builder.go
package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	inlineKeyRe    = regexp.MustCompile(`(?i)\bprimary\s+key\b`)
	compositeKeyRe = regexp.MustCompile(`(?i)\bprimary\s+key\s*\(([^)]*)\)`)
)

// Statements is the SQL text derived from one table declaration.
type Statements struct {
	Create   string
	Reset    string
	Insert   string
	Update   string // empty when every column belongs to the primary key
	Delete   string
	UpdateIf string // contains {fields} and {condition}
	DeleteIf string // contains {condition}
}

// FillUpdateIf substitutes the UpdateIf slots. fields and condition are
// raw SQL and are not parameterized.
func (s Statements) FillUpdateIf(fields, condition string) string {
	return strings.NewReplacer("{fields}", fields, "{condition}", condition).Replace(s.UpdateIf)
}

// FillDeleteIf substitutes the DeleteIf slot. condition is raw SQL and is
// not parameterized.
func (s Statements) FillDeleteIf(condition string) string {
	return strings.Replace(s.DeleteIf, "{condition}", condition, 1)
}

// Schema is the compiled form of a table declaration.
type Schema struct {
	Name        string
	Fields      map[string]string
	Columns     []string // lexicographic
	Constraints []string
	PrimaryKey  []string // declared key order
	Statements  Statements
}

// Compile validates a table declaration and builds its statement set.
func Compile(name string, fields map[string]string, constraints []string) (Schema, error) {
	if strings.TrimSpace(name) == "" {
		return Schema{}, fmt.Errorf("%w: empty table name", ErrSchema)
	}
	if len(fields) == 0 {
		return Schema{}, fmt.Errorf("%w: %s: no fields declared", ErrSchema, name)
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	pkey, err := primaryKey(name, columns, fields, constraints)
	if err != nil {
		return Schema{}, err
	}

	sc := Schema{
		Name:        name,
		Fields:      make(map[string]string, len(fields)),
		Columns:     columns,
		Constraints: append([]string(nil), constraints...),
		PrimaryKey:  pkey,
	}
	for k, v := range fields {
		sc.Fields[k] = v
	}
	sc.Statements = buildStatements(name, columns, fields, constraints, pkey)
	return sc, nil
}

func primaryKey(name string, columns []string, fields map[string]string, constraints []string) ([]string, error) {
	var inline []string
	for _, col := range columns {
		if inlineKeyRe.MatchString(fields[col]) {
			inline = append(inline, col)
		}
	}
	if len(inline) > 1 {
		return nil, fmt.Errorf("%w: %s: multiple primary keys (%s)", ErrSchema, name, strings.Join(inline, ", "))
	}

	var composite [][]string
	for _, c := range constraints {
		m := compositeKeyRe.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		var cols []string
		for _, part := range strings.Split(m[1], ",") {
			if p := strings.TrimSpace(part); p != "" {
				cols = append(cols, p)
			}
		}
		composite = append(composite, cols)
	}

	switch {
	case len(composite) > 1, len(composite) == 1 && len(inline) == 1:
		return nil, fmt.Errorf("%w: %s: multiple primary keys", ErrSchema, name)
	case len(inline) == 1:
		return inline, nil
	case len(composite) == 1 && len(composite[0]) > 0:
		for _, col := range composite[0] {
			if _, ok := fields[col]; !ok {
				return nil, fmt.Errorf("%w: %s: unknown key column %q", ErrSchema, name, col)
			}
		}
		return composite[0], nil
	}
	return nil, fmt.Errorf("%w: %s: missing primary key", ErrSchema, name)
}

func buildStatements(name string, columns []string, fields map[string]string, constraints, pkey []string) Statements {
	defs := make([]string, 0, len(columns)+len(constraints))
	for _, col := range columns {
		defs = append(defs, col+" "+fields[col])
	}
	defs = append(defs, constraints...)
	create := fmt.Sprintf("create table if not exists %s (\n%s\n)", name, strings.Join(defs, ",\n"))

	placeholders := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
	}

	isKey := make(map[string]bool, len(pkey))
	for _, k := range pkey {
		isKey[k] = true
	}
	var sets []string
	for _, col := range columns {
		if !isKey[col] {
			sets = append(sets, assign(col))
		}
	}
	conds := make([]string, len(pkey))
	for i, k := range pkey {
		conds[i] = assign(k)
	}
	where := strings.Join(conds, " and ")

	st := Statements{
		Create:   create,
		Reset:    fmt.Sprintf("drop table if exists %s;\n%s", name, create),
		Insert:   fmt.Sprintf("insert into %s (%s) values (%s);", name, strings.Join(columns, ", "), strings.Join(placeholders, ", ")),
		Delete:   fmt.Sprintf("delete from %s where %s;", name, where),
		UpdateIf: fmt.Sprintf("update %s set {fields} where {condition};", name),
		DeleteIf: fmt.Sprintf("delete from %s where {condition};", name),
	}
	if len(sets) > 0 {
		st.Update = fmt.Sprintf("update %s set %s where %s;", name, strings.Join(sets, ", "), where)
	}
	return st
}

func assign(col string) string {
	return col + " = :" + col
}
