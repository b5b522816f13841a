package litedb

// Param is the binding passed to Session.Execute. It is one of *Record,
// Keyed, Batch or Args; a nil Param binds nothing.
type Param interface {
	param()
}

// Keyed binds :name placeholders from a mapping.
type Keyed map[string]any

// Batch binds each record in turn against one prepared insert statement.
type Batch []*Record

// Args binds positional placeholders.
type Args []any

func (*Record) param() {}
func (Keyed) param() {}
func (Batch) param() {}
func (Args) param() {}
