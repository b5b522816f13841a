package litedb

import (
	"fmt"
	"iter"

	"github.com/LionelAuroux/LiteDb/internal/core"
)

// Row holds the column values of one result row, in select order.
type Row []any

// Fetch returns the remaining rows of the last query as a lazy sequence.
// The sequence cannot be restarted; it ends silently once the result set
// is exhausted, or after yielding an error.
func (s *Session) Fetch() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := s.FetchOne()
			if err != nil {
				yield(nil, err)
				return
			}
			if row == nil || !yield(row, nil) {
				return
			}
		}
	}
}

// FetchAll drains the remaining rows of the last query.
func (s *Session) FetchAll() ([]Row, error) {
	var rows []Row
	for row, err := range s.Fetch() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchOne returns the next row of the last query, or nil once the result
// set is exhausted.
func (s *Session) FetchOne() (Row, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if s.rows == nil {
		return nil, fmt.Errorf("%w: no query in progress", ErrState)
	}
	if !s.rows.Next() {
		return nil, core.Engine("fetch", s.rows.Err())
	}
	vals, err := s.rows.SliceScan()
	if err != nil {
		return nil, core.Engine("scan", err)
	}
	return Row(vals), nil
}

// Columns returns the column names of the last query.
func (s *Session) Columns() ([]string, error) {
	if s.rows == nil {
		return nil, fmt.Errorf("%w: no query in progress", ErrState)
	}
	cols, err := s.rows.Columns()
	return cols, core.Engine("columns", err)
}
