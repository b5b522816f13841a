package catalog

import (
	"context"
	"fmt"
	"strings"

	litedb "github.com/LionelAuroux/LiteDb"
)

// Manager creates, resets and inspects a set of declared tables. Tables
// are handled in registration order.
type Manager struct {
	tables []*litedb.Table
}

// NewManager registers tables. Table names must be unique.
func NewManager(tables ...*litedb.Table) (*Manager, error) {
	m := &Manager{}
	seen := map[string]bool{}
	for _, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("%w: nil table", litedb.ErrArgument)
		}
		if seen[t.Name()] {
			return nil, fmt.Errorf("%w: table %s registered twice", litedb.ErrArgument, t.Name())
		}
		seen[t.Name()] = true
		m.tables = append(m.tables, t)
	}
	return m, nil
}

// Tables returns the registered tables.
func (m *Manager) Tables() []*litedb.Table {
	return append([]*litedb.Table(nil), m.tables...)
}

// Up creates every missing table.
func (m *Manager) Up(ctx context.Context, s *litedb.Session) error {
	for _, t := range m.tables {
		if err := s.Script(ctx, t.SQL().Create); err != nil {
			return fmt.Errorf("create %s: %w", t.Name(), err)
		}
	}
	return nil
}

// Reset drops and recreates every table, discarding their rows.
func (m *Manager) Reset(ctx context.Context, s *litedb.Session) error {
	for _, t := range m.tables {
		if err := s.Script(ctx, t.SQL().Reset); err != nil {
			return fmt.Errorf("reset %s: %w", t.Name(), err)
		}
	}
	return nil
}

// Status reports, one line per table, whether it exists in the database.
func (m *Manager) Status(ctx context.Context, s *litedb.Session) (string, error) {
	lines := make([]string, 0, len(m.tables))
	for _, t := range m.tables {
		present, err := exists(ctx, s, t.Name())
		if err != nil {
			return "", fmt.Errorf("inspect %s: %w", t.Name(), err)
		}
		state := "missing"
		if present {
			state = "present"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Name(), state))
	}
	return strings.Join(lines, "\n"), nil
}

func exists(ctx context.Context, s *litedb.Session, table string) (bool, error) {
	if err := s.Query(ctx, `select name from sqlite_master where type = 'table' and name = ?`, table); err != nil {
		return false, err
	}
	row, err := s.FetchOne()
	if err != nil {
		return false, err
	}
	return row != nil, nil
}
