package litedb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/LionelAuroux/LiteDb/internal/core"
)

// Begin opens a fresh cursor, closing the previous one, and makes sure a
// transaction is in progress.
func (s *Session) Begin(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.closeCursor(); err != nil {
		return err
	}
	if _, err := s.transaction(); err != nil {
		return err
	}
	s.cursor = true
	s.hooks.OnBegin(ctx, s.id)
	return nil
}

// End closes the cursor opened by Begin or Query and commits the
// transaction.
func (s *Session) End() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.cursor {
		return fmt.Errorf("%w: end without begin", ErrState)
	}
	if err := s.closeCursor(); err != nil {
		return err
	}
	s.hooks.OnEnd(context.Background(), s.id)
	return s.commit()
}

// Commit closes the cursor and commits the current transaction, if any.
func (s *Session) Commit() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.closeCursor(); err != nil {
		return err
	}
	return s.commit()
}

// Rollback closes the cursor and discards the current transaction, if any.
func (s *Session) Rollback() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.closeCursor(); err != nil {
		return err
	}
	if s.tx == nil {
		return nil
	}
	err := core.Engine("rollback", s.tx.Rollback())
	s.tx = nil
	s.hooks.OnRollback(context.Background(), s.id, err)
	return err
}

// Script runs a sequence of statements without parameters, such as a
// table's Reset statement.
func (s *Session) Script(ctx context.Context, script string) error {
	tx, err := s.prepare()
	if err != nil {
		return err
	}
	s.hooks.OnExec(ctx, s.id, script)
	if _, err := tx.ExecContext(ctx, script); err != nil {
		return core.Engine("script", err)
	}
	return nil
}

// Execute runs one statement with p bound to its placeholders. A Batch is
// executed record by record against a single prepared statement when the
// statement is an insert.
func (s *Session) Execute(ctx context.Context, query string, p Param) error {
	tx, err := s.prepare()
	if err != nil {
		return err
	}
	switch v := p.(type) {
	case nil:
		return s.exec(ctx, tx, query)
	case *Record:
		if v == nil {
			return fmt.Errorf("%w: nil record", ErrArgument)
		}
		return s.execNamed(ctx, tx, query, v.values)
	case Keyed:
		return s.execNamed(ctx, tx, query, map[string]any(v))
	case Args:
		return s.exec(ctx, tx, query, v...)
	case Batch:
		return s.execBatch(ctx, tx, query, v)
	}
	return fmt.Errorf("%w: unsupported parameter %T", ErrBind, p)
}

func (s *Session) execBatch(ctx context.Context, tx *sqlx.Tx, query string, recs Batch) error {
	if len(recs) == 0 {
		return fmt.Errorf("%w: empty batch", ErrBind)
	}
	for i, r := range recs {
		if r == nil {
			return fmt.Errorf("%w: nil record at batch index %d", ErrArgument, i)
		}
		if r.table != recs[0].table {
			return fmt.Errorf("%w: batch mixes %s and %s records", ErrArgument, recs[0].table.Name(), r.table.Name())
		}
	}
	if !strings.Contains(query, "insert ") {
		if len(recs) == 1 {
			return s.execNamed(ctx, tx, query, recs[0].values)
		}
		return fmt.Errorf("%w: batch of %d records needs an insert statement", ErrBind, len(recs))
	}

	bound, _, err := sqlx.Named(query, recs[0].values)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	s.hooks.OnExec(ctx, s.id, query)
	stmt, err := tx.PreparexContext(ctx, bound)
	if err != nil {
		return core.Engine("prepare", err)
	}
	defer stmt.Close()
	for _, r := range recs {
		_, args, err := sqlx.Named(query, r.values)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBind, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return core.Engine("exec", err)
		}
	}
	return nil
}

func (s *Session) execNamed(ctx context.Context, tx *sqlx.Tx, query string, values map[string]any) error {
	bound, args, err := sqlx.Named(query, values)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	s.hooks.OnExec(ctx, s.id, query)
	if _, err := tx.ExecContext(ctx, bound, args...); err != nil {
		return core.Engine("exec", err)
	}
	return nil
}

func (s *Session) exec(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	s.hooks.OnExec(ctx, s.id, query)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return core.Engine("exec", err)
	}
	return nil
}

// Query closes the current cursor and runs query with positional args. The
// results are read with Fetch, FetchAll or FetchOne.
func (s *Session) Query(ctx context.Context, query string, args ...any) error {
	tx, err := s.prepare()
	if err != nil {
		return err
	}
	if err := s.closeCursor(); err != nil {
		return err
	}
	s.hooks.OnExec(ctx, s.id, query)
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return core.Engine("query", err)
	}
	s.rows = rows
	s.cursor = true
	return nil
}

// prepare checks the session is open and returns the transaction
// statements run in.
func (s *Session) prepare() (*sqlx.Tx, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.transaction()
}

func (s *Session) transaction() (*sqlx.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	// The transaction outlives the call that starts it, so it must not be
	// bound to ctx: database/sql rolls back once its context is done.
	tx, err := s.conn.BeginTxx(context.Background(), s.txOpts)
	if err != nil {
		return nil, core.Engine("begin", err)
	}
	s.tx = tx
	return tx, nil
}

func (s *Session) commit() error {
	if s.tx == nil {
		return nil
	}
	err := core.Engine("commit", s.tx.Commit())
	s.tx = nil
	s.hooks.OnCommit(context.Background(), s.id, err)
	return err
}

func (s *Session) closeCursor() error {
	s.cursor = false
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return core.Engine("close cursor", err)
}
