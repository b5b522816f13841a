package litedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LionelAuroux/LiteDb/internal/core"
	"github.com/LionelAuroux/LiteDb/internal/plugin"
	"github.com/LionelAuroux/LiteDb/pkg/config"
)

// Hooks receives session state transitions.
type Hooks = plugin.Hooks

// LogHooks returns Hooks that write every transition to l (the standard
// logger when l is nil).
func LogHooks(l *log.Logger) Hooks {
	return plugin.NewLogger(l)
}

// Session wraps one connection of the embedded engine, at most one open
// transaction and at most one cursor. It runs in explicit transaction
// mode: nothing is committed until End or Commit. A Session is not safe
// for concurrent use.
type Session struct {
	id     string
	dsn    string
	db     *sqlx.DB
	conn   *sqlx.Conn
	tx     *sqlx.Tx
	rows   *sqlx.Rows
	cursor bool
	hooks  Hooks
	txOpts *sql.TxOptions
}

// Option configures a Session.
type Option func(s *Session)

// WithDB makes the session use db instead of connecting to its DSN. The
// session takes ownership of db and closes it in Close.
func WithDB(db *sqlx.DB) Option {
	return func(s *Session) {
		s.db = db
	}
}

// WithHooks attaches an observability hook.
func WithHooks(h Hooks) Option {
	return func(s *Session) {
		if h != nil {
			s.hooks = h
		}
	}
}

// WithTxOptions sets the options used for every transaction.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(s *Session) {
		s.txOpts = opts
	}
}

// NewSession returns a closed session for the database at dsn.
func NewSession(dsn string, options ...Option) *Session {
	s := &Session{
		id:    uuid.NewString(),
		dsn:   dsn,
		hooks: plugin.Nop{},
	}
	for _, op := range options {
		op(s)
	}
	return s
}

// Connect returns a closed session configured from cfg.
func Connect(cfg *config.Config, options ...Option) *Session {
	if cfg.Trace {
		options = append([]Option{WithHooks(LogHooks(nil))}, options...)
	}
	return NewSession(cfg.DSN(), options...)
}

// With opens a session, runs fn and closes the session whatever happens.
// The error of fn takes precedence over the error of Close.
func With(ctx context.Context, dsn string, fn func(s *Session) error, options ...Option) (err error) {
	s := NewSession(dsn, options...)
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// ID identifies the session in hook callbacks.
func (s *Session) ID() string {
	return s.id
}

// IsOpen reports whether the connection is open.
func (s *Session) IsOpen() bool {
	return s.conn != nil
}

// Open establishes the connection.
func (s *Session) Open(ctx context.Context) error {
	if s.conn != nil {
		return fmt.Errorf("%w: session %s already open", ErrState, s.id)
	}
	if s.db == nil {
		db, err := core.Connect(s.dsn)
		if err != nil {
			return err
		}
		s.db = db
	}
	conn, err := s.db.Connx(ctx)
	if err != nil {
		cerr := s.db.Close()
		s.db = nil
		return errors.Join(core.Engine("connect", err), cerr)
	}
	s.conn = conn
	s.hooks.OnOpen(ctx, s.id)
	return nil
}

// Close closes the cursor, discards any uncommitted work and releases the
// connection. Closing a closed session does nothing.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	ctx := context.Background()
	errs := []error{s.closeCursor()}
	if s.tx != nil {
		err := core.Engine("rollback", s.tx.Rollback())
		s.tx = nil
		s.hooks.OnRollback(ctx, s.id, err)
		errs = append(errs, err)
	}
	errs = append(errs, core.Engine("close", s.conn.Close()))
	s.conn = nil
	if s.db != nil {
		errs = append(errs, core.Close(s.db))
		s.db = nil
	}
	err := errors.Join(errs...)
	s.hooks.OnClose(ctx, s.id, err)
	return err
}

func (s *Session) checkOpen() error {
	if s.conn == nil {
		return fmt.Errorf("%w: session %s is closed", ErrState, s.id)
	}
	return nil
}
