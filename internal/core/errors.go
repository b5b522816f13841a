package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema reports a malformed table declaration.
	ErrSchema = errors.New("schema error")
	// ErrArgument reports a malformed call shape.
	ErrArgument = errors.New("argument error")
	// ErrState reports an operation attempted in the wrong session or cursor state.
	ErrState = errors.New("state error")
	// ErrBind reports parameters that do not fit the statement.
	ErrBind = errors.New("bind error")
	// ErrEngine wraps any failure returned by the database engine.
	ErrEngine = errors.New("engine error")
)

// Engine wraps err as an engine failure of op. The original error stays in
// the chain so driver errors can still be matched with errors.As.
func Engine(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrEngine, op, err)
}
