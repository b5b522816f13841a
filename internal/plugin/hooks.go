// File: internal/plugin/hooks.go
package plugin

import (
	"context"
	"log"
)

// Hooks defines lifecycle callbacks for session state transitions.
// Each callback receives the session identifier.
type Hooks interface {
	OnOpen(ctx context.Context, session string)
	OnBegin(ctx context.Context, session string)
	OnExec(ctx context.Context, session string, query string)
	OnEnd(ctx context.Context, session string)
	OnCommit(ctx context.Context, session string, err error)
	OnRollback(ctx context.Context, session string, err error)
	OnClose(ctx context.Context, session string, err error)
}

// Nop ignores every transition.
type Nop struct{}

func (Nop) OnOpen(context.Context, string) {}
func (Nop) OnBegin(context.Context, string) {}
func (Nop) OnExec(context.Context, string, string) {}
func (Nop) OnEnd(context.Context, string) {}
func (Nop) OnCommit(context.Context, string, error) {}
func (Nop) OnRollback(context.Context, string, error) {}
func (Nop) OnClose(context.Context, string, error) {}

// Logger writes one line per transition.
type Logger struct {
	L *log.Logger
}

// NewLogger returns Hooks writing to l, or to the standard logger when l is nil.
func NewLogger(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{L: l}
}

func (lg *Logger) OnOpen(_ context.Context, session string) {
	lg.L.Printf("session %s: open", session)
}

func (lg *Logger) OnBegin(_ context.Context, session string) {
	lg.L.Printf("session %s: begin", session)
}

func (lg *Logger) OnExec(_ context.Context, session string, query string) {
	lg.L.Printf("session %s: exec %q", session, query)
}

func (lg *Logger) OnEnd(_ context.Context, session string) {
	lg.L.Printf("session %s: end", session)
}

func (lg *Logger) OnCommit(_ context.Context, session string, err error) {
	lg.printResult(session, "commit", err)
}

func (lg *Logger) OnRollback(_ context.Context, session string, err error) {
	lg.printResult(session, "rollback", err)
}

func (lg *Logger) OnClose(_ context.Context, session string, err error) {
	lg.printResult(session, "close", err)
}

func (lg *Logger) printResult(session, what string, err error) {
	if err != nil {
		lg.L.Printf("session %s: %s failed: %v", session, what, err)
		return
	}
	lg.L.Printf("session %s: %s", session, what)
}
