// Package toolstest provides a scripted tool runner for tests.
package toolstest

import (
	"context"
	"sync"
)

// Runner records every command and answers with Handler, or with empty output when Handler
// is nil.
type Runner struct {
	Handler func(argv []string) (string, error)

	mu    sync.Mutex
	calls [][]string
}

func (r *Runner) Run(_ context.Context, argv []string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), argv...))
	r.mu.Unlock()

	if r.Handler == nil {
		return "", nil
	}
	return r.Handler(argv)
}

// Calls returns the recorded commands in order.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([][]string(nil), r.calls...)
}

// Flag returns the value following name in argv.
func Flag(argv []string, name string) (string, bool) {
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == name {
			return argv[i+1], true
		}
	}
	return "", false
}
