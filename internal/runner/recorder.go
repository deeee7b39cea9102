package runner

import (
	"context"
	"sync"
)

// Call is one invocation seen by a Recorder.
type Call struct {
	Name string
	Args []string
}

// Line returns the call as a display command line.
func (c Call) Line() string {
	return CommandLine(c.Name, c.Args...)
}

// Recorder is a Runner that records invocations instead of running them.
// Fail maps a program name to the error its invocation returns.
type Recorder struct {
	Fail map[string]error

	mu    sync.Mutex
	calls []Call
}

// Run records the call and returns the configured failure, if any.
func (r *Recorder) Run(_ context.Context, name string, args ...string) error {
	if name == "" {
		return ErrEmptyCommand
	}
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	r.mu.Unlock()
	return r.Fail[name]
}

// Calls returns a copy of the recorded invocations in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
