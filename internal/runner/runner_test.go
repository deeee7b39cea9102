package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExec_RunSuccess(t *testing.T) {
	var out, echo bytes.Buffer
	r := New(Config{Stdout: &out, Echo: &echo})

	if err := r.Run(context.Background(), "echo", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Errorf("expected stdout 'hello', got %q", got)
	}
	if got := echo.String(); got != "$ echo hello\n" {
		t.Errorf("expected echoed command line, got %q", got)
	}
}

func TestExec_RunExitCode(t *testing.T) {
	r := New(Config{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	err := r.Run(context.Background(), "sh", "-c", "exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.Code)
	}

	code, ok := ExitCode(err)
	if !ok || code != 3 {
		t.Errorf("ExitCode() = %d, %v; want 3, true", code, ok)
	}
}

func TestExec_RunMissingProgram(t *testing.T) {
	r := New(Config{})

	err := r.Run(context.Background(), "sitetasks-no-such-program")
	if err == nil {
		t.Fatal("expected error for missing program")
	}
	if _, ok := ExitCode(err); ok {
		t.Error("missing program should not carry an exit code")
	}
}

func TestExec_RunEmpty(t *testing.T) {
	r := New(Config{})
	if err := r.Run(context.Background(), ""); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("expected ErrEmptyCommand, got %v", err)
	}
}

func TestExec_RunCanceled(t *testing.T) {
	r := New(Config{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, "sleep", "5")
	if err == nil {
		t.Fatal("expected error for canceled command")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("command was not stopped by context cancellation")
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"pelican", []string{"-s", "pelicanconf.py"}, "pelican -s pelicanconf.py"},
		{"rsync", []string{"-e", "ssh -p 22"}, "rsync -e 'ssh -p 22'"},
		{"echo", []string{""}, "echo ''"},
		{"echo", []string{"it's"}, `echo 'it'\''s'`},
	}

	for _, tt := range tests {
		if got := CommandLine(tt.name, tt.args...); got != tt.want {
			t.Errorf("CommandLine(%q, %q) = %q, want %q", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestRecorder(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{Fail: map[string]error{"rsync": boom}}

	if err := r.Run(context.Background(), "pelican", "-s", "publishconf.py"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Run(context.Background(), "rsync"); !errors.Is(err, boom) {
		t.Errorf("expected configured failure, got %v", err)
	}

	calls := r.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Line() != "pelican -s publishconf.py" {
		t.Errorf("unexpected first call %q", calls[0].Line())
	}
}
