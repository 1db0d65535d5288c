package bazel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"bazel-mcp/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, cfg RunnerConfig) *Runner {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	return NewRunner(cfg, newTestLogger())
}

func shCommand() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "sh"
}

func shArgs(script string) []string {
	if runtime.GOOS == "windows" {
		return []string{"/c", script}
	}
	return []string{"-c", script}
}

func collect(chunks <-chan domain.OutputChunk, results <-chan domain.CommandResult) ([]domain.OutputChunk, domain.CommandResult) {
	var out []domain.OutputChunk
	for c := range chunks {
		out = append(out, c)
	}
	return out, <-results
}

func TestStreamSuccess(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{})

	chunks, results := r.Stream(context.Background(), shCommand(), shArgs("echo hello"))
	out, res := collect(chunks, results)

	if !res.Success {
		t.Fatalf("Success = false, err = %v", res.Err)
	}
	if res.ExitCode == nil || *res.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", res.ExitCode)
	}
	if res.InvocationID == "" {
		t.Error("expected non-empty invocation ID")
	}
	if len(out) != 1 || out[0].Text != "hello" || out[0].Stream != domain.StreamStdout {
		t.Errorf("chunks = %+v, want one stdout line %q", out, "hello")
	}
}

func TestStreamNonzeroExit(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{})

	chunks, results := r.Stream(context.Background(), shCommand(), shArgs("echo oops >&2; exit 3"))
	out, res := collect(chunks, results)

	if res.Success {
		t.Fatal("Success = true for exit 3")
	}
	if res.ExitCode == nil || *res.ExitCode != 3 {
		t.Errorf("ExitCode = %v, want 3", res.ExitCode)
	}
	if res.Err == nil {
		t.Error("expected terminal error for nonzero exit")
	}
	if len(out) != 1 || out[0].Stream != domain.StreamStderr || out[0].Text != "oops" {
		t.Errorf("chunks = %+v, want one stderr line %q", out, "oops")
	}
	if !strings.Contains(res.Tail, "oops") {
		t.Errorf("Tail = %q, want it to contain stderr output", res.Tail)
	}
}

func TestStreamInterleavesInArrivalOrder(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{})

	chunks, results := r.Stream(context.Background(), shCommand(),
		shArgs("echo one; echo two; echo three"))
	out, res := collect(chunks, results)

	if !res.Success {
		t.Fatalf("Success = false, err = %v", res.Err)
	}
	want := []string{"one", "two", "three"}
	if len(out) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Text != w {
			t.Errorf("chunk[%d] = %q, want %q", i, out[i].Text, w)
		}
	}
}

func TestStreamExecutableNotFound(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{})

	chunks, results := r.Stream(context.Background(), "definitely-not-a-real-binary-xyz", nil)
	_, res := collect(chunks, results)

	if res.Success {
		t.Fatal("Success = true for missing executable")
	}
	if res.ExitCode != nil {
		t.Errorf("ExitCode = %v, want nil when the process never spawned", *res.ExitCode)
	}
	if !errors.Is(res.Err, domain.ErrExecutableNotFound) {
		t.Errorf("Err = %v, want ErrExecutableNotFound", res.Err)
	}
}

func TestStreamTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal semantics differ on windows")
	}
	r := newTestRunner(t, RunnerConfig{Timeout: 100 * time.Millisecond})

	start := time.Now()
	chunks, results := r.Stream(context.Background(), "sleep", []string{"30"})
	_, res := collect(chunks, results)

	if res.Success {
		t.Fatal("Success = true for timed-out process")
	}
	if !res.TimedOut {
		t.Error("TimedOut = false")
	}
	if !errors.Is(res.Err, domain.ErrTimeout) {
		t.Errorf("Err = %v, want ErrTimeout", res.Err)
	}
	if res.ExitCode == nil {
		t.Error("ExitCode = nil, want populated for a spawned process")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("took %v, child was not reaped promptly", elapsed)
	}
}

func TestStreamCancellationKillsChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal semantics differ on windows")
	}
	r := newTestRunner(t, RunnerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	chunks, results := r.Stream(ctx, "sleep", []string{"30"})

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		collect(chunks, results)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("invocation did not terminate after cancellation")
	}
}

func TestStreamTailIsBounded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	r := newTestRunner(t, RunnerConfig{TailBytes: 64})

	chunks, results := r.Stream(context.Background(), shCommand(),
		shArgs("i=0; while [ $i -lt 100 ]; do echo line$i; i=$((i+1)); done"))
	_, res := collect(chunks, results)

	if !res.Success {
		t.Fatalf("Success = false, err = %v", res.Err)
	}
	if len(res.Tail) > 64 {
		t.Errorf("Tail is %d bytes, want at most 64", len(res.Tail))
	}
	if !strings.Contains(res.Tail, "line99") {
		t.Errorf("Tail = %q, want the most recent output kept", res.Tail)
	}
}

func TestCapture(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{})

	out, res := r.Capture(context.Background(), shCommand(),
		shArgs("echo first; echo second; echo to-stderr >&2"))

	if !res.Success {
		t.Fatalf("Success = false, err = %v", res.Err)
	}
	if out != "first\nsecond\n" {
		t.Errorf("out = %q, want stdout only in order", out)
	}
}

func TestStreamWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires pwd")
	}
	dir := t.TempDir()
	r := newTestRunner(t, RunnerConfig{WorkDir: dir})

	out, res := r.Capture(context.Background(), "pwd", nil)
	if !res.Success {
		t.Fatalf("Success = false, err = %v", res.Err)
	}
	if got := strings.TrimSpace(out); !strings.HasSuffix(got, dir) && got != dir {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}
