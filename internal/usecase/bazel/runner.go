package bazel

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"bazel-mcp/internal/domain"
)

// termGracePeriod is how long a cancelled child gets to exit after
// SIGTERM before it is killed.
const termGracePeriod = 5 * time.Second

// scanBufferSize bounds a single output line; bazel can emit very long
// action lines.
const scanBufferSize = 1024 * 1024

// RunnerConfig holds configuration for the Runner.
type RunnerConfig struct {
	WorkDir   string        // working directory for every spawn (validated workspace root)
	Timeout   time.Duration // per-invocation bound; zero = unbounded
	TailBytes int           // bounded capture of trailing output (default: 64KiB)
}

// Runner spawns subprocesses and streams their output. Arguments are
// always passed as an explicit argv list to process creation; no shell
// interpreter is ever involved.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner creates a Runner rooted at the validated workspace.
func NewRunner(cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.TailBytes <= 0 {
		cfg.TailBytes = 64 * 1024
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Stream spawns executable with argv and returns a channel of output
// chunks in arrival order, followed by exactly one terminal result on
// the second channel. Both channels are closed when the invocation is
// over.
//
// Cancelling ctx sends SIGTERM to the child; if it has not exited
// within the grace period it is killed. No child survives an abandoned
// call.
func (r *Runner) Stream(ctx context.Context, executable string, argv []string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	chunks := make(chan domain.OutputChunk, 64)
	results := make(chan domain.CommandResult, 1)

	id := r.newID()
	runCtx := ctx
	var cancel context.CancelFunc = func() {}
	if r.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	}

	cmd := exec.CommandContext(runCtx, executable, argv...)
	cmd.Dir = r.cfg.WorkDir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = termGracePeriod

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return r.failBeforeSpawn(id, cancel, chunks, results, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return r.failBeforeSpawn(id, cancel, chunks, results, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = domain.NewDomainError("Runner.Stream", domain.ErrExecutableNotFound, executable)
		}
		return r.failBeforeSpawn(id, cancel, chunks, results, err)
	}

	r.logger.Debug("process started", "invocation_id", id, "executable", executable, "argv", argv)

	tail := newRingBuffer(r.cfg.TailBytes)

	var wg sync.WaitGroup
	wg.Add(2)
	go r.forward(runCtx, &wg, stdout, domain.StreamStdout, chunks, tail)
	go r.forward(runCtx, &wg, stderr, domain.StreamStderr, chunks, tail)

	go func() {
		defer cancel()
		wg.Wait()
		waitErr := cmd.Wait()
		elapsed := time.Since(start)

		res := domain.CommandResult{
			InvocationID: id,
			Elapsed:      elapsed,
			Tail:         tail.String(),
		}
		// The process did spawn, so the exit code is always populated
		// here; -1 means it died on a signal.
		code := cmd.ProcessState.ExitCode()
		res.ExitCode = &code
		switch {
		case waitErr == nil:
			res.Success = true
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			res.TimedOut = true
			res.Err = domain.NewDomainError("Runner.Stream", domain.ErrTimeout, executable)
		default:
			res.Err = domain.WrapOp("Runner.Stream", waitErr)
		}

		r.logger.Debug("process finished",
			"invocation_id", id, "success", res.Success, "elapsed", elapsed)

		results <- res
		close(results)
		close(chunks)
	}()

	return chunks, results
}

// Capture runs executable to completion and returns its full standard
// output alongside the terminal result. Used for discovery queries,
// where the output is parsed rather than streamed.
func (r *Runner) Capture(ctx context.Context, executable string, argv []string) (string, domain.CommandResult) {
	chunks, results := r.Stream(ctx, executable, argv)

	var out []byte
	for c := range chunks {
		if c.Stream == domain.StreamStdout {
			out = append(out, c.Text...)
			out = append(out, '\n')
		}
	}
	return string(out), <-results
}

// forward copies one pipe to the chunk channel line by line. Once the
// context is cancelled, remaining lines are drained and dropped so the
// child never blocks on a full pipe.
func (r *Runner) forward(ctx context.Context, wg *sync.WaitGroup, pipe io.Reader, stream domain.Stream, chunks chan<- domain.OutputChunk, tail *ringBuffer) {
	defer wg.Done()

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	for scanner.Scan() {
		line := scanner.Text()
		tail.Write([]byte(line + "\n"))
		select {
		case chunks <- domain.OutputChunk{Stream: stream, Text: line}:
		case <-ctx.Done():
		}
	}
}

func (r *Runner) failBeforeSpawn(id string, cancel context.CancelFunc, chunks chan domain.OutputChunk, results chan domain.CommandResult, err error) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	cancel()
	// ExitCode stays nil: the process never started.
	results <- domain.CommandResult{
		InvocationID: id,
		Err:          err,
	}
	close(results)
	close(chunks)
	return chunks, results
}

func (r *Runner) newID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
