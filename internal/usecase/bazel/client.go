package bazel

import (
	"context"
	"log/slog"
	"strings"

	"bazel-mcp/internal/domain"
)

// RunArgSeparator is the literal token after which bazel stops parsing
// flags and passes the rest to the launched binary.
const RunArgSeparator = "--"

// Client composes bazel command lines and executes them through the
// Runner. It is the single place argv shapes are built:
// [verb, ...flags, ...targets] for build/test, and
// [run, target, ...flags, --, ...args] for run.
type Client struct {
	executable   string
	defaultFlags []string
	runner       *Runner
	logger       *slog.Logger
}

// NewClient creates a bazel client. defaultFlags are applied to
// build/test/run invocations when the caller passes no flags.
func NewClient(executable string, defaultFlags []string, runner *Runner, logger *slog.Logger) *Client {
	return &Client{
		executable:   executable,
		defaultFlags: defaultFlags,
		runner:       runner,
		logger:       logger,
	}
}

// Executable returns the resolved bazel executable.
func (c *Client) Executable() string { return c.executable }

// QueryLabels runs a bazel query and returns the matching target
// labels, one per non-empty output line. Query results are never
// cached here; semantics can depend on graph state at call time.
func (c *Client) QueryLabels(ctx context.Context, expr string, flags []string) ([]string, error) {
	argv := append([]string{"query", expr}, flags...)
	out, res := c.runner.Capture(ctx, c.executable, argv)
	if err := resultErr("Client.QueryLabels", res); err != nil {
		return nil, err
	}

	var labels []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			labels = append(labels, line)
		}
	}
	return labels, nil
}

// StreamBuild starts `bazel build` for the given targets.
func (c *Client) StreamBuild(ctx context.Context, targets, flags []string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	return c.streamVerb(ctx, "build", targets, flags)
}

// StreamTest starts `bazel test` for the given targets.
func (c *Client) StreamTest(ctx context.Context, targets, flags []string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	return c.streamVerb(ctx, "test", targets, flags)
}

// StreamRun starts `bazel run` for a single binary target. Runtime args
// go after the separator token so the binary, not bazel, receives them.
func (c *Client) StreamRun(ctx context.Context, target string, flags, args []string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	argv := append([]string{"run", target}, c.flagsOrDefault(flags)...)
	argv = append(argv, RunArgSeparator)
	argv = append(argv, args...)
	return c.runner.Stream(ctx, c.executable, argv)
}

// StreamScript executes a setup script directly (no shell wrapper).
func (c *Client) StreamScript(ctx context.Context, path string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	return c.runner.Stream(ctx, path, nil)
}

func (c *Client) streamVerb(ctx context.Context, verb string, targets, flags []string) (<-chan domain.OutputChunk, <-chan domain.CommandResult) {
	argv := append([]string{verb}, c.flagsOrDefault(flags)...)
	argv = append(argv, targets...)
	return c.runner.Stream(ctx, c.executable, argv)
}

func (c *Client) flagsOrDefault(flags []string) []string {
	if len(flags) > 0 {
		return flags
	}
	return c.defaultFlags
}

// resultErr converts a failed CommandResult into a domain error for
// callers that do not stream.
func resultErr(op string, res domain.CommandResult) error {
	if res.Success {
		return nil
	}
	if res.Err != nil && res.ExitCode == nil {
		// Never spawned: surface the spawn failure as-is.
		return res.Err
	}
	detail := strings.TrimSpace(res.Tail)
	if res.TimedOut {
		return domain.NewDomainError(op, domain.ErrTimeout, detail)
	}
	return domain.NewDomainError(op, domain.ErrCommandFailed, detail)
}
