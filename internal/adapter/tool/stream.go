package tool

import (
	"log/slog"
	"time"

	"bazel-mcp/internal/domain"
)

// commandReport is the structured terminal result returned to the
// caller for streaming operations.
type commandReport struct {
	InvocationID string `json:"invocation_id"`
	Success      bool   `json:"success"`
	ExitCode     *int   `json:"exit_code,omitempty"`
	Elapsed      string `json:"elapsed"`
	TimedOut     bool   `json:"timed_out,omitempty"`
	Error        string `json:"error,omitempty"`
	Output       string `json:"output,omitempty"`
}

// drainStream consumes an invocation's chunk stream, forwarding each
// line to the log as it arrives so a follower sees the live terminal
// view, and returns the terminal result.
func drainStream(logger *slog.Logger, op string, chunks <-chan domain.OutputChunk, results <-chan domain.CommandResult) domain.CommandResult {
	for c := range chunks {
		logger.Info(op, "stream", string(c.Stream), "line", c.Text)
	}
	return <-results
}

// reportFrom shapes a CommandResult for the caller.
func reportFrom(res domain.CommandResult) commandReport {
	rep := commandReport{
		InvocationID: res.InvocationID,
		Success:      res.Success,
		ExitCode:     res.ExitCode,
		Elapsed:      res.Elapsed.Round(time.Millisecond).String(),
		TimedOut:     res.TimedOut,
		Output:       res.Tail,
	}
	if res.Err != nil {
		rep.Error = res.Err.Error()
	}
	return rep
}

// commandToolResult renders a report as a ToolResult; a failed command
// is an error result carrying the captured output, never a Go error.
func commandToolResult(rep commandReport) (*domain.ToolResult, error) {
	result, err := JSONResult(rep)
	if err != nil {
		return nil, err
	}
	result.IsError = !rep.Success
	return result, nil
}
