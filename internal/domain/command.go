package domain

import "time"

// Stream identifies which pipe an output chunk arrived on.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// OutputChunk is one line of subprocess output, tagged with its stream
// of origin. Chunks are delivered in arrival order across both streams,
// preserving the interleaving a terminal would show.
type OutputChunk struct {
	Stream Stream `json:"stream"`
	Text   string `json:"text"`
}

// CommandResult is the terminal value of a subprocess invocation.
// ExitCode is non-nil if and only if the process was actually spawned.
type CommandResult struct {
	InvocationID string        `json:"invocation_id"`
	Success      bool          `json:"success"`
	ExitCode     *int          `json:"exit_code,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
	TimedOut     bool          `json:"timed_out,omitempty"`
	Tail         string        `json:"tail,omitempty"` // bounded capture of trailing output
	Err          error         `json:"-"`              // spawn or wait error, nil on clean exit
}
