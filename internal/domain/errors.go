package domain

import "fmt"

// Sentinel errors for the domain layer.
var (
	// ErrWorkspaceInvalid means the configured root is not a Bazel
	// workspace. It is the only error that is fatal to the process.
	ErrWorkspaceInvalid = fmt.Errorf("not a bazel workspace")

	ErrExecutableNotFound = fmt.Errorf("bazel executable not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrCommandFailed      = fmt.Errorf("command failed")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrDiscoveryPartial   = fmt.Errorf("target discovery partially failed")
	ErrToolNotFound       = fmt.Errorf("tool not found")
	ErrDuplicate          = fmt.Errorf("duplicate")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Cache.Get")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
