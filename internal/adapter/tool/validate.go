package tool

import (
	"fmt"
	"regexp"
	"strings"

	"bazel-mcp/internal/domain"
)

// Input bounds. No shell string is ever constructed from these values;
// the character filter is defense in depth on top of argv-only spawning.
const (
	MaxTargets     = 100
	MaxFlags       = 50
	MaxRuntimeArgs = 100
	MaxLabelLen    = 500
	MaxFlagLen     = 500
	MaxExprLen     = 2000
	MaxArgLen      = 1000
)

// labelPattern matches bazel target labels: //pkg/path:name,
// @repo//pkg:name, relative :name, and the wildcard forms //... and
// pkg/... used as universe patterns.
var labelPattern = regexp.MustCompile(
	`^(@[\w\-.]+)?//[\w\-./]*(:[\w\-.+]+)?$` +
		`|^:[\w\-.+]+$` +
		`|^(//)?[\w\-./]*\.\.\.$`)

// flagPattern matches bazel command-line flags: -f or --name[=value]
// with a conservative value character set (paths, filters, globs).
var flagPattern = regexp.MustCompile(`^-{1,2}[\w\-]+(=[\w\-./,:@\[\]*+=]*)?$`)

// forbiddenChars would only ever be meaningful to a shell. They are
// rejected outright even though no shell is involved.
const forbiddenChars = ";|&$`\n\r><(){}"

// exprForbiddenChars is the subset rejected in query expressions, which
// legitimately contain parentheses.
const exprForbiddenChars = ";|&$`\n\r"

// queryIndicators: a query expression must look like one.
var queryIndicators = []string{"//", ":", "deps(", "rdeps(", "kind(", "attr(", "filter(", "tests(", "somepath("}

// ValidationError marks input rejected before any subprocess spawn.
func ValidationError(field, detail string) error {
	return domain.NewDomainError("validate", domain.ErrInvalidInput,
		fmt.Sprintf("%s: %s", field, detail))
}

// RequireField returns an error if the string value is empty.
func RequireField(name, value string) error {
	if value == "" {
		return ValidationError(name, "is required")
	}
	return nil
}

// ValidateAll returns the first non-nil error from the given list.
func ValidateAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateTargetLabel checks a single bazel target label.
func ValidateTargetLabel(label string) error {
	if label == "" {
		return ValidationError("target", "must be a non-empty label")
	}
	if strings.ContainsAny(label, forbiddenChars) {
		return ValidationError("target", fmt.Sprintf("label %q contains a forbidden character", label))
	}
	if len(label) > MaxLabelLen {
		return ValidationError("target", fmt.Sprintf("label too long (max %d characters)", MaxLabelLen))
	}
	if !labelPattern.MatchString(label) {
		return ValidationError("target",
			fmt.Sprintf("invalid label %q (want //pkg:name, @repo//pkg:name, :name, or a ... pattern)", label))
	}
	return nil
}

// ValidateTargets checks a target label list and requires at least one.
func ValidateTargets(targets []string) error {
	if len(targets) == 0 {
		return ValidationError("targets", "at least one target is required")
	}
	if len(targets) > MaxTargets {
		return ValidationError("targets", fmt.Sprintf("too many targets (max %d)", MaxTargets))
	}
	for _, t := range targets {
		if err := ValidateTargetLabel(t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFlags checks a bazel flag list. A nil or empty list is valid.
func ValidateFlags(flags []string) error {
	if len(flags) > MaxFlags {
		return ValidationError("flags", fmt.Sprintf("too many flags (max %d)", MaxFlags))
	}
	for _, f := range flags {
		if f == "" {
			return ValidationError("flags", "flag must be non-empty")
		}
		if strings.ContainsAny(f, forbiddenChars) {
			return ValidationError("flags", fmt.Sprintf("flag %q contains a forbidden character", f))
		}
		if len(f) > MaxFlagLen {
			return ValidationError("flags", fmt.Sprintf("flag too long (max %d characters)", MaxFlagLen))
		}
		if !flagPattern.MatchString(f) {
			return ValidationError("flags",
				fmt.Sprintf("invalid flag %q (must start with - or --)", f))
		}
	}
	return nil
}

// ValidateQueryExpr checks a bazel query expression.
func ValidateQueryExpr(expr string) error {
	if expr == "" {
		return ValidationError("expr", "is required")
	}
	if strings.ContainsAny(expr, exprForbiddenChars) {
		return ValidationError("expr", "contains a forbidden character")
	}
	if len(expr) > MaxExprLen {
		return ValidationError("expr", fmt.Sprintf("too long (max %d characters)", MaxExprLen))
	}
	for _, ind := range queryIndicators {
		if strings.Contains(expr, ind) {
			return nil
		}
	}
	return ValidationError("expr",
		"does not look like a bazel query (expected '//', ':', or a query function)")
}

// ValidateRuntimeArgs checks arguments passed to a launched binary.
// They cross the separator untouched by bazel, so only the shell
// metacharacter and size checks apply.
func ValidateRuntimeArgs(args []string) error {
	if len(args) > MaxRuntimeArgs {
		return ValidationError("args", fmt.Sprintf("too many arguments (max %d)", MaxRuntimeArgs))
	}
	for _, a := range args {
		if strings.ContainsAny(a, exprForbiddenChars) {
			return ValidationError("args", fmt.Sprintf("argument %q contains a forbidden character", a))
		}
		if len(a) > MaxArgLen {
			return ValidationError("args", fmt.Sprintf("argument too long (max %d characters)", MaxArgLen))
		}
	}
	return nil
}
