// Package bazel owns the interaction with the bazel executable: locating
// it, validating the workspace it runs in, and streaming its output.
package bazel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bazel-mcp/internal/domain"
)

// ValidateWorkspace confirms root is a directory containing at least one
// of the marker files, and returns its absolute path. Every subprocess
// the server spawns uses this path as its working directory, so failure
// here is fatal to startup.
func ValidateWorkspace(root string, markers []string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", domain.WrapOp("ValidateWorkspace", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", domain.NewDomainError("ValidateWorkspace", domain.ErrWorkspaceInvalid,
			fmt.Sprintf("%s is not a directory", abs))
	}

	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(abs, marker)); err == nil {
			return abs, nil
		}
	}

	return "", domain.NewDomainError("ValidateWorkspace", domain.ErrWorkspaceInvalid,
		fmt.Sprintf("no marker file (%s) in %s", strings.Join(markers, ", "), abs))
}
