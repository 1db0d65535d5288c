package bazel

import "os/exec"

// DefaultExecutable is the fallback bazel command name, resolved via the
// process search path at spawn time.
const DefaultExecutable = "bazel"

// Locate resolves the bazel executable to invoke.
//
// Resolution order: an explicit override, then bazelisk (when preferred
// and installed), then the bare default name. Locate never fails: if
// nothing resolves, the default name is returned unchanged and the
// first spawn surfaces the "not found" failure. Process creation is the
// single source of truth for whether an executable exists.
func Locate(override string, preferBazelisk bool) string {
	if override != "" {
		return override
	}
	if preferBazelisk {
		if path, err := exec.LookPath("bazelisk"); err == nil {
			return path
		}
	}
	return DefaultExecutable
}
