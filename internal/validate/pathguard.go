package validate

import (
	"os"
	"path/filepath"
	"strings"
)

// SymlinkPolicy controls how PathGuard treats symbolic links. It is a
// runtime value threaded through the pipeline, not a build-time switch, so
// both branches are exercisable in the same binary.
type SymlinkPolicy int

const (
	// PolicyRejectSymlinks fails any symlink outright. Production default.
	PolicyRejectSymlinks SymlinkPolicy = iota

	// PolicyResolveSymlinks resolves one level at a time and fully
	// re-validates each resolved target, with a bounded chain depth.
	// Development-only opt-in.
	PolicyResolveSymlinks
)

const (
	// MaxFileSize is the input size ceiling. Compiled in: the ceiling
	// defines a security boundary and is not runtime-configurable.
	MaxFileSize = 500 * (1 << 20) // 500 MiB

	// maxSymlinkDepth bounds symlink chain resolution under
	// PolicyResolveSymlinks, preventing symlink-cycle denial of service.
	maxSymlinkDepth = 8
)

// ValidateInputPath runs the full path state machine over an untrusted
// input path: syntax, existence, file type, symlink policy, size bounds.
// On success it returns the canonical absolute path.
func ValidateInputPath(path string, policy SymlinkPolicy) (string, error) {
	return validateInput(path, policy, maxSymlinkDepth, MaxFileSize)
}

func validateInput(path string, policy SymlinkPolicy, depth int, maxBytes int64) (string, error) {
	// Syntactic rejection happens before any filesystem access, so a
	// traversal attempt never even reaches the existence check.
	if err := checkPathSyntax(path); err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newError(KindNotFound, "file does not exist")
		}
		return "", newError(KindUnreadable, "file is not accessible")
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if policy != PolicyResolveSymlinks {
			return "", newError(KindSymlinkRejected, "symbolic links are not permitted")
		}
		if depth <= 0 {
			return "", newError(KindSymlinkDepthExceeded, "symbolic link chain is too deep")
		}

		target, err := os.Readlink(path)
		if err != nil {
			return "", newError(KindUnreadable, "symbolic link cannot be read")
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		// The resolved target is untrusted input again: run the whole
		// state machine over it, one chain link deeper.
		return validateInput(target, policy, depth-1, maxBytes)
	}

	if !info.Mode().IsRegular() {
		return "", newError(KindNotRegularFile, "path is not a regular file")
	}

	if info.Size() == 0 {
		return "", newError(KindFileEmpty, "file is empty")
	}
	if info.Size() > maxBytes {
		return "", newErrorf(KindFileTooLarge, "file is too large (limit %d MiB)", maxBytes>>20)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(KindUnreadable, "file path cannot be resolved")
	}
	return abs, nil
}

// ValidateOutputPath is the lighter variant for save targets. The file may
// legitimately not exist yet, so there is no size or symlink check; the
// same traversal-token rejection applies, and the parent directory must
// already exist.
func ValidateOutputPath(path string) (string, error) {
	if err := checkPathSyntax(path); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(KindUnreadable, "file path cannot be resolved")
	}

	parent := filepath.Dir(abs)
	info, err := os.Stat(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newError(KindParentDirectoryMissing, "target directory does not exist")
		}
		return "", newError(KindUnreadable, "target directory is not accessible")
	}
	if !info.IsDir() {
		return "", newError(KindParentDirectoryMissing, "target directory does not exist")
	}
	return abs, nil
}

// checkPathSyntax is the defense-in-depth heuristic layer: it rejects
// obviously hostile shapes before canonicalization ever runs. It is not a
// substitute for the later checks, just a cheap first gate.
func checkPathSyntax(path string) error {
	if strings.TrimSpace(path) == "" {
		return newError(KindEmptyPath, "no file path was given")
	}
	if strings.ContainsRune(path, 0) {
		return newError(KindTraversalAttempt, "file path contains forbidden characters")
	}
	if strings.Contains(path, "//") || strings.Contains(path, `\\`) {
		return newError(KindTraversalAttempt, "file path contains doubled separators")
	}
	for _, segment := range strings.FieldsFunc(path, isPathSeparator) {
		if segment == ".." {
			return newError(KindTraversalAttempt, "file path contains parent directory references")
		}
	}
	return nil
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
