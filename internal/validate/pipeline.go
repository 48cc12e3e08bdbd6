package validate

import (
	"path/filepath"
	"strings"
)

// ValidatedFile is the proof-of-validation handle returned by the pipeline.
// CanonicalPath is the resolved absolute path (for a resolved symlink, the
// target, not the link) and is what callers hand to a decoder.
type ValidatedFile struct {
	CanonicalPath string
	Format        Format
}

// Pipeline orchestrates PathGuard and the magic-number check for both the
// load and the save path. It is the only entry point external collaborators
// use; the individual checks are never exposed directly, so their internals
// can change without breaking callers.
//
// A Pipeline holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	policy SymlinkPolicy
}

// NewPipeline builds a pipeline with the given symlink policy. The policy
// is sourced once at startup from configuration and fixed for the lifetime
// of the pipeline.
func NewPipeline(policy SymlinkPolicy) *Pipeline {
	return &Pipeline{policy: policy}
}

// Policy returns the symlink policy the pipeline was built with.
func (p *Pipeline) Policy() SymlinkPolicy {
	return p.policy
}

// ValidateForOpen validates an untrusted path for reading: path checks
// first, then the bounded magic-number probe against the claimed extension.
// Extension match alone is never sufficient; the header has to agree.
//
// Every returned error is a *ValidationError carrying a sanitized message.
func (p *Pipeline) ValidateForOpen(path string) (*ValidatedFile, error) {
	canonical, err := ValidateInputPath(path, p.policy)
	if err != nil {
		return nil, err
	}

	ext := normalizeExtension(canonical)
	if len(LookupSignatures(ext)) == 0 {
		return nil, newErrorf(KindExtensionUnrecognized, "unsupported file type %q", displayExtension(ext))
	}

	format, ok, err := MatchFile(canonical, ext)
	if err != nil {
		return nil, newError(KindUnreadable, "file cannot be read")
	}
	if !ok {
		return nil, newError(KindContentFormatMismatch, "file content does not match its extension")
	}

	return &ValidatedFile{
		CanonicalPath: canonical,
		Format:        format,
	}, nil
}

// ValidateForSave validates a save target before anything is written:
// syntax and parent-directory checks only, since the file itself may not
// exist yet and there is no content to probe.
func (p *Pipeline) ValidateForSave(path string) error {
	_, err := ValidateOutputPath(path)
	return err
}

// normalizeExtension derives the claimed extension from a path:
// lower-cased, dot stripped.
func normalizeExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func displayExtension(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}
