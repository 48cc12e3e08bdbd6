// Package validate is the security boundary between untrusted user-selected
// files and the image processing pipeline.
//
// It provides magic-number based format detection, path and symlink
// validation, and error-message sanitization, combined behind a single
// [Pipeline] entry point:
//
//	p := validate.NewPipeline(validate.PolicyRejectSymlinks)
//
//	vf, err := p.ValidateForOpen("/photos/holiday.jpg")
//	if err != nil {
//	    // err is a *ValidationError with a sanitized, display-safe message
//	}
//	// vf.CanonicalPath is safe to hand to a decoder, vf.Format identifies
//	// the detected file format
//
// A file is only ever accepted when both the path-level checks and the
// content-level (magic number) checks pass; a matching extension alone is
// never sufficient. Symlinks are either rejected outright or explicitly
// resolved and re-validated, depending on the configured [SymlinkPolicy].
//
// All constants that define the security boundary (size ceiling, header
// probe length, the signature table) are compiled in and not configurable
// at runtime.
package validate
