// Package scrub orchestrates the full cleaning flow: abuse checks,
// path and content validation, metadata stripping, and atomic output
// placement.
package scrub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tobagin/scramble/internal/config"
	"github.com/tobagin/scramble/internal/hardening"
	"github.com/tobagin/scramble/internal/metadata"
	"github.com/tobagin/scramble/internal/validate"
)

var (
	// ErrRateLimited is returned when the per-minute operation budget is
	// exhausted.
	ErrRateLimited = errors.New("scrub: too many operations, try again later")

	// ErrSourceBlocked is returned for inputs that triggered repeated
	// security events recently.
	ErrSourceBlocked = errors.New("scrub: input blocked after repeated validation failures")

	// ErrSameFile is returned when the output would overwrite the input.
	ErrSameFile = errors.New("scrub: output path is the input file")
)

// Report summarizes one completed cleaning operation. Skipped is set
// when the input was already cleaned to the same output and neither
// file has changed since.
type Report struct {
	Input   string
	Output  string
	Format  validate.Format
	Removed []metadata.Segment
	Digest  string
	Skipped bool
	Elapsed time.Duration
}

// Result pairs a CleanAll input with its outcome.
type Result struct {
	Input  string
	Report *Report
	Err    error
}

// Cleaner validates untrusted image files and writes metadata-free
// copies. It is safe for concurrent use; in-flight operations are
// capped by the configured concurrency limit.
type Cleaner struct {
	pipeline *validate.Pipeline
	limiter  *hardening.RateLimiter
	monitor  *hardening.Monitor
	cache    *hardening.HashCache
	bounds   validate.ImageBounds
	sem      chan struct{}
	suffix   string
	log      *slog.Logger

	// done maps input digest + target to the digest of the output that
	// clean produced, so an unchanged input is not re-cleaned.
	mu   sync.Mutex
	done map[string]string
}

// NewCleaner builds a cleaner from configuration. A nil logger uses
// slog's default.
func NewCleaner(cfg *config.Config, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{
		pipeline: validate.NewPipeline(cfg.SymlinkPolicy()),
		limiter:  hardening.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		monitor:  hardening.NewMonitor(hardening.DefaultEventThreshold, hardening.DefaultEventWindow, log),
		cache:    hardening.NewHashCache(hardening.DefaultHashCacheSize),
		bounds:   validate.DefaultImageBounds(),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		suffix:   cfg.OutputSuffix,
		log:      log,
		done:     make(map[string]string),
	}
}

// Clean validates input, strips its metadata, and writes the result to
// output. An empty output derives the path from the input name and the
// configured suffix. The output appears atomically: it is staged in a
// temporary file next to the target and renamed into place only after
// a successful strip and fsync.
func (c *Cleaner) Clean(ctx context.Context, input, output string) (*Report, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()

	if !c.limiter.Allow() {
		c.log.Warn("operation rate limited", "retry_after", c.limiter.RetryAfter())
		return nil, ErrRateLimited
	}
	if c.monitor.Blocked(input) {
		return nil, ErrSourceBlocked
	}

	vf, err := c.pipeline.ValidateForOpen(input)
	if err != nil {
		c.recordValidationFailure(input, err)
		return nil, err
	}
	if err := c.bounds.CheckFile(vf.CanonicalPath, vf.Format); err != nil {
		c.recordValidationFailure(input, err)
		return nil, err
	}

	if output == "" {
		output = DerivedOutputPath(vf.CanonicalPath, c.suffix)
	}
	target, err := validate.ValidateOutputPath(output)
	if err != nil {
		return nil, err
	}
	if target == vf.CanonicalPath {
		return nil, ErrSameFile
	}

	if !metadata.CanStrip(vf.Format) {
		return nil, fmt.Errorf("cannot clean %s files: %w", vf.Format, metadata.ErrUnsupportedStrip)
	}

	inputDigest, err := c.cache.FileDigest(vf.CanonicalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint input: %w", err)
	}
	if prior, ok := c.priorOutput(inputDigest, target); ok {
		c.log.Info("input unchanged since last clean, skipping",
			"format", vf.Format.String(),
		)
		return &Report{
			Input:   vf.CanonicalPath,
			Output:  target,
			Format:  vf.Format,
			Digest:  prior,
			Skipped: true,
			Elapsed: time.Since(start),
		}, nil
	}

	removed, err := c.stripToFile(vf, target)
	if err != nil {
		return nil, err
	}

	digest, err := c.cache.FileDigest(target)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint output: %w", err)
	}
	c.rememberOutput(inputDigest, target, digest)

	report := &Report{
		Input:   vf.CanonicalPath,
		Output:  target,
		Format:  vf.Format,
		Removed: removed,
		Digest:  digest,
		Elapsed: time.Since(start),
	}
	c.log.Info("file cleaned",
		"format", vf.Format.String(),
		"segments_removed", len(removed),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// CleanAll cleans every input with derived output paths, preserving
// input order in the results. Failures are per-file; one bad input
// does not stop the batch.
func (c *Cleaner) CleanAll(ctx context.Context, inputs []string) []Result {
	results := make([]Result, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			report, err := c.Clean(ctx, input, "")
			results[i] = Result{Input: input, Report: report, Err: err}
		}(i, input)
	}
	wg.Wait()
	return results
}

// Inspect validates input and reports the metadata segments a clean
// would remove, without writing anything.
func (c *Cleaner) Inspect(ctx context.Context, input string) (*Report, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if c.monitor.Blocked(input) {
		return nil, ErrSourceBlocked
	}

	vf, err := c.pipeline.ValidateForOpen(input)
	if err != nil {
		c.recordValidationFailure(input, err)
		return nil, err
	}
	if !metadata.CanStrip(vf.Format) {
		return nil, fmt.Errorf("cannot inspect %s files: %w", vf.Format, metadata.ErrUnsupportedStrip)
	}

	f, err := os.Open(vf.CanonicalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	segments, err := metadata.Inspect(vf.Format, f)
	if err != nil {
		return nil, err
	}
	return &Report{
		Input:   vf.CanonicalPath,
		Format:  vf.Format,
		Removed: segments,
	}, nil
}

// stripToFile runs the strip into a temp file in the target directory
// and renames it into place.
func (c *Cleaner) stripToFile(vf *validate.ValidatedFile, target string) ([]metadata.Segment, error) {
	in, err := os.Open(vf.CanonicalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	removed, err := metadata.Strip(vf.Format, in, tmp)
	if err != nil {
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return nil, fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		tmp = nil
		return nil, fmt.Errorf("failed to place output: %w", err)
	}
	tmp = nil
	return removed, nil
}

// priorOutput reports whether a previous clean of the same input bytes
// already produced target, and target is still intact on disk.
func (c *Cleaner) priorOutput(inputDigest, target string) (string, bool) {
	c.mu.Lock()
	want, ok := c.done[inputDigest+"\x00"+target]
	c.mu.Unlock()
	if !ok {
		return "", false
	}

	// The output may have been deleted or edited since; re-clean then.
	current, err := c.cache.FileDigest(target)
	if err != nil || current != want {
		return "", false
	}
	return want, true
}

func (c *Cleaner) rememberOutput(inputDigest, target, outputDigest string) {
	c.mu.Lock()
	c.done[inputDigest+"\x00"+target] = outputDigest
	c.mu.Unlock()
}

func (c *Cleaner) recordValidationFailure(input string, err error) {
	if kind := validate.KindOf(err); kind != "" {
		c.monitor.Record(input, string(kind))
	}
}

// DerivedOutputPath inserts suffix before the extension:
// /pics/a.jpg with suffix "_cleaned" becomes /pics/a_cleaned.jpg.
func DerivedOutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}
