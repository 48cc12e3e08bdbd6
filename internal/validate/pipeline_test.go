package validate

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidateForOpenValidJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	content := make([]byte, 50)
	copy(content, []byte{0xFF, 0xD8, 0xFF})
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(PolicyRejectSymlinks)
	vf, err := p.ValidateForOpen(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vf.Format != FormatJPEG {
		t.Errorf("format = %s, want JPEG", vf.Format)
	}
	if !filepath.IsAbs(vf.CanonicalPath) {
		t.Errorf("canonical path %q is not absolute", vf.CanonicalPath)
	}
}

func TestValidateForOpenTraversal(t *testing.T) {
	p := NewPipeline(PolicyRejectSymlinks)
	_, err := p.ValidateForOpen("../../etc/passwd")
	if !IsKind(err, KindTraversalAttempt) {
		t.Errorf("got %v, want %s", err, KindTraversalAttempt)
	}
}

func TestValidateForOpenExtensionContentIndependence(t *testing.T) {
	dir := t.TempDir()

	// PNG magic bytes behind a .jpg extension: must be rejected as a
	// content mismatch, never silently treated as either format.
	path := filepath.Join(dir, "disguised.jpg")
	content := make([]byte, 64)
	copy(content, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(PolicyRejectSymlinks)
	_, err := p.ValidateForOpen(path)
	if !IsKind(err, KindContentFormatMismatch) {
		t.Errorf("got %v, want %s", err, KindContentFormatMismatch)
	}
}

func TestValidateForOpenUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(PolicyRejectSymlinks)
	_, err := p.ValidateForOpen(path)
	if !IsKind(err, KindExtensionUnrecognized) {
		t.Errorf("got %v, want %s", err, KindExtensionUnrecognized)
	}
}

func TestValidateForOpenHEIFBrandRejection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.heic")

	// Correct ftyp box, brand absent from the whitelist.
	content := make([]byte, 64)
	copy(content[4:], "ftyp")
	copy(content[8:], "xxxx")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(PolicyRejectSymlinks)
	_, err := p.ValidateForOpen(path)
	if !IsKind(err, KindContentFormatMismatch) {
		t.Errorf("got %v, want %s", err, KindContentFormatMismatch)
	}
}

func TestValidateForOpenSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "real.jpg")
	content := make([]byte, 50)
	copy(content, []byte{0xFF, 0xD8, 0xFF})
	if err := os.WriteFile(target, content, 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	t.Run("rejected under default policy", func(t *testing.T) {
		p := NewPipeline(PolicyRejectSymlinks)
		_, err := p.ValidateForOpen(link)
		if !IsKind(err, KindSymlinkRejected) {
			t.Errorf("got %v, want %s", err, KindSymlinkRejected)
		}
	})

	t.Run("resolved under opt-in policy", func(t *testing.T) {
		p := NewPipeline(PolicyResolveSymlinks)
		vf, err := p.ValidateForOpen(link)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if vf.CanonicalPath != target {
			t.Errorf("canonical path = %q, want resolved target %q", vf.CanonicalPath, target)
		}
	})
}

func TestValidateForSave(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(PolicyRejectSymlinks)

	if err := p.ValidateForSave(filepath.Join(dir, "out.jpg")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := p.ValidateForSave(filepath.Join(dir, "missing", "out.jpg"))
	if !IsKind(err, KindParentDirectoryMissing) {
		t.Errorf("got %v, want %s", err, KindParentDirectoryMissing)
	}
}

func TestPipelineErrorsAreTypedAndSanitized(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(PolicyRejectSymlinks)

	paths := []string{
		"",
		"../../x.jpg",
		filepath.Join(dir, "absent.jpg"),
		dir + "/sub/missing/out.png",
	}
	for _, path := range paths {
		if _, err := p.ValidateForOpen(path); err != nil {
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Errorf("ValidateForOpen(%q): error is %T, want *ValidationError", path, err)
				continue
			}
			if SanitizeMessage(verr.Message) != verr.Message {
				t.Errorf("ValidateForOpen(%q): message %q not sanitized", path, verr.Message)
			}
		}
	}
}
