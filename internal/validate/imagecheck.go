package validate

import (
	"image"
	"os"

	// Header decoders for DecodeConfig. Only the config (dimensions) is
	// ever read; pixel data is never decoded here.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageBounds enforces dimension and pixel-count ceilings on an already
// pipeline-validated image file. This is decompression-bomb protection: a
// tiny file can declare an enormous canvas, and the limits here stop it
// before a decoder allocates for it.
type ImageBounds struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int
}

// DefaultImageBounds returns the compiled-in ceilings.
func DefaultImageBounds() ImageBounds {
	return ImageBounds{
		MaxWidth:  50000,
		MaxHeight: 50000,
		MaxPixels: 100_000_000, // 100 megapixels
	}
}

// CheckFile reads just enough of the file header to learn the declared
// dimensions and verifies them against the ceilings. HEIF has no registered
// header decoder, so the dimension check is skipped for it; the magic-number
// validation has already run by the time this is called.
func (b ImageBounds) CheckFile(path string, format Format) error {
	if format == FormatHEIF {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return newError(KindUnreadable, "file cannot be read")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return newError(KindContentFormatMismatch, "image header cannot be decoded")
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return newErrorf(KindImageBounds, "image declares invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > b.MaxWidth || cfg.Height > b.MaxHeight {
		return newErrorf(KindImageBounds, "image dimensions %dx%d exceed the %dx%d limit",
			cfg.Width, cfg.Height, b.MaxWidth, b.MaxHeight)
	}
	// The product of two in-range dimensions can still overflow int on
	// 32-bit platforms, so it is computed in 64 bits.
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(b.MaxPixels) {
		return newErrorf(KindImageBounds, "image has %d pixels, more than the %d limit", pixels, b.MaxPixels)
	}
	return nil
}
