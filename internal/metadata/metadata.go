// Package metadata implements segment-level metadata removal for the
// supported image formats.
//
// Stripping works at the container level: the copy keeps the image data
// byte-for-byte and drops the segments/chunks that carry EXIF, XMP, IPTC,
// comments and timestamps. No pixel data is ever decoded and no tag
// semantics are interpreted.
package metadata

import (
	"errors"
	"io"

	"github.com/tobagin/scramble/internal/validate"
)

var (
	// ErrUnsupportedStrip marks formats whose metadata is structurally
	// entangled with the image data (TIFF IFDs, ISO-BMFF boxes) and cannot
	// be removed by a container-level copy. Cleaning those requires an
	// external codec that re-encodes the image.
	ErrUnsupportedStrip = errors.New("metadata: format requires an external codec to strip")

	// ErrMalformed is returned when the input does not parse as the
	// claimed container format. The validation pipeline checks the magic
	// number, not the full structure, so a file can still be truncated or
	// corrupt past the header.
	ErrMalformed = errors.New("metadata: malformed image data")
)

// Segment describes one metadata-bearing region found in a file.
type Segment struct {
	// Name identifies the container slot, e.g. "EXIF (APP1)" or "tEXt".
	Name string

	// Size is the payload size in bytes.
	Size int64
}

// Strip copies the image from r to w, dropping metadata segments. It
// returns the segments that were removed. The format must be the one the
// validation pipeline detected; the dispatch is exhaustive over the closed
// format set.
func Strip(format validate.Format, r io.Reader, w io.Writer) ([]Segment, error) {
	switch format {
	case validate.FormatJPEG:
		return stripJPEG(r, w)
	case validate.FormatPNG:
		return stripPNG(r, w)
	case validate.FormatWebP:
		return stripWebP(r, w)
	case validate.FormatTIFFLittleEndian, validate.FormatTIFFBigEndian, validate.FormatHEIF:
		return nil, ErrUnsupportedStrip
	default:
		return nil, ErrUnsupportedStrip
	}
}

// Inspect reports the metadata segments a strip would remove, without
// producing output.
func Inspect(format validate.Format, r io.Reader) ([]Segment, error) {
	return Strip(format, r, io.Discard)
}

// CanStrip reports whether Strip supports the format.
func CanStrip(format validate.Format) bool {
	switch format {
	case validate.FormatJPEG, validate.FormatPNG, validate.FormatWebP:
		return true
	default:
		return false
	}
}
