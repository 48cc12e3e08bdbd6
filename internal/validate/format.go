package validate

// Format identifies a supported image file format. The set is closed:
// validation logic switches over it exhaustively, so adding a format means
// extending the signature table and every switch at compile time rather
// than relying on a decoder library being present.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatTIFFLittleEndian
	FormatTIFFBigEndian
	FormatHEIF
)

// String returns a short human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatWebP:
		return "WebP"
	case FormatTIFFLittleEndian:
		return "TIFF (little-endian)"
	case FormatTIFFBigEndian:
		return "TIFF (big-endian)"
	case FormatHEIF:
		return "HEIF"
	default:
		return "unknown"
	}
}

// IsTIFF reports whether the format is either TIFF byte order. Both are
// treated as equally valid everywhere; the distinction only matters to a
// downstream consumer that cares about endianness.
func (f Format) IsTIFF() bool {
	return f == FormatTIFFLittleEndian || f == FormatTIFFBigEndian
}
