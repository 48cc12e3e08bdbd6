package validate

// SignaturePart is one fixed byte pattern at a fixed offset. A signature
// matches only when every part matches, which is how multi-anchor container
// formats (RIFF/WEBP, ISO-BMFF) are pinned down without deep parsing.
type SignaturePart struct {
	Offset  int
	Pattern []byte
}

// Signature describes the magic-number identity of one format. Brands is
// only populated for ISO-BMFF containers (HEIF), where the bytes directly
// after the ftyp tag name the concrete sub-format.
type Signature struct {
	Format Format
	Parts  []SignaturePart
	Brands []string
}

// heifBrandOffset is where the 4-character brand code sits inside an
// ISO-BMFF ftyp box.
const heifBrandOffset = 8

// signatureTable maps a lower-cased, dot-stripped file extension to its
// candidate signatures. Multiple candidates per extension are allowed where
// ambiguity is inherent (TIFF's two byte orders today, RAW variants sharing
// an extension tomorrow). The table is populated once and never mutated, so
// concurrent lookups need no locking.
var signatureTable = map[string][]Signature{
	"jpg": {
		{Format: FormatJPEG, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0xFF, 0xD8, 0xFF}}}},
	},
	"jpeg": {
		{Format: FormatJPEG, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0xFF, 0xD8, 0xFF}}}},
	},
	"png": {
		{Format: FormatPNG, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}}}},
	},
	"webp": {
		// Both anchors are required: a RIFF file that is actually another
		// RIFF-based format (AVI, WAV) must not pass as WebP.
		{Format: FormatWebP, Parts: []SignaturePart{
			{Offset: 0, Pattern: []byte("RIFF")},
			{Offset: 8, Pattern: []byte("WEBP")},
		}},
	},
	"tif": {
		{Format: FormatTIFFLittleEndian, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0x49, 0x49, 0x2A, 0x00}}}},
		{Format: FormatTIFFBigEndian, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0x4D, 0x4D, 0x00, 0x2A}}}},
	},
	"tiff": {
		{Format: FormatTIFFLittleEndian, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0x49, 0x49, 0x2A, 0x00}}}},
		{Format: FormatTIFFBigEndian, Parts: []SignaturePart{{Offset: 0, Pattern: []byte{0x4D, 0x4D, 0x00, 0x2A}}}},
	},
	"heif": {
		{Format: FormatHEIF, Parts: []SignaturePart{{Offset: 4, Pattern: []byte("ftyp")}}, Brands: heifBrands},
	},
	"heic": {
		{Format: FormatHEIF, Parts: []SignaturePart{{Offset: 4, Pattern: []byte("ftyp")}}, Brands: heifBrands},
	},
}

// heifBrands is the whitelist of ftyp brand codes accepted as HEIF/HEIC.
// An unlisted brand fails closed even if the container is well formed.
var heifBrands = []string{
	"heic", "heix", "heim", "heis",
	"hevc", "hevx", "hevm", "hevs",
	"mif1", "msf1",
}

// headerProbeLen is the fixed header-read buffer size: the largest
// offset+pattern span across the table, including the HEIF brand bytes.
// Computed from the table so new signatures can never silently exceed the
// probe.
var headerProbeLen = computeProbeLen()

func computeProbeLen() int {
	max := 0
	for _, sigs := range signatureTable {
		for _, sig := range sigs {
			for _, part := range sig.Parts {
				if end := part.Offset + len(part.Pattern); end > max {
					max = end
				}
			}
			if len(sig.Brands) > 0 {
				if end := heifBrandOffset + 4; end > max {
					max = end
				}
			}
		}
	}
	return max
}

// LookupSignatures returns the candidate signatures for a claimed extension
// (lower-cased, without the leading dot). An unknown extension yields an
// empty slice, which callers interpret as "format not recognized" as
// opposed to "format recognized but content mismatched".
func LookupSignatures(extension string) []Signature {
	return signatureTable[extension]
}

// SupportedExtensions returns the extensions present in the signature table.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(signatureTable))
	for ext := range signatureTable {
		exts = append(exts, ext)
	}
	return exts
}
