package metadata

import (
	"bytes"
	"testing"

	"github.com/tobagin/scramble/internal/validate"
)

// jpegSegment assembles a marker segment: FF <marker> <len> <payload>.
func jpegSegment(marker byte, payload []byte) []byte {
	segLen := len(payload) + 2
	out := []byte{0xFF, marker, byte(segLen >> 8), byte(segLen)}
	return append(out, payload...)
}

func buildJPEG(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8} // SOI
	for _, seg := range segments {
		out = append(out, seg...)
	}
	// SOS, entropy-coded data, EOI
	out = append(out, 0xFF, 0xDA, 0x00, 0x04, 0x01, 0x02)
	out = append(out, 0xA1, 0xB2, 0xC3, 0xD4)
	out = append(out, 0xFF, 0xD9)
	return out
}

func TestStripJPEGRemovesMetadataSegments(t *testing.T) {
	app0 := jpegSegment(0xE0, append([]byte("JFIF\x00"), 1, 2, 0, 0, 1, 0, 1, 0, 0))
	exif := jpegSegment(0xE1, append([]byte("Exif\x00\x00"), 0x4D, 0x4D, 0x00, 0x2A))
	xmp := jpegSegment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/"), 0x00, '<', 'x', '>'))
	iptc := jpegSegment(0xED, []byte("Photoshop 3.0\x00"))
	comment := jpegSegment(0xFE, []byte("shot on holiday"))
	dqt := jpegSegment(0xDB, bytes.Repeat([]byte{0x10}, 65))

	input := buildJPEG(app0, exif, xmp, iptc, comment, dqt)
	want := buildJPEG(app0, dqt)

	var out bytes.Buffer
	removed, err := stripJPEG(bytes.NewReader(input), &out)
	if err != nil {
		t.Fatalf("stripJPEG: %v", err)
	}

	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("stripped output differs from expected bytes")
	}

	names := segmentNames(removed)
	for _, want := range []string{"EXIF (APP1)", "XMP (APP1)", "IPTC (APP13)", "Comment (COM)"} {
		if !names[want] {
			t.Errorf("removed segments %v missing %q", removed, want)
		}
	}
	if len(removed) != 4 {
		t.Errorf("removed %d segments, want 4", len(removed))
	}
}

func TestStripJPEGIsIdentityWithoutMetadata(t *testing.T) {
	dqt := jpegSegment(0xDB, bytes.Repeat([]byte{0x10}, 65))
	input := buildJPEG(dqt)

	var out bytes.Buffer
	removed, err := stripJPEG(bytes.NewReader(input), &out)
	if err != nil {
		t.Fatalf("stripJPEG: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("removed %v from a clean file", removed)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Error("clean file was modified")
	}
}

func TestStripJPEGPreservesEntropyData(t *testing.T) {
	exif := jpegSegment(0xE1, append([]byte("Exif\x00\x00"), 1, 2, 3))
	input := buildJPEG(exif)

	var out bytes.Buffer
	if _, err := stripJPEG(bytes.NewReader(input), &out); err != nil {
		t.Fatalf("stripJPEG: %v", err)
	}

	// The bytes after SOS must survive untouched.
	tail := []byte{0xFF, 0xDA, 0x00, 0x04, 0x01, 0x02, 0xA1, 0xB2, 0xC3, 0xD4, 0xFF, 0xD9}
	if !bytes.HasSuffix(out.Bytes(), tail) {
		t.Error("entropy-coded data was altered")
	}
}

func TestStripJPEGMalformed(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0xFF},
		{0x89, 0x50}, // PNG bytes
		{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x10, 'E'}, // truncated segment
		{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x01},      // impossible length
	}
	for _, in := range inputs {
		if _, err := stripJPEG(bytes.NewReader(in), &bytes.Buffer{}); err == nil {
			t.Errorf("stripJPEG accepted malformed input %v", in)
		}
	}
}

func TestStripDispatchJPEG(t *testing.T) {
	exif := jpegSegment(0xE1, append([]byte("Exif\x00\x00"), 9, 9))
	input := buildJPEG(exif)

	var out bytes.Buffer
	removed, err := Strip(validate.FormatJPEG, bytes.NewReader(input), &out)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if len(removed) != 1 || removed[0].Name != "EXIF (APP1)" {
		t.Errorf("removed = %v, want one EXIF (APP1) segment", removed)
	}
}

func segmentNames(segments []Segment) map[string]bool {
	names := make(map[string]bool, len(segments))
	for _, seg := range segments {
		names[seg.Name] = true
	}
	return names
}
