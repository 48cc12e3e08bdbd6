package metadata

import (
	"bytes"
	"fmt"
	"io"
)

// JPEG marker bytes relevant to the segment walk.
const (
	jpegMarkerPrefix = 0xFF
	jpegSOI          = 0xD8
	jpegEOI          = 0xD9
	jpegSOS          = 0xDA
	jpegTEM          = 0x01
	jpegAPP1         = 0xE1 // EXIF, XMP
	jpegAPP13        = 0xED // Photoshop IRB / IPTC
	jpegCOM          = 0xFE // comment
)

var (
	exifPreamble = []byte("Exif\x00\x00")
	xmpPreamble  = []byte("http://ns.adobe.com/xap/1.0/")
)

// stripJPEG walks the segment stream between SOI and SOS, copying every
// segment except the metadata carriers. APP0 (JFIF), APP2 (ICC profile)
// and APP14 (Adobe color transform) are kept: decoders need them to
// interpret the image correctly. From SOS onward the entropy-coded data is
// copied verbatim.
func stripJPEG(r io.Reader, w io.Writer) ([]Segment, error) {
	var removed []Segment

	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil || soi[0] != jpegMarkerPrefix || soi[1] != jpegSOI {
		return nil, ErrMalformed
	}
	if _, err := w.Write(soi[:]); err != nil {
		return nil, err
	}

	for {
		marker, err := readJPEGMarker(r)
		if err != nil {
			return nil, ErrMalformed
		}

		switch {
		case marker == jpegSOS:
			// Everything from SOS to EOF is image data.
			if _, err := w.Write([]byte{jpegMarkerPrefix, marker}); err != nil {
				return nil, err
			}
			if _, err := io.Copy(w, r); err != nil {
				return nil, err
			}
			return removed, nil

		case marker == jpegEOI:
			if _, err := w.Write([]byte{jpegMarkerPrefix, marker}); err != nil {
				return nil, err
			}
			return removed, nil

		case marker == jpegTEM || (marker >= 0xD0 && marker <= 0xD7):
			// Standalone markers carry no length field.
			if _, err := w.Write([]byte{jpegMarkerPrefix, marker}); err != nil {
				return nil, err
			}

		default:
			var lenBuf [2]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return nil, ErrMalformed
			}
			segLen := int(lenBuf[0])<<8 | int(lenBuf[1])
			if segLen < 2 {
				return nil, ErrMalformed
			}

			payload := make([]byte, segLen-2)
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, ErrMalformed
			}

			if name, drop := jpegSegmentToDrop(marker, payload); drop {
				removed = append(removed, Segment{Name: name, Size: int64(len(payload))})
				continue
			}

			if _, err := w.Write([]byte{jpegMarkerPrefix, marker}); err != nil {
				return nil, err
			}
			if _, err := w.Write(lenBuf[:]); err != nil {
				return nil, err
			}
			if _, err := w.Write(payload); err != nil {
				return nil, err
			}
		}
	}
}

// readJPEGMarker consumes the 0xFF prefix (and any fill bytes) and returns
// the marker code.
func readJPEGMarker(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	if b[0] != jpegMarkerPrefix {
		return 0, fmt.Errorf("expected marker prefix, got 0x%02X", b[0])
	}
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		if b[0] != jpegMarkerPrefix { // 0xFF fill bytes may pad markers
			return b[0], nil
		}
	}
}

// jpegSegmentToDrop decides whether a segment carries metadata, and names
// it for reporting.
func jpegSegmentToDrop(marker byte, payload []byte) (string, bool) {
	switch marker {
	case jpegAPP1:
		switch {
		case bytes.HasPrefix(payload, exifPreamble):
			return "EXIF (APP1)", true
		case bytes.HasPrefix(payload, xmpPreamble):
			return "XMP (APP1)", true
		default:
			return "APP1", true
		}
	case jpegAPP13:
		return "IPTC (APP13)", true
	case jpegCOM:
		return "Comment (COM)", true
	default:
		return "", false
	}
}
