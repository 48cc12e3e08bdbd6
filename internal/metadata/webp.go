package metadata

import (
	"bytes"
	"encoding/binary"
	"io"
)

// VP8X feature flags signalling the presence of metadata chunks.
const (
	vp8xFlagEXIF = 0x08
	vp8xFlagXMP  = 0x04
)

// webpChunksToDrop maps RIFF FourCCs to display names.
var webpChunksToDrop = map[string]string{
	"EXIF": "EXIF",
	"XMP ": "XMP",
}

// stripWebP rewrites the RIFF container without the EXIF/XMP chunks. The
// RIFF size field covers the whole payload and shrinks when chunks are
// dropped, so the surviving chunks are staged in memory and the header is
// emitted last. If a VP8X header is present, its EXIF/XMP feature bits are
// cleared to keep the container self-consistent.
func stripWebP(r io.Reader, w io.Writer) ([]Segment, error) {
	var removed []Segment

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, ErrMalformed
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WEBP" {
		return nil, ErrMalformed
	}

	var payload bytes.Buffer
	var head [8]byte // FourCC + little-endian size
	for {
		if _, err := io.ReadFull(r, head[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, ErrMalformed
		}
		fourCC := string(head[0:4])
		dataLen := binary.LittleEndian.Uint32(head[4:8])

		// Chunks are padded to even sizes.
		readLen := int64(dataLen)
		if dataLen%2 == 1 {
			readLen++
		}

		// The declared length is attacker-controlled, so chunk bodies
		// are streamed rather than allocated up front; the staging
		// buffer only ever grows by bytes actually present in the file.
		if name, drop := webpChunksToDrop[fourCC]; drop {
			if _, err := io.CopyN(io.Discard, r, readLen); err != nil {
				return nil, ErrMalformed
			}
			removed = append(removed, Segment{Name: name, Size: int64(dataLen)})
			continue
		}

		payload.Write(head[:])
		if fourCC == "VP8X" && readLen > 0 {
			var flags [1]byte
			if _, err := io.ReadFull(r, flags[:]); err != nil {
				return nil, ErrMalformed
			}
			flags[0] &^= vp8xFlagEXIF | vp8xFlagXMP
			payload.WriteByte(flags[0])
			readLen--
		}
		if _, err := io.CopyN(&payload, r, readLen); err != nil {
			return nil, ErrMalformed
		}
	}

	binary.LittleEndian.PutUint32(riff[4:8], uint32(4+payload.Len()))
	if _, err := w.Write(riff[:]); err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, &payload); err != nil {
		return nil, err
	}
	return removed, nil
}
