package metadata

import (
	"encoding/binary"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// pngChunksToDrop are the ancillary chunk types that carry metadata.
// Critical chunks and rendering-related ancillary chunks (gAMA, sRGB,
// iCCP, pHYs, ...) are copied untouched.
var pngChunksToDrop = map[string]bool{
	"tEXt": true,
	"zTXt": true,
	"iTXt": true,
	"eXIf": true,
	"tIME": true,
}

// stripPNG copies the chunk stream, skipping metadata chunks. Chunks are
// copied whole, CRC included, so nothing needs recomputing.
func stripPNG(r io.Reader, w io.Writer) ([]Segment, error) {
	var removed []Segment

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, ErrMalformed
	}
	for i := range sig {
		if sig[i] != pngSignature[i] {
			return nil, ErrMalformed
		}
	}
	if _, err := w.Write(sig); err != nil {
		return nil, err
	}

	var head [8]byte // 4-byte length + 4-byte type
	for {
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return nil, ErrMalformed
		}
		dataLen := binary.BigEndian.Uint32(head[:4])
		chunkType := string(head[4:8])

		// The declared length is attacker-controlled: the body is
		// streamed, never allocated up front, so a tiny file claiming a
		// gigabyte chunk costs nothing before the copy runs dry.
		bodyLen := int64(dataLen) + 4 // data + CRC

		if pngChunksToDrop[chunkType] {
			if _, err := io.CopyN(io.Discard, r, bodyLen); err != nil {
				return nil, ErrMalformed
			}
			removed = append(removed, Segment{Name: chunkType, Size: int64(dataLen)})
			continue
		}

		if _, err := w.Write(head[:]); err != nil {
			return nil, err
		}
		if _, err := io.CopyN(w, r, bodyLen); err != nil {
			if err == io.EOF {
				return nil, ErrMalformed
			}
			return nil, err
		}

		if chunkType == "IEND" {
			return removed, nil
		}
	}
}
