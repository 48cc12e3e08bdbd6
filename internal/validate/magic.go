package validate

import (
	"bytes"
	"io"
	"log/slog"
	"os"
)

// MatchFile reads a bounded header prefix from the file and checks it
// against the signature candidates for the claimed extension.
//
// A clean mismatch returns (FormatUnknown, false, nil); an error is only
// returned when the file cannot be opened or read at all. Callers must
// report those differently: "cannot read file" is an environment problem,
// "content does not match extension" suggests a mislabeled or malicious
// file.
//
// Cost is one open plus one bounded read of headerProbeLen bytes; there is
// no full-file scanning and no format-specific deep parsing.
func MatchFile(path, extension string) (Format, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, false, err
	}
	defer f.Close()

	header := make([]byte, headerProbeLen)
	n, err := io.ReadFull(f, header)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// Truncated headers are never valid images; a short read is a
			// mismatch, not a retry condition.
			return FormatUnknown, false, nil
		}
		return FormatUnknown, false, err
	}

	format, ok := MatchHeader(header[:n], extension)
	return format, ok, nil
}

// MatchHeader checks an already-read header buffer against the candidates
// for the claimed extension. Pure and deterministic; exported separately so
// the signature table can be tested without touching the filesystem.
func MatchHeader(header []byte, extension string) (Format, bool) {
	if len(header) < headerProbeLen {
		return FormatUnknown, false
	}

	for _, sig := range LookupSignatures(extension) {
		if matchSignature(header, sig) {
			return sig.Format, true
		}
	}
	return FormatUnknown, false
}

func matchSignature(header []byte, sig Signature) bool {
	for _, part := range sig.Parts {
		end := part.Offset + len(part.Pattern)
		if end > len(header) || !bytes.Equal(header[part.Offset:end], part.Pattern) {
			return false
		}
	}

	if len(sig.Brands) > 0 {
		return matchBrand(header, sig)
	}
	return true
}

// matchBrand enforces the ISO-BMFF brand whitelist. An unrecognized brand
// is logged as a detection event but still treated as invalid: the check
// fails closed rather than trusting an unknown sub-format.
func matchBrand(header []byte, sig Signature) bool {
	brand := string(header[heifBrandOffset : heifBrandOffset+4])
	for _, allowed := range sig.Brands {
		if brand == allowed {
			return true
		}
	}

	slog.Warn("unrecognized container brand",
		"format", sig.Format.String(),
		"brand", brand,
	)
	return false
}
