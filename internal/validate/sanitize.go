package validate

import "strings"

// pathSeparators covers both Unix and Windows style separators. The
// Windows pass matters even on Unix hosts: error text can quote paths that
// originated on another system.
const pathSeparators = `/\`

// SanitizeMessage strips filesystem-path fragments out of an error message
// before it can reach the user. Paths in error text leak local usernames,
// directory layout and the existence of other files.
//
// The transform is a fixed number of linear passes over the input: no
// regular expressions, no backtracking, no pathological worst case on
// adversarial input. It is idempotent; sanitizing an already-sanitized
// message returns it unchanged.
//
// If the message contains a path with a filename-like tail (a segment
// containing a dot), only that tail is kept, behind a generic "File error:"
// label. Otherwise the whole message collapses to a placeholder.
func SanitizeMessage(message string) string {
	if !strings.ContainsAny(message, pathSeparators) {
		return message
	}

	if name := trailingFilename(message); name != "" {
		return "File error: " + name
	}
	return "[path hidden]"
}

// trailingFilename finds the first whitespace-delimited token that contains
// a path separator and returns its final segment, if that segment looks
// like a real filename. Returns "" when no such tail exists.
func trailingFilename(message string) string {
	for _, token := range strings.Fields(message) {
		if !strings.ContainsAny(token, pathSeparators) {
			continue
		}

		token = strings.Trim(token, `"'(),:;!?`)
		idx := strings.LastIndexAny(token, pathSeparators)
		if idx < 0 || idx == len(token)-1 {
			return ""
		}

		segment := token[idx+1:]
		if isFilenameLike(segment) {
			return segment
		}
		return ""
	}
	return ""
}

// isFilenameLike reports whether a path segment plausibly names a file:
// it must contain an interior dot (an extension boundary) and no separator.
func isFilenameLike(segment string) bool {
	if len(segment) < 3 || strings.ContainsAny(segment, pathSeparators) {
		return false
	}
	dot := strings.LastIndexByte(segment, '.')
	return dot > 0 && dot < len(segment)-1
}
