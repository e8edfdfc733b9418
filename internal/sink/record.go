package sink

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodingError reports a path that cannot be written as a single output record.
type EncodingError struct {
	Path   string
	Reason string
}

// Error implements the error interface for EncodingError.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode path %q: %s", e.Path, e.Reason)
}

// EncodeRecord returns the UTF-8 bytes of path followed by a newline.
// Paths that are not valid UTF-8, or that contain NUL or line-break characters,
// are rejected with an *EncodingError.
func EncodeRecord(path string) ([]byte, error) {
	return AppendRecord(nil, path)
}

// AppendRecord appends the encoded record for path to buf.
// On error buf is returned unchanged.
func AppendRecord(buf []byte, path string) ([]byte, error) {
	if err := validate(path); err != nil {
		return buf, err
	}
	buf = append(buf, path...)
	return append(buf, '\n'), nil
}

func validate(path string) error {
	if path == "" {
		return &EncodingError{Path: path, Reason: "empty path"}
	}
	if !utf8.ValidString(path) {
		return &EncodingError{Path: path, Reason: "not valid UTF-8"}
	}
	if strings.ContainsRune(path, 0) {
		return &EncodingError{Path: path, Reason: "contains NUL"}
	}
	if strings.ContainsAny(path, "\r\n") {
		return &EncodingError{Path: path, Reason: "contains a line break"}
	}
	return nil
}
