package fileutil

import (
	"fmt"
	"strings"
)

// PrefixMode selects where the folder-name prefix filter is applied.
type PrefixMode string

const (
	// PrefixAnchored matches the prefix at the start of top-level folder names only.
	PrefixAnchored PrefixMode = "anchored"
	// PrefixSubstring matches the prefix anywhere in folder names, at every depth.
	PrefixSubstring PrefixMode = "substring"
)

// ParsePrefixMode converts a user-supplied mode name into a PrefixMode.
// An empty string selects PrefixAnchored.
func ParsePrefixMode(s string) (PrefixMode, error) {
	switch PrefixMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PrefixAnchored:
		return PrefixAnchored, nil
	case PrefixSubstring:
		return PrefixSubstring, nil
	default:
		return "", fmt.Errorf("invalid prefix mode %q, must be one of: anchored, substring", s)
	}
}

// Filter decides which directories are scanned and which files are recorded.
// A Filter is immutable after NewFilter and safe for concurrent use.
type Filter struct {
	prefix     string
	mode       PrefixMode
	extensions map[string]struct{}
}

// NewFilter builds a Filter. Extensions are compared case-insensitively and may be
// given with or without a leading dot; empty entries are ignored.
func NewFilter(prefix string, mode PrefixMode, extensions []string) *Filter {
	if mode == "" {
		mode = PrefixAnchored
	}

	extMap := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		extMap[strings.ToLower(ext)] = struct{}{}
	}

	return &Filter{
		prefix:     strings.ToLower(prefix),
		mode:       mode,
		extensions: extMap,
	}
}

// Mode returns the prefix mode of the filter.
func (f *Filter) Mode() PrefixMode {
	return f.mode
}

// HasExtensions reports whether an extension filter is configured.
func (f *Filter) HasExtensions() bool {
	return len(f.extensions) > 0
}

// MatchTopLevel reports whether a directory directly under the scan root is scanned.
func (f *Filter) MatchTopLevel(name string) bool {
	if f.prefix == "" {
		return true
	}
	lower := strings.ToLower(name)
	if f.mode == PrefixSubstring {
		return strings.Contains(lower, f.prefix)
	}
	return strings.HasPrefix(lower, f.prefix)
}

// MatchSubdir reports whether a directory discovered below a top-level directory is scanned.
// In anchored mode descendants are never filtered.
func (f *Filter) MatchSubdir(name string) bool {
	if f.prefix == "" || f.mode != PrefixSubstring {
		return true
	}
	return strings.Contains(strings.ToLower(name), f.prefix)
}

// MatchFile reports whether a file with the given base name is recorded.
func (f *Filter) MatchFile(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	ext, ok := Extension(name)
	if !ok {
		return false
	}
	_, found := f.extensions[strings.ToLower(ext)]
	return found
}

// Extension returns the text after the final '.' in name.
// ok is false when name contains no '.'.
func Extension(name string) (ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}

// ParseFileTypes splits a comma-separated extension list such as "doc,docx,pdf".
// Whitespace and leading dots are trimmed and empty items dropped.
func ParseFileTypes(s string) []string {
	var types []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimPrefix(strings.TrimSpace(part), ".")
		if part != "" {
			types = append(types, part)
		}
	}
	return types
}

// IsPseudoEntry reports whether name is the "." or ".." directory entry.
func IsPseudoEntry(name string) bool {
	return name == "." || name == ".."
}
