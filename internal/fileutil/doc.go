// Package fileutil provides the path predicates used while scanning a directory tree.
//
// The predicates are pure: they never touch the filesystem and hold no mutable
// state once built, so a single Filter is shared by every scan worker.
//
// # Main Components
//
// Filter - immutable filter configuration:
//   - Prefix: folder-name prefix (case-insensitive)
//   - Mode: where the prefix applies (PrefixAnchored or PrefixSubstring)
//   - Extensions: set of accepted file extensions (case-insensitive, no leading dot)
//
// # Prefix Modes
//
// PrefixAnchored (the default) applies a case-insensitive starts-with test to the
// names of directories directly under the scan root, once, at seeding time.
// Everything beneath an accepted top-level directory is scanned regardless of name.
//
// PrefixSubstring applies a case-insensitive contains test to the name of every
// directory at every depth, so a subtree is pruned as soon as one directory on
// the way down does not mention the prefix.
//
// # Extension Matching
//
// The extension of a file is the text after the final '.' in its name. A name
// without a '.' has no extension and is rejected whenever any extension is
// configured. An empty extension set accepts every file.
//
// # Usage Examples
//
//	f := fileutil.NewFilter("Proj", fileutil.PrefixAnchored, fileutil.ParseFileTypes("txt,DOC"))
//	f.MatchTopLevel("ProjectX")  // true
//	f.MatchFile("report.Doc")    // true
//	f.MatchFile("Makefile")      // false
package fileutil
