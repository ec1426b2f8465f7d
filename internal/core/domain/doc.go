// Package domain defines the core entities of the ricerca search engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SearchRequest: an immutable description of one search run
//   - Block: a directory unit of traversal work
//   - FileRecord: a single search hit
//   - ProgressEvent: an item on the progress stream
//   - SkipEntry: one line of the audit log
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
