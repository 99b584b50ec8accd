// Package domain defines the core business entities for the sercha-kb
// knowledge base.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileRecord: An uploaded file and its index metadata
//   - Chunk: A searchable unit extracted from a file
//   - Stage: An admin-controlled group that gates file visibility
//   - Snapshot: An immutable, published view of every loaded chunk
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
