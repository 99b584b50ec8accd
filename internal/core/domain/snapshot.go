package domain

import "time"

// SnapshotEntry is a chunk annotated with its owning file.
type SnapshotEntry struct {
	Chunk Chunk
	File  FileRecord
}

// Snapshot is an immutable view of every loaded chunk.
// It is published by pointer swap and never mutated after publication.
type Snapshot struct {
	// ID is a time-sortable identifier for the load that produced it.
	ID string

	// Entries holds chunks in index order, then chunk position order.
	Entries []SnapshotEntry

	// LoadedAt is when the load completed.
	LoadedAt time.Time

	// Report summarises the load.
	Report ReloadReport

	generation uint64
}

// NewSnapshot creates a snapshot for the given cache generation.
func NewSnapshot(id string, entries []SnapshotEntry, generation uint64, report ReloadReport) *Snapshot {
	return &Snapshot{
		ID:         id,
		Entries:    entries,
		LoadedAt:   time.Now(),
		Report:     report,
		generation: generation,
	}
}

// Generation returns the cache generation the snapshot was loaded for.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// HasEmbeddings reports whether at least one entry carries an embedding.
func (s *Snapshot) HasEmbeddings() bool {
	if s == nil {
		return false
	}
	for i := range s.Entries {
		if s.Entries[i].Chunk.HasEmbedding() {
			return true
		}
	}
	return false
}

// EmbeddedCount returns the number of entries carrying an embedding.
func (s *Snapshot) EmbeddedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for i := range s.Entries {
		if s.Entries[i].Chunk.HasEmbedding() {
			n++
		}
	}
	return n
}

// FileFailure records a file skipped during a load.
type FileFailure struct {
	FileID string
	Reason string
}

// BatchFailure records an embedding batch that did not succeed.
type BatchFailure struct {
	// FileID is the file the batch belonged to.
	FileID string

	// Chunks is the number of chunks left without an embedding.
	Chunks int

	// Reason is the final error message.
	Reason string

	// Transient reports whether the failure was retryable.
	Transient bool
}

// EmbedReport summarises one EnsureEmbeddings pass.
type EmbedReport struct {
	// Requested is the number of chunks that lacked an embedding.
	Requested int

	// Embedded is the number of chunks that gained an embedding.
	Embedded int

	// Failures lists the batches that failed.
	Failures []BatchFailure

	// ProviderAvailable is false when the provider was missing or went down.
	ProviderAvailable bool

	// Halted is true when later batches were skipped because the provider
	// rejected the credentials or the call was cancelled.
	Halted bool
}

// Pending returns the number of chunks still lacking an embedding.
func (r EmbedReport) Pending() int {
	return r.Requested - r.Embedded
}

// ReloadReport summarises a full cache load.
type ReloadReport struct {
	// FilesLoaded is the number of visible files whose chunks were loaded.
	FilesLoaded int

	// FilesSkipped lists files whose chunk data could not be read.
	FilesSkipped []FileFailure

	// ChunksLoaded is the number of chunks published.
	ChunksLoaded int

	// ChunksEmbedded is the number of published chunks carrying an embedding.
	ChunksEmbedded int

	// ChunksPending is the number of published chunks without an embedding.
	ChunksPending int

	// EmbeddingFailures lists embedding batches that failed during the load.
	EmbeddingFailures []BatchFailure

	// ProviderAvailable is false when embeddings could not be generated at all.
	ProviderAvailable bool

	// Duration is how long the load took.
	Duration time.Duration
}

// Partial reports whether any file or embedding batch failed.
func (r ReloadReport) Partial() bool {
	return len(r.FilesSkipped) > 0 || len(r.EmbeddingFailures) > 0
}

// CacheStats describes the embedding cache state for status output.
type CacheStats struct {
	SnapshotID string
	Generation uint64
	Fresh      bool
	Chunks     int
	Embedded   int
	LoadedAt   time.Time
	Loads      uint64
	Report     ReloadReport
}
