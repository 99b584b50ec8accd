package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType is the declared family of an uploaded file.
type FileType string

// Available file types.
const (
	// FileTypeText covers plain text formats read as-is.
	FileTypeText FileType = "text"

	// FileTypeDocument covers structured formats that need extraction (PDF, DOCX, HTML).
	FileTypeDocument FileType = "document"
)

// IsValid returns true if the file type is recognised.
func (t FileType) IsValid() bool {
	return t == FileTypeText || t == FileTypeDocument
}

// String returns the string representation.
func (t FileType) String() string {
	return string(t)
}

// supportedExtensions maps accepted extensions to their file type.
var supportedExtensions = map[string]FileType{
	".txt":  FileTypeText,
	".md":   FileTypeText,
	".csv":  FileTypeText,
	".json": FileTypeText,
	".html": FileTypeDocument,
	".htm":  FileTypeDocument,
	".pdf":  FileTypeDocument,
	".docx": FileTypeDocument,
}

// FileTypeForExtension returns the file type for an extension such as ".pdf".
// The boolean is false when the extension is not accepted for upload.
func FileTypeForExtension(ext string) (FileType, bool) {
	t, ok := supportedExtensions[strings.ToLower(ext)]
	return t, ok
}

// SupportedExtensions returns every accepted upload extension.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// FileRecord is the index entry for an uploaded file.
type FileRecord struct {
	// ID is the unique, stable identifier for the file.
	ID string

	// OriginalName is the file name as uploaded.
	OriginalName string

	// Type is the declared file family.
	Type FileType

	// Extension is the lower-cased extension including the dot.
	Extension string

	// Size is the original payload size in bytes.
	Size int64

	// ChunkCount is the number of chunks extracted from the file.
	ChunkCount int

	// UploadedAt is when the file was accepted.
	UploadedAt time.Time

	// StageID links to the Stage gating this file. Nil means always visible.
	StageID *string

	// StoragePath is the location of the original, relative to the data directory.
	StoragePath string

	// Checksum is the hex digest of the original bytes.
	Checksum string
}

// HasStage reports whether the file is assigned to a stage.
func (f FileRecord) HasStage() bool {
	return f.StageID != nil && *f.StageID != ""
}

// Title returns a display title derived from the original name.
func (f FileRecord) Title() string {
	name := filepath.Base(f.OriginalName)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Chunk is a searchable segment of a file's text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// FileID links to the owning FileRecord.
	FileID string

	// Position is the ordinal position within the file.
	Position int

	// Text is the normalised chunk text.
	Text string

	// Keywords is the deduplicated, stopword-filtered keyword set.
	Keywords []string

	// IsQuestionAnswer marks chunks produced by the question/answer scan.
	IsQuestionAnswer bool

	// Embedding is the vector representation. Present iff EmbeddingGenerated.
	Embedding []float32

	// EmbeddingGenerated reports whether Embedding holds a provider vector.
	EmbeddingGenerated bool

	// EmbeddingProvider names the provider/model that produced the embedding.
	EmbeddingProvider string
}

// HasEmbedding reports whether the chunk carries a usable vector.
func (c Chunk) HasEmbedding() bool {
	return c.EmbeddingGenerated && len(c.Embedding) > 0
}

// Normalise enforces that an embedding is present iff EmbeddingGenerated.
// Data read from disk may violate this after a partial write or a manual edit.
func (c *Chunk) Normalise() {
	if !c.EmbeddingGenerated || len(c.Embedding) == 0 {
		c.StripEmbedding()
	}
}

// StripEmbedding removes any embedding from the chunk.
func (c *Chunk) StripEmbedding() {
	c.Embedding = nil
	c.EmbeddingGenerated = false
	c.EmbeddingProvider = ""
}

// SetEmbedding attaches a provider vector to the chunk.
func (c *Chunk) SetEmbedding(vec []float32, provider string) {
	if len(vec) == 0 {
		c.StripEmbedding()
		return
	}
	c.Embedding = vec
	c.EmbeddingGenerated = true
	c.EmbeddingProvider = provider
}

// ChunkData is the per-file chunk record persisted next to the original.
type ChunkData struct {
	// FileID links to the owning FileRecord.
	FileID string

	// Chunks is the ordered chunk list.
	Chunks []Chunk

	// GeneratedAt is when the chunk list was last written.
	GeneratedAt time.Time
}

// EmbeddedCount returns the number of chunks carrying an embedding.
func (d *ChunkData) EmbeddedCount() int {
	n := 0
	for i := range d.Chunks {
		if d.Chunks[i].HasEmbedding() {
			n++
		}
	}
	return n
}

// Index is the ordered collection of file records.
type Index struct {
	// Files holds records in upload order.
	Files []FileRecord

	// LastUpdated is when the index was last written.
	LastUpdated time.Time
}

// Find returns the position of a file in the index, or -1.
func (idx *Index) Find(id string) int {
	for i := range idx.Files {
		if idx.Files[i].ID == id {
			return i
		}
	}
	return -1
}

// UploadRequest carries an upload into the document service.
type UploadRequest struct {
	// Name is the original file name, used for the extension check.
	Name string

	// Content is the raw payload.
	Content []byte

	// DeclaredType is the caller's claimed file family. Empty infers it from the extension.
	DeclaredType FileType

	// StageID optionally assigns the file to a stage.
	StageID *string
}
