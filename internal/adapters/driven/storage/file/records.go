package file

import (
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// indexFile is the on-disk shape of index.json.
type indexFile struct {
	Version     int          `json:"version"`
	LastUpdated time.Time    `json:"last_updated"`
	Files       []fileRecord `json:"files"`
}

type fileRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Type         string    `json:"type"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	ChunkCount   int       `json:"chunk_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
	StageID      *string   `json:"stage_id,omitempty"`
	StoragePath  string    `json:"storage_path"`
	Checksum     string    `json:"checksum,omitempty"`
}

// chunkFile is the on-disk shape of <id>.chunks.json.
type chunkFile struct {
	FileID      string        `json:"file_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Chunks      []chunkRecord `json:"chunks"`
}

type chunkRecord struct {
	ID                 string    `json:"id"`
	Position           int       `json:"position"`
	Text               string    `json:"text"`
	Keywords           []string  `json:"keywords,omitempty"`
	IsQuestionAnswer   bool      `json:"is_question_answer,omitempty"`
	Embedding          []float32 `json:"embedding,omitempty"`
	EmbeddingGenerated bool      `json:"embedding_generated"`
	EmbeddingProvider  string    `json:"embedding_provider,omitempty"`
}

const indexVersion = 1

func toIndexFile(idx *domain.Index) indexFile {
	out := indexFile{
		Version:     indexVersion,
		LastUpdated: idx.LastUpdated,
		Files:       make([]fileRecord, len(idx.Files)),
	}
	for i, f := range idx.Files {
		out.Files[i] = fileRecord{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			Type:         string(f.Type),
			Extension:    f.Extension,
			Size:         f.Size,
			ChunkCount:   f.ChunkCount,
			UploadedAt:   f.UploadedAt,
			StageID:      f.StageID,
			StoragePath:  f.StoragePath,
			Checksum:     f.Checksum,
		}
	}
	return out
}

func (f indexFile) toDomain() *domain.Index {
	idx := &domain.Index{
		LastUpdated: f.LastUpdated,
		Files:       make([]domain.FileRecord, 0, len(f.Files)),
	}
	for _, r := range f.Files {
		idx.Files = append(idx.Files, domain.FileRecord{
			ID:           r.ID,
			OriginalName: r.OriginalName,
			Type:         domain.FileType(r.Type),
			Extension:    r.Extension,
			Size:         r.Size,
			ChunkCount:   r.ChunkCount,
			UploadedAt:   r.UploadedAt,
			StageID:      r.StageID,
			StoragePath:  r.StoragePath,
			Checksum:     r.Checksum,
		})
	}
	return idx
}

func toChunkFile(data *domain.ChunkData) chunkFile {
	out := chunkFile{
		FileID:      data.FileID,
		GeneratedAt: data.GeneratedAt,
		Chunks:      make([]chunkRecord, len(data.Chunks)),
	}
	for i := range data.Chunks {
		c := data.Chunks[i]
		c.Normalise()
		out.Chunks[i] = chunkRecord{
			ID:                 c.ID,
			Position:           c.Position,
			Text:               c.Text,
			Keywords:           c.Keywords,
			IsQuestionAnswer:   c.IsQuestionAnswer,
			Embedding:          c.Embedding,
			EmbeddingGenerated: c.EmbeddingGenerated,
			EmbeddingProvider:  c.EmbeddingProvider,
		}
	}
	return out
}

func (f chunkFile) toDomain() *domain.ChunkData {
	data := &domain.ChunkData{
		FileID:      f.FileID,
		GeneratedAt: f.GeneratedAt,
		Chunks:      make([]domain.Chunk, len(f.Chunks)),
	}
	for i, r := range f.Chunks {
		c := domain.Chunk{
			ID:                 r.ID,
			FileID:             f.FileID,
			Position:           r.Position,
			Text:               r.Text,
			Keywords:           r.Keywords,
			IsQuestionAnswer:   r.IsQuestionAnswer,
			Embedding:          r.Embedding,
			EmbeddingGenerated: r.EmbeddingGenerated,
			EmbeddingProvider:  r.EmbeddingProvider,
		}
		c.Normalise()
		data.Chunks[i] = c
	}
	return data
}
