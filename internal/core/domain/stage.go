package domain

import (
	"path"
	"strings"
	"time"
)

// UnstagedDir is the storage directory for files without a stage.
const UnstagedDir = "_unstaged"

// Stage is an admin-controlled grouping that gates file visibility.
type Stage struct {
	// ID is the unique identifier for the stage.
	ID string

	// Name is the human-readable stage name.
	Name string

	// IsActive controls whether files in this stage are searchable.
	IsActive bool

	// CreatedAt is when the stage was created.
	CreatedAt time.Time

	// UpdatedAt is when the stage was last changed.
	UpdatedAt time.Time
}

// StageSet indexes stages by ID for visibility checks.
type StageSet map[string]Stage

// NewStageSet builds a StageSet from a list of stages.
func NewStageSet(stages []Stage) StageSet {
	set := make(StageSet, len(stages))
	for _, st := range stages {
		set[st.ID] = st
	}
	return set
}

// IsFileVisible reports whether a file may appear in search results.
// Files without a stage and files whose stage no longer exists are visible.
func IsFileVisible(file FileRecord, stages StageSet) bool {
	if !file.HasStage() {
		return true
	}
	st, ok := stages[*file.StageID]
	if !ok {
		return true
	}
	return st.IsActive
}

// ActiveFiles returns the visible subset of files, preserving order.
func ActiveFiles(files []FileRecord, stages StageSet) []FileRecord {
	active := make([]FileRecord, 0, len(files))
	for i := range files {
		if IsFileVisible(files[i], stages) {
			active = append(active, files[i])
		}
	}
	return active
}

// StageDir returns the storage directory name for files in stage.
// A nil stage maps to UnstagedDir. Names are reduced to lower-case ASCII
// letters, digits and dashes.
func StageDir(stage *Stage) string {
	if stage == nil {
		return UnstagedDir
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(stage.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "stage-" + stage.ID
	}
	return slug
}

// OriginalPath returns the data-relative path of an uploaded original.
func OriginalPath(stageDir, fileID, ext string) string {
	return path.Join("files", stageDir, fileID+ext)
}

// ChunkDataPath returns the data-relative path of the chunk data stored
// next to the original at storagePath.
func ChunkDataPath(storagePath string) string {
	return strings.TrimSuffix(storagePath, path.Ext(storagePath)) + ".chunks.json"
}
