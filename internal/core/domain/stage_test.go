package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestIsFileVisible(t *testing.T) {
	stages := NewStageSet([]Stage{
		{ID: "active", Name: "Active", IsActive: true},
		{ID: "inactive", Name: "Inactive", IsActive: false},
	})

	tests := []struct {
		name     string
		file     FileRecord
		expected bool
	}{
		{"no stage", FileRecord{ID: "f1"}, true},
		{"empty stage id", FileRecord{ID: "f2", StageID: strPtr("")}, true},
		{"active stage", FileRecord{ID: "f3", StageID: strPtr("active")}, true},
		{"inactive stage", FileRecord{ID: "f4", StageID: strPtr("inactive")}, false},
		{"orphaned stage", FileRecord{ID: "f5", StageID: strPtr("deleted")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFileVisible(tt.file, stages))
		})
	}
}

func TestIsFileVisible_NilStageSet(t *testing.T) {
	assert.True(t, IsFileVisible(FileRecord{StageID: strPtr("s1")}, nil))
}

func TestActiveFiles_PreservesOrder(t *testing.T) {
	stages := NewStageSet([]Stage{{ID: "off", IsActive: false}})
	files := []FileRecord{
		{ID: "a"},
		{ID: "b", StageID: strPtr("off")},
		{ID: "c", StageID: strPtr("gone")},
		{ID: "d"},
	}

	active := ActiveFiles(files, stages)

	ids := make([]string, len(active))
	for i := range active {
		ids[i] = active[i].ID
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func TestStageDir(t *testing.T) {
	tests := []struct {
		name     string
		stage    *Stage
		expected string
	}{
		{"nil stage", nil, UnstagedDir},
		{"simple", &Stage{ID: "1", Name: "Admissions"}, "admissions"},
		{"spaces and symbols", &Stage{ID: "2", Name: "  Term 2 / Finals!"}, "term-2-finals"},
		{"no usable characters", &Stage{ID: "3", Name: "¿¡?"}, "stage-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StageDir(tt.stage))
		})
	}
}

func TestStoragePaths(t *testing.T) {
	p := OriginalPath("admissions", "abc", ".pdf")
	assert.Equal(t, "files/admissions/abc.pdf", p)
	assert.Equal(t, "files/admissions/abc.chunks.json", ChunkDataPath(p))
}
