package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_Counts(t *testing.T) {
	snap := NewSnapshot("01J", []SnapshotEntry{
		{Chunk: Chunk{ID: "c1", Embedding: []float32{1}, EmbeddingGenerated: true}},
		{Chunk: Chunk{ID: "c2"}},
	}, 7, ReloadReport{})

	assert.Equal(t, 2, snap.Len())
	assert.True(t, snap.HasEmbeddings())
	assert.Equal(t, 1, snap.EmbeddedCount())
	assert.Equal(t, uint64(7), snap.Generation())
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestSnapshot_NilSafe(t *testing.T) {
	var snap *Snapshot
	assert.Equal(t, 0, snap.Len())
	assert.False(t, snap.HasEmbeddings())
	assert.Equal(t, 0, snap.EmbeddedCount())
}

func TestReloadReport_Partial(t *testing.T) {
	assert.False(t, ReloadReport{}.Partial())
	assert.True(t, ReloadReport{FilesSkipped: []FileFailure{{FileID: "f"}}}.Partial())
	assert.True(t, ReloadReport{EmbeddingFailures: []BatchFailure{{FileID: "f"}}}.Partial())
}

func TestEmbedReport_Pending(t *testing.T) {
	assert.Equal(t, 3, EmbedReport{Requested: 5, Embedded: 2}.Pending())
}
