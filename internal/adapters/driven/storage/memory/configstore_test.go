package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
	assert.NoError(t, store.Save())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	val, ok := store.Get("embedding.provider")
	assert.True(t, ok)
	assert.Equal(t, "ollama", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("search.limit", 5))
	require.NoError(t, store.Set("embedding.batch_size", int64(32)))
	require.NoError(t, store.Set("upload.max_size_mb", float64(20)))
	require.NoError(t, store.Set("search.min_similarity", 0.25))
	require.NoError(t, store.Set("embedding.enabled", true))
	require.NoError(t, store.Set("chunking.stopwords", []any{"curso", 3, "aula"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("search.mode"), "hybrid"},
		{"string wrong type", store.GetString("search.limit"), ""},
		{"int", store.GetInt("search.limit"), 5},
		{"int from int64", store.GetInt("embedding.batch_size"), 32},
		{"int from float64", store.GetInt("upload.max_size_mb"), 20},
		{"int wrong type", store.GetInt("search.mode"), 0},
		{"float", store.GetFloat("search.min_similarity"), 0.25},
		{"float from int", store.GetFloat("search.limit"), 5.0},
		{"float wrong type", store.GetFloat("search.mode"), 0.0},
		{"bool", store.GetBool("embedding.enabled"), true},
		{"bool wrong type", store.GetBool("search.mode"), false},
		{"string slice from any", store.GetStringSlice("chunking.stopwords"), []string{"curso", "aula"}},
		{"string slice missing", store.GetStringSlice("missing"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	assert.Empty(t, store.Keys())

	require.NoError(t, store.Set("search.limit", 5))
	require.NoError(t, store.Set("embedding.provider", "openai"))

	assert.Equal(t, []string{"embedding.provider", "search.limit"}, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 20)
}

func TestConfigStore_SetStoresTOMLTypes(t *testing.T) {
	store := NewConfigStore()

	tests := []struct {
		key  string
		in   any
		want any
	}{
		{"search.limit", 5, int64(5)},
		{"embedding.batch_size", int32(16), int64(16)},
		{"search.min_similarity", float32(0.5), float64(0.5)},
		{"chunking.stopwords", []string{"curso", "aula"}, []any{"curso", "aula"}},
		{"search.mode", "hybrid", "hybrid"},
		{"embedding.enabled", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, store.Set(tt.key, tt.in))
			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// Typed getters still read the widened values.
	assert.Equal(t, 5, store.GetInt("search.limit"))
	assert.Equal(t, []string{"curso", "aula"}, store.GetStringSlice("chunking.stopwords"))
}

func TestConfigStore_FailWrites(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("search.limit", 5))

	errDisk := errors.New("disk full")
	store.FailWrites(errDisk)

	assert.ErrorIs(t, store.Set("search.limit", 9), errDisk)
	assert.ErrorIs(t, store.Save(), errDisk)
	assert.Equal(t, 5, store.GetInt("search.limit"), "failed Set leaves the old value")

	store.FailWrites(nil)
	require.NoError(t, store.Set("search.limit", 9))
	assert.NoError(t, store.Save())
	assert.Equal(t, 9, store.GetInt("search.limit"))
}
