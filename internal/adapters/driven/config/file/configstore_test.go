package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// reopen loads a second store from the same directory.
func reopen(t *testing.T, store *ConfigStore) *ConfigStore {
	t.Helper()
	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	return reloaded
}

func TestNewConfigStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "kb")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName, "config.toml"), store.Path())
}

func TestNewConfigStore_Errors(t *testing.T) {
	t.Run("directory cannot be created", func(t *testing.T) {
		store, err := NewConfigStore("/dev/null/cannot/create/dirs")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[search\nlimit = "), 0600))

		store, err := NewConfigStore(dir)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("search.limit", 8))
	require.NoError(t, store.Set("search.min_similarity", 0.35))
	require.NoError(t, store.Set("embedding.enabled", true))
	require.NoError(t, store.Set("embedding.requests_per_second", 5))
	require.NoError(t, store.Set("chunking.stopwords", []string{"the", "a"}))

	// Values read back after a round trip through TOML, where integers
	// become int64 and arrays become []any.
	for name, s := range map[string]*ConfigStore{"in memory": store, "reloaded": reopen(t, store)} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "hybrid", s.GetString("search.mode"))
			assert.Equal(t, 8, s.GetInt("search.limit"))
			assert.InDelta(t, 0.35, s.GetFloat("search.min_similarity"), 1e-9)
			assert.InDelta(t, 5.0, s.GetFloat("embedding.requests_per_second"), 1e-9)
			assert.True(t, s.GetBool("embedding.enabled"))
			assert.Equal(t, []string{"the", "a"}, s.GetStringSlice("chunking.stopwords"))
		})
	}
}

func TestConfigStore_TypedGetters_WrongTypeOrMissing(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("search.mode", "keyword"))
	require.NoError(t, store.Set("search.limit", 5))

	assert.Empty(t, store.GetString("search.limit"))
	assert.Zero(t, store.GetInt("search.mode"))
	assert.Zero(t, store.GetFloat("search.mode"))
	assert.False(t, store.GetBool("search.limit"))
	assert.Nil(t, store.GetStringSlice("search.mode"))

	val, ok := store.Get("embedding.model")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Empty(t, store.GetString("embedding.model"))
	assert.Zero(t, store.GetFloat("embedding.model"))
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.provider", "openai"))

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "openai", reopen(t, store).GetString("embedding.provider"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("search.limit", 5))
	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("retry.max_attempts", 4))

	want := []string{"embedding.provider", "retry.max_attempts", "search.limit"}
	assert.Equal(t, want, store.Keys())
	assert.Equal(t, want, reopen(t, store).Keys())
}

func TestConfigStore_WritesTables(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("search.limit", 5))
	require.NoError(t, store.Set("search.mode", "keyword"))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "[search]")
	assert.Contains(t, content, "[embedding]")
	assert.NotContains(t, content, "'search.limit'")
	assert.NotContains(t, content, `"search.limit"`)
}

func TestConfigStore_HandEditedFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[search]
mode = "semantic"
limit = 3

[embedding]
provider = "ollama"
model = "nomic-embed-text"

[retry]
max_attempts = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "semantic", store.GetString("search.mode"))
	assert.Equal(t, 3, store.GetInt("search.limit"))
	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 2, store.GetInt("retry.max_attempts"))
}

func TestNestMap(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "groups by prefix",
			flat: map[string]any{"search.limit": 5, "search.mode": "keyword", "top": true},
			want: map[string]any{
				"search": map[string]any{"limit": 5, "mode": "keyword"},
				"top":    true,
			},
		},
		{
			name: "deep keys",
			flat: map[string]any{"a.b.c": 1},
			want: map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}},
		},
		{
			name: "scalar parent keeps child flat",
			flat: map[string]any{"search": "x", "search.limit": 5},
			want: map[string]any{"search": "x", "search.limit": 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nestMap(tt.flat)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.flat, flattenMap(got, ""))
		})
	}
}

func TestConfigStore_ScalarParentSurvivesReload(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("search", "legacy"))
	require.NoError(t, store.Set("search.limit", 5))

	reloaded := reopen(t, store)
	assert.Equal(t, "legacy", reloaded.GetString("search"))
	assert.Equal(t, 5, reloaded.GetInt("search.limit"))
}

func TestConfigStore_Save(t *testing.T) {
	store := newStore(t)

	store.mu.Lock()
	store.data["embedding.model"] = "text-embedding-3-small"
	store.mu.Unlock()

	require.NoError(t, store.Save())
	assert.Equal(t, "text-embedding-3-small", reopen(t, store).GetString("embedding.model"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("embedding.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveErrors(t *testing.T) {
	t.Run("value cannot be encoded", func(t *testing.T) {
		store := newStore(t)
		assert.Error(t, store.Set("search.hook", make(chan int)))
	})

	t.Run("path is a directory", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("search.limit", 5))
		require.NoError(t, os.Remove(store.Path()))
		require.NoError(t, os.Mkdir(store.Path(), 0700))

		assert.Error(t, store.Set("search.mode", "keyword"))
	})
}

func TestConfigStore_Load(t *testing.T) {
	t.Run("missing file resets to empty", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("search.limit", 5))
		require.NoError(t, os.Remove(store.Path()))

		require.NoError(t, store.Load())
		assert.Empty(t, store.Keys())
	})

	t.Run("empty file", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, os.WriteFile(store.Path(), nil, 0600))

		require.NoError(t, store.Load())
		assert.Empty(t, store.Keys())
	})

	t.Run("invalid TOML", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, os.WriteFile(store.Path(), []byte("limit = ]["), 0600))

		assert.Error(t, store.Load())
	})

	t.Run("unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		store := newStore(t)
		require.NoError(t, store.Set("search.limit", 5))
		require.NoError(t, os.Chmod(store.Path(), 0000))
		t.Cleanup(func() { _ = os.Chmod(store.Path(), 0600) })

		err := store.Load()
		require.Error(t, err)
		assert.False(t, os.IsNotExist(err))
	})
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("search.limit", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.limit")
			_ = store.Keys()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"search.limit"}, store.Keys())
}
