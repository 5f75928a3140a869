package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const bankYAML = `
questions:
  - id: go-1
    text: Explain the GMP scheduler.
    category: Go
    tags: [concurrency]
    difficulty: 3
    followup_points: ["What happens on a blocking syscall?"]
    reference_answer: G is a goroutine, M an OS thread, P a logical processor.
  - id: redis-1
    text: How does Redis persist data?
    category: Redis
    difficulty: 2
  - text: What is a goroutine leak?
    category: go-runtime
  - id: blank
    text: "   "
    category: Go
`

func writeBank(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileStoreRetrieve(t *testing.T) {
	store := NewFileStore(writeBank(t, "bank.yaml", bankYAML))
	ctx := context.Background()

	records, err := store.Retrieve(ctx, Query{Category: "go"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "go-1", records[0].ID)
	require.Equal(t, DefaultDifficulty, records[1].Difficulty)
	require.NotEmpty(t, records[1].ID)

	byTag, err := store.Retrieve(ctx, Query{Category: "Concurrency"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	limited, err := store.Retrieve(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := store.Retrieve(ctx, Query{Category: "kafka"})
	require.NoError(t, err)
	require.Empty(t, none)

	require.Equal(t, 3, store.Len())
}

func TestFileStoreReference(t *testing.T) {
	store := NewFileStore(writeBank(t, "bank.yaml", bankYAML))

	ref, ok := store.Reference(context.Background(), "go-1")
	require.True(t, ok)
	require.Contains(t, ref, "logical processor")

	_, ok = store.Reference(context.Background(), "redis-1")
	require.False(t, ok)
}

func TestFileStoreAcceptsJSONList(t *testing.T) {
	path := writeBank(t, "bank.json", `[{"id":"mysql-1","text":"What is MVCC?","category":"MySQL","difficulty":4}]`)
	store := NewFileStore(path)

	records, err := store.Retrieve(context.Background(), Query{Category: "mysql"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 4, records[0].Difficulty)
}

func TestFileStoreUnavailable(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := store.Retrieve(context.Background(), Query{Category: "go"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnavailable))

	_, ok := store.Reference(context.Background(), "go-1")
	require.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore([]Record{{ID: "a", Text: "Q", Category: "Go"}})

	records, err := store.Retrieve(context.Background(), Query{Category: "go"})
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestFileStoreMatchesWholeWords(t *testing.T) {
	store := NewMemoryStore([]Record{
		{ID: "go", Text: "Q", Category: "Go"},
		{ID: "algo", Text: "Q", Category: "Algorithms"},
		{ID: "mongo", Text: "Q", Category: "databases", Tags: []string{"mongodb"}},
		{ID: "django", Text: "Q", Category: "Django"},
		{ID: "cpp", Text: "Q", Category: "C++"},
		{ID: "design", Text: "Q", Category: "backend", Tags: []string{"System Design basics"}},
	})
	ctx := context.Background()

	ids := func(q Query) []string {
		records, err := store.Retrieve(ctx, q)
		require.NoError(t, err)
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.ID)
		}
		return out
	}

	require.Equal(t, []string{"go"}, ids(Query{Category: "go"}))
	require.Equal(t, []string{"cpp"}, ids(Query{Category: "c++"}))
	require.Equal(t, []string{"design"}, ids(Query{Category: "system design"}))
	require.Equal(t, []string{"mongo"}, ids(Query{Category: "MongoDB"}))
}

func TestFileStoreDifficultyRangeBeforeLimit(t *testing.T) {
	records := make([]Record, 0, 65)
	for i := 0; i < 60; i++ {
		records = append(records, Record{Text: "hard", Category: "go", Difficulty: 4})
	}
	for i := 0; i < 5; i++ {
		records = append(records, Record{Text: "easy", Category: "go", Difficulty: 1})
	}
	store := NewMemoryStore(records)

	got, err := store.Retrieve(context.Background(), Query{Category: "go", MinDifficulty: 1, MaxDifficulty: 2, Limit: 50})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, r := range got {
		require.Equal(t, 1, r.Difficulty)
	}

	open, err := store.Retrieve(context.Background(), Query{Category: "go", Limit: 50})
	require.NoError(t, err)
	require.Len(t, open, 50)
}
