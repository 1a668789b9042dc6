package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockEmbedder produces deterministic unit-normalized vectors from text
// content. Identical texts map to identical vectors, so querying with a
// stored document's exact content yields similarity ~1.0.
type mockEmbedder struct {
	dim int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dim: 64}
}

func (m *mockEmbedder) embed(text string) []float32 {
	vec := make([]float32, m.dim)
	var norm float64
	for i := range vec {
		h := fnv.New32a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float32(h.Sum32()%2000)/1000.0 - 1.0
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

func (m *mockEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.embed(t)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return m.embed(text), nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Collection: "test_docs",
		VectorSize: 64,
	}, newMockEmbedder(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewChromemStoreRequiresEmbedder(t *testing.T) {
	_, err := NewChromemStore(ChromemConfig{}, nil, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestChromemConfigDefaults(t *testing.T) {
	cfg := ChromemConfig{}
	cfg.ApplyDefaults()
	assert.Equal(t, "chatd_documents", cfg.Collection)
	assert.Equal(t, 1536, cfg.VectorSize)
}

func TestChromemConfigValidate(t *testing.T) {
	cfg := ChromemConfig{Collection: "Invalid-Name", VectorSize: 64}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCollectionName)
}

func TestChromemAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "1", Content: "cats are small carnivorous mammals"},
		{ID: "2", Content: "the stock market closed higher today"},
		{ID: "3", Content: "rust and go are systems languages"},
	}
	ids, err := store.AddDocuments(ctx, docs)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	results, err := store.Search(ctx, "cats are small carnivorous mammals", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Exact content match should rank first with similarity ~1.0.
	assert.Equal(t, "1", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.001)
}

func TestChromemSearchOrderingAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "a", Content: "alpha document about retrieval"},
		{ID: "b", Content: "beta document about storage"},
		{ID: "c", Content: "gamma document about networks"},
		{ID: "d", Content: "delta document about compilers"},
	}
	_, err := store.AddDocuments(ctx, docs)
	require.NoError(t, err)

	results, err := store.Search(ctx, "document about retrieval", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score,
			"results must be ordered by descending similarity")
	}
}

func TestChromemSearchCapsKAtCollectionSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []Document{{ID: "only", Content: "single document"}})
	require.NoError(t, err)

	results, err := store.Search(ctx, "single", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx))

	results, err := store.Search(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemSearchValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "", 5)
	assert.Error(t, err)

	_, err = store.Search(ctx, "query", 0)
	assert.Error(t, err)
}

func TestChromemSearchWithFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "1", Content: "shared topic", Metadata: map[string]interface{}{"source": "wiki"}},
		{ID: "2", Content: "shared topic too", Metadata: map[string]interface{}{"source": "blog"}},
	}
	_, err := store.AddDocuments(ctx, docs)
	require.NoError(t, err)

	results, err := store.SearchWithFilters(ctx, "shared topic", 2,
		map[string]interface{}{"source": "wiki"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, "wiki", results[0].Metadata["source"])
}

func TestChromemAddEmptyDocuments(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestChromemGeneratesIDs(t *testing.T) {
	store := newTestStore(t)

	ids, err := store.AddDocuments(context.Background(), []Document{
		{Content: "no id given"},
		{Content: "also no id"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestChromemDeleteDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []Document{
		{ID: "keep", Content: "keep this one"},
		{ID: "drop", Content: "drop this one"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocuments(ctx, []string{"drop"}))

	info, err := store.CollectionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)
}

func TestChromemDeleteNoIDs(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.DeleteDocuments(context.Background(), nil))
}

func TestChromemCollectionInfo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx))

	info, err := store.CollectionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test_docs", info.Name)
	assert.Equal(t, 0, info.PointCount)
	assert.Equal(t, 64, info.VectorSize)
}

func TestChromemPersistence(t *testing.T) {
	dir := t.TempDir()
	embedder := newMockEmbedder()
	ctx := context.Background()

	store, err := NewChromemStore(ChromemConfig{
		Path:       dir,
		Collection: "persisted",
		VectorSize: 64,
	}, embedder, zap.NewNop())
	require.NoError(t, err)

	_, err = store.AddDocuments(ctx, []Document{{ID: "p1", Content: "persisted content"}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewChromemStore(ChromemConfig{
		Path:       dir,
		Collection: "persisted",
		VectorSize: 64,
	}, embedder, zap.NewNop())
	require.NoError(t, err)

	info, err := reopened.CollectionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)
}
