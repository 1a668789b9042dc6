package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

// recordingStore captures AddDocuments calls without a real backend.
type recordingStore struct {
	vectorstore.Store
	added []vectorstore.Document
}

func (r *recordingStore) AddDocuments(_ context.Context, docs []vectorstore.Document) ([]string, error) {
	r.added = append(r.added, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].Content[:min(8, len(docs[i].Content))]
	}
	return ids, nil
}

func newTestService(t *testing.T, store vectorstore.Store) *Service {
	t.Helper()
	svc, err := NewService(store, Config{ChunkSize: 64, ChunkOverlap: 8}, nil)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(nil, Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults valid", Config{ChunkSize: 256, ChunkOverlap: 20}, false},
		{"zero overlap", Config{ChunkSize: 100, ChunkOverlap: 0}, false},
		{"negative overlap", Config{ChunkSize: 100, ChunkOverlap: -1}, true},
		{"overlap >= size", Config{ChunkSize: 100, ChunkOverlap: 100}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIngestTextSplitsAndStores(t *testing.T) {
	store := &recordingStore{}
	svc := newTestService(t, store)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
	ids, err := svc.IngestText(context.Background(), text, map[string]interface{}{"source": "test"})
	require.NoError(t, err)

	assert.Greater(t, len(ids), 1, "long text should produce multiple chunks")
	require.Equal(t, len(ids), len(store.added))

	for i, doc := range store.added {
		assert.LessOrEqual(t, len(doc.Content), 64)
		assert.Equal(t, "test", doc.Metadata["source"])
		assert.Equal(t, i, doc.Metadata["chunk_index"])
		assert.NotEmpty(t, doc.Metadata["ingested_at"])
	}
}

func TestIngestTextShortInputSingleChunk(t *testing.T) {
	store := &recordingStore{}
	svc := newTestService(t, store)

	ids, err := svc.IngestText(context.Background(), "The sky is blue.", nil)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Equal(t, "The sky is blue.", store.added[0].Content)
}

func TestIngestTextEmpty(t *testing.T) {
	svc := newTestService(t, &recordingStore{})

	_, err := svc.IngestText(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestIngestFile(t *testing.T) {
	store := &recordingStore{}
	svc := newTestService(t, store)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Go is a statically typed language."), 0o644))

	ids, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	assert.Equal(t, "notes.txt", store.added[0].Metadata["source"])
}

func TestIngestFileMissing(t *testing.T) {
	svc := newTestService(t, &recordingStore{})

	_, err := svc.IngestFile(context.Background(), "/nonexistent/file.txt")
	assert.Error(t, err)
}
