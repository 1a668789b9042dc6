package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/config"
)

func TestNewStoreUnknownProvider(t *testing.T) {
	_, err := NewStore(context.Background(), config.VectorStoreConfig{
		Provider:   "sqlite",
		Collection: "docs",
		VectorSize: 64,
	}, newMockEmbedder(), zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewStoreChromemDefault(t *testing.T) {
	store, err := NewStore(context.Background(), config.VectorStoreConfig{
		Provider:   "chromem",
		Collection: "factory_docs",
		VectorSize: 64,
	}, newMockEmbedder(), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	// EnsureCollection runs during construction, so info is available.
	info, err := store.CollectionInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "factory_docs", info.Name)
}
