package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/chatd/internal/rag"
	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

type scriptedStore struct {
	vectorstore.Store
	results []vectorstore.SearchResult
	queries []string
}

func (s *scriptedStore) SearchWithFilters(_ context.Context, query string, k int, _ map[string]interface{}) ([]vectorstore.SearchResult, error) {
	s.queries = append(s.queries, query)
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

func TestRetrieverToolCall(t *testing.T) {
	store := &scriptedStore{results: []vectorstore.SearchResult{
		{Content: "The sky is blue.", Score: 0.95},
		{Content: "Water is wet.", Score: 0.5},
	}}
	retriever, err := rag.NewRetriever(store, 6, nil)
	require.NoError(t, err)

	tool, err := NewRetrieverTool(retriever)
	require.NoError(t, err)

	observation, err := tool.Call(context.Background(), `{"query":"what color is the sky?"}`)
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.\n\nWater is wet.", observation)
	require.Len(t, store.queries, 1)
	assert.Equal(t, "what color is the sky?", store.queries[0])
}

func TestRetrieverToolNoResults(t *testing.T) {
	retriever, err := rag.NewRetriever(&scriptedStore{}, 6, nil)
	require.NoError(t, err)
	tool, err := NewRetrieverTool(retriever)
	require.NoError(t, err)

	observation, err := tool.Call(context.Background(), `{"query":"anything"}`)
	require.NoError(t, err)
	assert.Equal(t, "No relevant passages found.", observation)
}

func TestRetrieverToolValidation(t *testing.T) {
	retriever, err := rag.NewRetriever(&scriptedStore{}, 6, nil)
	require.NoError(t, err)
	tool, err := NewRetrieverTool(retriever)
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{"query":""}`)
	assert.Error(t, err)

	_, err = tool.Call(context.Background(), `nope`)
	assert.Error(t, err)

	_, err = NewRetrieverTool(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
