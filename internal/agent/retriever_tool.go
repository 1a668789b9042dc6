package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/chatd/internal/rag"
)

// RetrieverTool exposes the vector store to the agent as a search tool.
type RetrieverTool struct {
	retriever *rag.Retriever
}

// NewRetrieverTool creates a search tool over the given retriever.
func NewRetrieverTool(retriever *rag.Retriever) (*RetrieverTool, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", ErrInvalidConfig)
	}
	return &RetrieverTool{retriever: retriever}, nil
}

// Name implements Tool.
func (t *RetrieverTool) Name() string { return "search_knowledge_base" }

// Description implements Tool.
func (t *RetrieverTool) Description() string {
	return "Searches the knowledge base for passages relevant to a query. Use before answering questions about stored documents."
}

// Parameters implements Tool.
func (t *RetrieverTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool. The observation is the retrieved passages joined
// with blank lines, or a fixed no-results notice.
func (t *RetrieverTool) Call(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("parsing search arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	results, err := t.retriever.Retrieve(ctx, args.Query, nil)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No relevant passages found.", nil
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Content
	}
	return strings.Join(passages, "\n\n"), nil
}

var _ Tool = (*RetrieverTool)(nil)
