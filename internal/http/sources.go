package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

// sourcePreviewLength bounds the pageContent preview carried in the
// x-sources header; the header travels with every response, so full chunks
// would bloat it.
const sourcePreviewLength = 50

// Headers carried alongside streamed retrieval answers.
const (
	headerMessageIndex = "x-message-index"
	headerSources      = "x-sources"
)

// sourceDocument is the wire shape of one retrieved source in x-sources.
type sourceDocument struct {
	PageContent string                 `json:"pageContent"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// encodeSources renders retrieval results as base64(JSON array) for the
// x-sources header, truncating each preview.
func encodeSources(results []vectorstore.SearchResult) (string, error) {
	docs := make([]sourceDocument, len(results))
	for i, r := range results {
		preview := r.Content
		if len(preview) > sourcePreviewLength {
			preview = preview[:sourcePreviewLength] + "..."
		}
		metadata := r.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		docs[i] = sourceDocument{PageContent: preview, Metadata: metadata}
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encoding sources: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
