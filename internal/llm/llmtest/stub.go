// Package llmtest provides a scripted chat model double for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Response is one scripted model turn.
type Response struct {
	// Content is the free-text completion. When a StreamingFunc is set on
	// the call, Content is delivered through it in small chunks first.
	Content string

	// ToolCalls are tool invocations the model requests this turn.
	ToolCalls []llms.ToolCall

	// StopReason reported for the turn. Defaults to "stop", or "tool_calls"
	// when ToolCalls is non-empty.
	StopReason string

	// Err aborts the turn with this error.
	Err error
}

// StubModel implements llms.Model with a scripted sequence of responses.
// Each GenerateContent call consumes the next Response; calls past the end
// of the script fail. Safe for concurrent use.
type StubModel struct {
	mu        sync.Mutex
	responses []Response
	calls     [][]llms.MessageContent
	callOpts  []llms.CallOptions
}

// NewStubModel creates a StubModel that plays back the given responses in order.
func NewStubModel(responses ...Response) *StubModel {
	return &StubModel{responses: responses}
}

// GenerateContent returns the next scripted response.
func (m *StubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	m.calls = append(m.calls, messages)
	m.callOpts = append(m.callOpts, opts)

	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("stub model: no scripted response for call %d", len(m.calls))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Err != nil {
		return nil, resp.Err
	}

	if opts.StreamingFunc != nil && resp.Content != "" {
		for _, chunk := range splitChunks(resp.Content, 8) {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	stop := resp.StopReason
	if stop == "" {
		if len(resp.ToolCalls) > 0 {
			stop = "tool_calls"
		} else {
			stop = "stop"
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    resp.Content,
			StopReason: stop,
			ToolCalls:  resp.ToolCalls,
		}},
	}, nil
}

// Call implements the deprecated single-prompt entry point.
func (m *StubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// Calls returns the message histories passed to GenerateContent, in order.
func (m *StubModel) Calls() [][]llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]llms.MessageContent(nil), m.calls...)
}

// CallCount returns how many times GenerateContent was invoked.
func (m *StubModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallOptions returns the resolved options for each call, in order.
func (m *StubModel) CallOptions() []llms.CallOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llms.CallOptions(nil), m.callOpts...)
}

func splitChunks(s string, size int) []string {
	var chunks []string
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

var _ llms.Model = (*StubModel)(nil)
