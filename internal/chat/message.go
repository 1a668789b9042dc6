// Package chat defines the conversation data model shared by the chat,
// agent, and retrieval workflows.
package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

var (
	// ErrEmptyMessages indicates an empty or missing message list.
	ErrEmptyMessages = errors.New("empty message list")

	// ErrInvalidRole indicates an unknown message role.
	ErrInvalidRole = errors.New("invalid message role")
)

// FunctionCall is the name and raw JSON arguments of a requested tool call.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a structured request from the model to invoke a named tool.
// ID correlates the call with its observation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant turns that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is set on tool turns and names the call this observation
	// answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Name is the tool name on tool turns.
	Name string `json:"name,omitempty"`
}

// ValidateMessages checks that the list is non-empty and every role is known.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return ErrEmptyMessages
	}
	for i, m := range messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		default:
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}

// SplitHistory separates the latest user utterance from the prior turns.
// Only user and assistant turns count as history; system and tool turns are
// dropped, matching what the retrieval workflows feed back to the model.
func SplitHistory(messages []Message) (history []Message, latest Message, err error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, Message{}, err
	}
	latest = messages[len(messages)-1]
	for _, m := range messages[:len(messages)-1] {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			history = append(history, m)
		}
	}
	return history, latest, nil
}

// FormatHistory renders history turns as "role: content" lines for prompt
// template substitution.
func FormatHistory(history []Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
