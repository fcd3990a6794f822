package models

import (
	"encoding/json"
	"fmt"
)

// Role tags who authored a chat turn. Only two values are accepted on the wire.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON rejects entries without a role or content and any role other than user/assistant.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    *string `json:"role"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Role == nil {
		return fmt.Errorf("message role is required")
	}
	if raw.Content == nil {
		return fmt.Errorf("message content is required")
	}

	switch Role(*raw.Role) {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("unsupported message role %q", *raw.Role)
	}

	m.Role = Role(*raw.Role)
	m.Content = *raw.Content
	return nil
}

// ChatRequest is the payload sent to the Pulse chat endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatResponse is the non-streaming reply.
type ChatResponse struct {
	Text string `json:"text"`
}

// StreamEvent is the JSON object carried by one `data: ` line of the event stream.
type StreamEvent struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}
