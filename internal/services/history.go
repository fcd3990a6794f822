package services

import (
	"github.com/google/generative-ai-go/genai"

	"gymmate-backend/internal/models"
)

type HistoryMode string

const (
	// HistoryFull sends every prior turn, minus a leading model turn.
	HistoryFull HistoryMode = "full"
	// HistoryNone sends only the newest turn.
	HistoryNone HistoryMode = "none"
)

const (
	geminiRoleUser  = "user"
	geminiRoleModel = "model"
)

// BuildChatHistory splits a conversation into the session history and the new input.
// The last turn is always the new input, whatever its declared role. Gemini rejects
// sessions that open with a model turn, so a leading one is dropped (once, not recursively).
func BuildChatHistory(messages []models.ChatMessage, mode HistoryMode) ([]*genai.Content, string) {
	if len(messages) == 0 {
		return nil, ""
	}

	input := messages[len(messages)-1].Content
	if mode == HistoryNone {
		return []*genai.Content{}, input
	}

	prior := messages[:len(messages)-1]
	history := make([]*genai.Content, 0, len(prior))
	for _, msg := range prior {
		history = append(history, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	if len(history) > 0 && history[0].Role == geminiRoleModel {
		history = history[1:]
	}

	return history, input
}

func geminiRole(role models.Role) string {
	if role == models.RoleAssistant {
		return geminiRoleModel
	}
	return geminiRoleUser
}
