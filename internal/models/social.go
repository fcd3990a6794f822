package models

import (
	"time"

	"github.com/google/uuid"
)

// PulseChat is one persisted turn of a user's conversation with Pulse.
type PulseChat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SavePulseChatRequest struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Match struct {
	ID        uuid.UUID `json:"id"`
	User1ID   uuid.UUID `json:"user1_id"`
	User2ID   uuid.UUID `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is one side of the match.
func (m *Match) HasParticipant(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	MatchID   uuid.UUID `json:"match_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type Subscription struct {
	UserID    uuid.UUID `json:"user_id"`
	Plan      string    `json:"plan"` // "free" | "pro" | "elite"
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
