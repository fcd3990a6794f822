package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymmate-backend/internal/models"
)

type PulseChatRepo struct {
	pool *pgxpool.Pool
}

func NewPulseChatRepo(pool *pgxpool.Pool) *PulseChatRepo {
	return &PulseChatRepo{pool: pool}
}

func (r *PulseChatRepo) Save(ctx context.Context, c *models.PulseChat) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO pulse_chats (user_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.UserID, c.Role, c.Content).Scan(&c.ID, &c.CreatedAt)
}

// ListRecent returns the newest limit turns in chronological order.
func (r *PulseChatRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PulseChat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, role, content, created_at FROM (
			SELECT id, user_id, role, content, created_at
			FROM pulse_chats
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []*models.PulseChat{}
	for rows.Next() {
		c := &models.PulseChat{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Role, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
