package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymmate-backend/internal/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	m := &models.Match{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user1_id, user2_id, created_at FROM matches WHERE id = $1
	`, matchID).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MessageRepo) Create(ctx context.Context, msg *models.Message) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO messages (match_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, msg.MatchID, msg.SenderID, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *MessageRepo) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, match_id, sender_id, content, created_at
		FROM messages
		WHERE match_id = $1
		ORDER BY created_at ASC
	`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*models.Message{}
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
