package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymmate-backend/internal/models"
)

type FoodLogRepo struct {
	pool *pgxpool.Pool
}

func NewFoodLogRepo(pool *pgxpool.Pool) *FoodLogRepo {
	return &FoodLogRepo{pool: pool}
}

func (r *FoodLogRepo) Create(ctx context.Context, log *models.FoodLog) error {
	query := `
		INSERT INTO food_logs (user_id, food_name, calories, protein, carbs, fats, scan_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		log.UserID, log.FoodName, log.Calories, log.Protein, log.Carbs, log.Fats, log.ScanDate,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListByDate returns a user's logs for one day, oldest first.
func (r *FoodLogRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.FoodLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, food_name, calories, protein, carbs, fats,
		       to_char(scan_date, 'YYYY-MM-DD'), created_at
		FROM food_logs
		WHERE user_id = $1 AND scan_date = $2::date
		ORDER BY created_at ASC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.FoodLog{}
	for rows.Next() {
		l := &models.FoodLog{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.FoodName, &l.Calories, &l.Protein, &l.Carbs, &l.Fats,
			&l.ScanDate, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
