package repo

import (
	"context"
	"database/sql"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
)

type PostgresFavoritesRepo struct {
	db *sql.DB
}

func NewPostgresFavoritesRepo(db *sql.DB) *PostgresFavoritesRepo {
	return &PostgresFavoritesRepo{db: db}
}

func (r *PostgresFavoritesRepo) Add(ctx context.Context, destination, displayName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (destination, display_name, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (destination) DO UPDATE SET display_name = EXCLUDED.display_name
	`, destination, displayName)
	return err
}

func (r *PostgresFavoritesRepo) Remove(ctx context.Context, destination string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE destination = $1
	`, destination)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresFavoritesRepo) List(ctx context.Context) ([]model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT destination, display_name, created_at
		FROM favorites
		ORDER BY display_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.Destination, &f.DisplayName, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
