package repo

import (
	"context"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
)

type FavoritesRepository interface {
	// Add pins a destination; re-adding updates the display name.
	Add(ctx context.Context, destination, displayName string) error

	// Remove unpins a destination. ErrNotFound if it was not pinned.
	Remove(ctx context.Context, destination string) error

	// List returns all favorites ordered by display name.
	List(ctx context.Context) ([]model.Favorite, error)
}
