package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// loadUser fetches and normalizes one user. party names the role of the id
// in the error ("user", "friend").
func loadUser(ctx context.Context, store storage.Store, id, party string, now time.Time) (*domain.User, error) {
	doc, err := store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrUserNotFound, party, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", party, id, err)
	}

	u := domain.Normalize(doc.ID, doc.Data, now)
	return &u, nil
}
