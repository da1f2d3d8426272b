package service

import (
	"context"
	"fmt"
	"time"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// UserService handles read access to user records
type UserService struct {
	store storage.Store
	now   func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(store storage.Store) *UserService {
	return &UserService{
		store: store,
		now:   time.Now,
	}
}

// ListUsers returns every user in store iteration order
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, domain.Normalize(doc.ID, doc.Data, now))
	}
	return users, nil
}

// GetUser retrieves one user by id
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return loadUser(ctx, s.store, id, "user", s.now())
}

// ComingFriends returns the ids of users currently heading to id
func (s *UserService) ComingFriends(ctx context.Context, id string) ([]string, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.CommingFriends, nil
}

// Destination returns the user id that id is heading to
func (s *UserService) Destination(ctx context.Context, id string) (string, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	if !u.IsTraveling() {
		return "", domain.ErrNoDestination
	}
	return u.DestinationUserID, nil
}
