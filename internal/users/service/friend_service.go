package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// FriendService manages a user's directional friend list. Only the acting
// user's document is ever written.
type FriendService struct {
	store storage.Store
	now   func() time.Time
}

// NewFriendService creates a new FriendService
func NewFriendService(store storage.Store) *FriendService {
	return &FriendService{
		store: store,
		now:   time.Now,
	}
}

// AddFriend adds friendID to userID's friends. Adding an existing friend is a no-op.
func (s *FriendService) AddFriend(ctx context.Context, userID, friendID string) error {
	if _, err := s.resolveBoth(ctx, userID, friendID); err != nil {
		return err
	}

	if err := s.store.Update(ctx, userID, storage.ArrayUnion(domain.FieldFriends, friendID)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("friend_id", friendID).Msg("add friend failed")
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// ListFriends returns userID's friend ids, empty when none
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]string, error) {
	u, err := loadUser(ctx, s.store, userID, "user", s.now())
	if err != nil {
		return nil, err
	}
	return u.Friends, nil
}

// RemoveFriend removes friendID from userID's friends. It fails with
// ErrFriendNotFound when friendID is not currently a friend.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	u, err := s.resolveBoth(ctx, userID, friendID)
	if err != nil {
		return err
	}

	if !containsID(u.Friends, friendID) {
		return fmt.Errorf("%w: %s", domain.ErrFriendNotFound, friendID)
	}

	if err := s.store.Update(ctx, userID, storage.ArrayRemove(domain.FieldFriends, friendID)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("friend_id", friendID).Msg("remove friend failed")
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}

func (s *FriendService) resolveBoth(ctx context.Context, userID, friendID string) (*domain.User, error) {
	now := s.now()
	u, err := loadUser(ctx, s.store, userID, "user", now)
	if err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.store, friendID, "friend", now); err != nil {
		return nil, err
	}
	return u, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
