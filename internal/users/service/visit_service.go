package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// VisitOptions change how visit intents are written. The zero value keeps
// two independent writes and leaves stale incoming entries in place.
type VisitOptions struct {
	// AtomicWrites sends both writes through one store transaction.
	AtomicWrites bool
	// ClearPrevious removes the traveler from the previous destination's
	// incoming list when GoTo replaces an active destination.
	ClearPrevious bool
}

// VisitService maintains the destination pointer on the traveler and the
// matching incoming entry on the destination user.
type VisitService struct {
	store storage.Store
	opts  VisitOptions
}

// NewVisitService creates a new VisitService
func NewVisitService(store storage.Store, opts VisitOptions) *VisitService {
	return &VisitService{store: store, opts: opts}
}

// GoTo records that travelerID is heading to destinationID
func (s *VisitService) GoTo(ctx context.Context, travelerID, destinationID string) error {
	writes := []storage.Write{
		{ID: travelerID, Updates: []storage.Update{
			storage.Set(domain.FieldDestinationUserID, destinationID),
		}},
		{ID: destinationID, Updates: []storage.Update{
			storage.ArrayUnion(domain.FieldCommingFriends, travelerID),
		}},
	}

	if s.opts.ClearPrevious {
		prev, err := s.previousDestination(ctx, travelerID, destinationID)
		if err != nil {
			return s.fail(ctx, "read traveler", err)
		}
		if prev != "" {
			writes = append(writes, storage.Write{ID: prev, Updates: []storage.Update{
				storage.ArrayRemove(domain.FieldCommingFriends, travelerID),
			}})
		}
	}

	return s.apply(ctx, "go to", writes)
}

// Cancel clears travelerID's destination and removes the traveler from
// destinationID's incoming list
func (s *VisitService) Cancel(ctx context.Context, travelerID, destinationID string) error {
	writes := []storage.Write{
		{ID: travelerID, Updates: []storage.Update{
			storage.DeleteField(domain.FieldDestinationUserID),
		}},
		{ID: destinationID, Updates: []storage.Update{
			storage.ArrayRemove(domain.FieldCommingFriends, travelerID),
		}},
	}
	return s.apply(ctx, "cancel", writes)
}

// previousDestination returns the traveler's current destination when it is
// a different, still existing user.
func (s *VisitService) previousDestination(ctx context.Context, travelerID, destinationID string) (string, error) {
	doc, err := s.store.Get(ctx, travelerID)
	if err != nil {
		return "", err
	}

	prev, _ := doc.Data[domain.FieldDestinationUserID].(string)
	if prev == "" || prev == destinationID {
		return "", nil
	}

	if _, err := s.store.Get(ctx, prev); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return prev, nil
}

// apply runs the writes either as one batch or one after another. In the
// sequential mode a failure leaves earlier writes applied.
func (s *VisitService) apply(ctx context.Context, op string, writes []storage.Write) error {
	if s.opts.AtomicWrites {
		if err := s.store.Batch(ctx, writes...); err != nil {
			return s.fail(ctx, op, err)
		}
		return nil
	}

	for _, w := range writes {
		if err := s.store.Update(ctx, w.ID, w.Updates...); err != nil {
			return s.fail(ctx, op, err)
		}
	}
	return nil
}

func (s *VisitService) fail(ctx context.Context, op string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Str("operation", op).Msg("visit write failed")
	return &domain.StoreWriteError{Op: op, Err: err}
}
