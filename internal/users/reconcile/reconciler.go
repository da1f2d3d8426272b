// Package reconcile repairs incoming-friend lists that drifted from the
// travelers' destination pointers.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// Result summarises one sweep
type Result struct {
	Scanned  int `json:"scanned" yaml:"scanned"`
	Repaired int `json:"repaired" yaml:"repaired"`
	Removed  int `json:"removed" yaml:"removed"`
}

// Reconciler removes comming_friends entries whose traveler no longer
// exists or no longer points at the user.
type Reconciler struct {
	store  storage.Store
	dryRun bool
	now    func() time.Time
}

func New(store storage.Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// DryRun makes Run report stale entries without writing
func (r *Reconciler) DryRun(v bool) *Reconciler {
	r.dryRun = v
	return r
}

// Run performs one sweep over the whole collection
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	log := zerolog.Ctx(ctx)

	docs, err := r.store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list users: %w", err)
	}

	now := r.now()
	users := make(map[string]domain.User, len(docs))
	for _, d := range docs {
		users[d.ID] = domain.Normalize(d.ID, d.Data, now)
	}

	var res Result
	for _, d := range docs {
		res.Scanned++
		u := users[d.ID]

		var stale []string
		for _, travelerID := range u.CommingFriends {
			t, ok := users[travelerID]
			if ok && t.DestinationUserID == u.ID {
				continue
			}
			// The listing may be outdated; confirm against the store.
			current, err := r.stillStale(ctx, travelerID, u.ID)
			if err != nil {
				return res, err
			}
			if current {
				stale = appendUnique(stale, travelerID)
			}
		}
		if len(stale) == 0 {
			continue
		}

		log.Info().Str("user_id", u.ID).Strs("stale", stale).Bool("dry_run", r.dryRun).
			Msg("removing stale incoming entries")
		if !r.dryRun {
			err := r.store.Update(ctx, u.ID, storage.ArrayRemove(domain.FieldCommingFriends, stale...))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return res, fmt.Errorf("repair %s: %w", u.ID, err)
			}
		}
		res.Repaired++
		res.Removed += len(stale)
	}

	return res, nil
}

func (r *Reconciler) stillStale(ctx context.Context, travelerID, userID string) (bool, error) {
	doc, err := r.store.Get(ctx, travelerID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read traveler %s: %w", travelerID, err)
	}
	dest, _ := doc.Data[domain.FieldDestinationUserID].(string)
	return dest != userID, nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
