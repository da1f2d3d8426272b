// Package firestore stores documents in a Cloud Firestore collection using
// Firestore's native field transforms.
package firestore

import (
	"context"
	"errors"
	"fmt"

	gcfirestore "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

// Store implements storage.Store on a Firestore collection
type Store struct {
	client     *gcfirestore.Client
	collection string
}

// New wraps a Firestore client for one collection
func New(client *gcfirestore.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

func (s *Store) doc(id string) *gcfirestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// Get retrieves a document by id
func (s *Store) Get(ctx context.Context, id string) (*storage.Document, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(id, err)
	}
	return &storage.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// List streams every document of the collection
func (s *Store) List(ctx context.Context) ([]*storage.Document, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	docs := []*storage.Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		docs = append(docs, &storage.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// Put creates or replaces a document
func (s *Store) Put(ctx context.Context, id string, data map[string]interface{}) error {
	if _, err := s.doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Update applies field operations to one existing document. Firestore
// rejects updates of missing documents with NotFound.
func (s *Store) Update(ctx context.Context, id string, updates ...storage.Update) error {
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.doc(id).Update(ctx, toFirestoreUpdates(updates)); err != nil {
		return mapError(id, err)
	}
	return nil
}

// Batch applies the writes inside one Firestore transaction
func (s *Store) Batch(ctx context.Context, writes ...storage.Write) error {
	if len(writes) == 0 {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfirestore.Transaction) error {
		for _, w := range writes {
			if len(w.Updates) == 0 {
				continue
			}
			if err := tx.Update(s.doc(w.ID), toFirestoreUpdates(w.Updates)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError("", err)
	}
	return nil
}

// Ping issues a single-document read against the collection
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

// Close closes the Firestore client
func (s *Store) Close() error {
	return s.client.Close()
}

func toFirestoreUpdates(updates []storage.Update) []gcfirestore.Update {
	out := make([]gcfirestore.Update, 0, len(updates))
	for _, u := range updates {
		var value interface{}
		switch u.Op {
		case storage.OpSet:
			value = u.Value
		case storage.OpDelete:
			value = gcfirestore.Delete
		case storage.OpArrayUnion:
			value = gcfirestore.ArrayUnion(toInterfaces(u.Values)...)
		case storage.OpArrayRemove:
			value = gcfirestore.ArrayRemove(toInterfaces(u.Values)...)
		}
		out = append(out, gcfirestore.Update{Path: u.Field, Value: value})
	}
	return out
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// mapError keeps the Firestore message and marks NotFound so the
// services can match it with errors.Is.
func mapError(id string, err error) error {
	if status.Code(err) == codes.NotFound {
		if id == "" {
			return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %s: %v", storage.ErrNotFound, id, err)
	}
	return err
}
