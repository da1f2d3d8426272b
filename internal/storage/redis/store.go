// Package redis stores documents as JSON values in Redis. Field operations
// run as optimistic WATCH/MULTI transactions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

const (
	docKeyPrefix   = "doc:" // doc:{collection}:{id} -> JSON document
	indexKeyPrefix = "idx:" // idx:{collection} -> set of document ids
	maxTxRetries   = 5
)

// Store implements storage.Store on a Redis client
type Store struct {
	client     *goredis.Client
	collection string
}

// New creates a Store for one collection
func New(client *goredis.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

// Get retrieves a document by id
func (s *Store) Get(ctx context.Context, id string) (*storage.Document, error) {
	raw, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err == goredis.Nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	data, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &storage.Document{ID: id, Data: data}, nil
}

// List returns every indexed document. Set iteration order is not stable.
func (s *Store) List(ctx context.Context) ([]*storage.Document, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}
	if len(ids) == 0 {
		return []*storage.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	docs := make([]*storage.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		data, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, &storage.Document{ID: ids[i], Data: data})
	}
	return docs, nil
}

// Put creates or replaces a document
func (s *Store) Put(ctx context.Context, id string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(id), raw, 0)
		pipe.SAdd(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Update applies field operations to one existing document
func (s *Store) Update(ctx context.Context, id string, updates ...storage.Update) error {
	return s.Batch(ctx, storage.Write{ID: id, Updates: updates})
}

// Batch applies the writes in a single MULTI/EXEC guarded by WATCH on every
// touched key. The transaction is retried when a watched key changes.
func (s *Store) Batch(ctx context.Context, writes ...storage.Write) error {
	if len(writes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, s.docKey(w.ID))
	}

	txf := func(tx *goredis.Tx) error {
		pending := make(map[string]map[string]interface{}, len(writes))
		for _, w := range writes {
			key := s.docKey(w.ID)
			data, ok := pending[key]
			if !ok {
				raw, err := tx.Get(ctx, key).Bytes()
				if err == goredis.Nil {
					return fmt.Errorf("%w: %s", storage.ErrNotFound, w.ID)
				}
				if err != nil {
					return err
				}
				if data, err = decode(raw); err != nil {
					return err
				}
			}
			pending[key] = storage.Apply(data, w.Updates...)
		}

		encoded := make(map[string][]byte, len(pending))
		for key, data := range pending {
			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("failed to marshal document: %w", err)
			}
			encoded[key] = raw
		}

		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for key, raw := range encoded {
				pipe.Set(ctx, key, raw, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to apply updates after %d attempts: %w", maxTxRetries, goredis.TxFailedErr)
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) docKey(id string) string {
	return fmt.Sprintf("%s%s:%s", docKeyPrefix, s.collection, id)
}

func (s *Store) indexKey() string {
	return fmt.Sprintf("%s%s", indexKeyPrefix, s.collection)
}

func decode(raw []byte) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return data, nil
}
