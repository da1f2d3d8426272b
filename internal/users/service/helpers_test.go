package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/friendpin/friendpin-backend/internal/storage"
	redisstore "github.com/friendpin/friendpin-backend/internal/storage/redis"
)

func setupTestStore(t *testing.T) *redisstore.Store {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return redisstore.New(client, "users")
}

func seed(t *testing.T, store storage.Store, docs map[string]map[string]interface{}) {
	for id, data := range docs {
		require.NoError(t, store.Put(context.Background(), id, data))
	}
}

func getDoc(t *testing.T, store storage.Store, id string) map[string]interface{} {
	doc, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return doc.Data
}

var errInjected = errors.New("rpc error: code = Unavailable desc = injected")

// failingStore fails Update for one document id and counts calls
type failingStore struct {
	storage.Store
	failID  string
	updates int
	batches int
}

func (f *failingStore) Update(ctx context.Context, id string, updates ...storage.Update) error {
	f.updates++
	if id == f.failID {
		return errInjected
	}
	return f.Store.Update(ctx, id, updates...)
}

func (f *failingStore) Batch(ctx context.Context, writes ...storage.Write) error {
	f.batches++
	for _, w := range writes {
		if w.ID == f.failID {
			return errInjected
		}
	}
	return f.Store.Batch(ctx, writes...)
}
