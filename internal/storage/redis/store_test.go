package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return New(client, "users"), mr
}

func TestStore_PutAndGet(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "alice", map[string]interface{}{"name": "Alice", "status": "open"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.ID)
	assert.Equal(t, "Alice", doc.Data["name"])
	assert.Equal(t, "open", doc.Data["status"])

	assert.True(t, mr.Exists("doc:users:alice"))
	members, err := mr.SMembers("idx:users")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members)
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	t.Run("empty collection", func(t *testing.T) {
		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("returns every document", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "alice", map[string]interface{}{"name": "Alice"}))
		require.NoError(t, store.Put(ctx, "bob", map[string]interface{}{"name": "Bob"}))

		docs, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		names := map[string]interface{}{}
		for _, d := range docs {
			names[d.ID] = d.Data["name"]
		}
		assert.Equal(t, "Alice", names["alice"])
		assert.Equal(t, "Bob", names["bob"])
	})

	t.Run("skips dangling index entries", func(t *testing.T) {
		_, err := mr.SAdd("idx:users", "ghost")
		require.NoError(t, err)

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestStore_Update(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "alice", map[string]interface{}{"name": "Alice"}))

	t.Run("array union is idempotent", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, "alice", storage.ArrayUnion("friends", "bob")))
		require.NoError(t, store.Update(ctx, "alice", storage.ArrayUnion("friends", "bob")))

		doc, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, storage.Strings(doc.Data["friends"]))
	})

	t.Run("set and delete field", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, "alice", storage.Set("destination_user_id", "bob")))
		doc, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "bob", doc.Data["destination_user_id"])

		require.NoError(t, store.Update(ctx, "alice", storage.DeleteField("destination_user_id")))
		doc, err = store.Get(ctx, "alice")
		require.NoError(t, err)
		_, ok := doc.Data["destination_user_id"]
		assert.False(t, ok)
	})

	t.Run("missing document", func(t *testing.T) {
		err := store.Update(ctx, "ghost", storage.Set("name", "Ghost"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_Batch(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "alice", map[string]interface{}{}))
	require.NoError(t, store.Put(ctx, "bob", map[string]interface{}{}))

	t.Run("applies every write", func(t *testing.T) {
		err := store.Batch(ctx,
			storage.Write{ID: "alice", Updates: []storage.Update{storage.Set("destination_user_id", "bob")}},
			storage.Write{ID: "bob", Updates: []storage.Update{storage.ArrayUnion("comming_friends", "alice")}},
		)
		require.NoError(t, err)

		alice, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "bob", alice.Data["destination_user_id"])

		bob, err := store.Get(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, storage.Strings(bob.Data["comming_friends"]))
	})

	t.Run("writes nothing when one target is missing", func(t *testing.T) {
		err := store.Batch(ctx,
			storage.Write{ID: "alice", Updates: []storage.Update{storage.Set("memo", "changed")}},
			storage.Write{ID: "ghost", Updates: []storage.Update{storage.ArrayUnion("comming_friends", "alice")}},
		)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		alice, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		_, ok := alice.Data["memo"]
		assert.False(t, ok)
	})

	t.Run("same document twice", func(t *testing.T) {
		err := store.Batch(ctx,
			storage.Write{ID: "bob", Updates: []storage.Update{storage.ArrayUnion("friends", "alice")}},
			storage.Write{ID: "bob", Updates: []storage.Update{storage.ArrayUnion("friends", "carol")}},
		)
		require.NoError(t, err)

		bob, err := store.Get(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "carol"}, storage.Strings(bob.Data["friends"]))
	})
}

func TestStore_Ping(t *testing.T) {
	store, mr := setupTestStore(t)

	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
