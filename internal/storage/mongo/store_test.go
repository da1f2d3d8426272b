package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestStore_Get(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes document", func(mt *mtest.T) {
		created := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "alice"},
			{Key: "name", Value: "Alice"},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
			{Key: "friends", Value: bson.A{"bob"}},
		}))

		store := New(mt.Client, mt.Coll)
		doc, err := store.Get(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, "alice", doc.ID)
		assert.Equal(mt, "Alice", doc.Data["name"])
		assert.Equal(mt, created, doc.Data["created_at"])
		assert.Equal(mt, []string{"bob"}, storage.Strings(doc.Data["friends"]))
		_, hasID := doc.Data["_id"]
		assert.False(mt, hasID)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		store := New(mt.Client, mt.Coll)
		_, err := store.Get(context.Background(), "ghost")
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "alice"}, {Key: "name", Value: "Alice"}},
			bson.D{{Key: "_id", Value: "bob"}},
		))

		store := New(mt.Client, mt.Coll)
		docs, err := store.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, docs, 2)
		assert.Equal(mt, "alice", docs[0].ID)
		assert.Equal(mt, "bob", docs[1].ID)
		assert.Empty(mt, docs[1].Data)
	})
}

func TestStore_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		store := New(mt.Client, mt.Coll)
		err := store.Update(context.Background(), "alice", storage.ArrayUnion("friends", "bob"))
		assert.NoError(mt, err)
	})

	mt.Run("no matching document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		store := New(mt.Client, mt.Coll)
		err := store.Update(context.Background(), "ghost", storage.Set("name", "Ghost"))
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "write failed",
			Name:    "WriteError",
		}))

		store := New(mt.Client, mt.Coll)
		err := store.Update(context.Background(), "alice", storage.Set("name", "Alice"))
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, storage.ErrNotFound)
	})
}

func TestToUpdateDoc(t *testing.T) {
	doc := toUpdateDoc([]storage.Update{
		storage.Set("destination_user_id", "bob"),
		storage.DeleteField("memo"),
		storage.ArrayUnion("friends", "bob"),
		storage.ArrayRemove("comming_friends", "carol"),
	})

	assert.Equal(t, bson.M{"destination_user_id": "bob"}, doc["$set"])
	assert.Equal(t, bson.M{"memo": ""}, doc["$unset"])
	assert.Equal(t, bson.M{"friends": bson.M{"$each": []string{"bob"}}}, doc["$addToSet"])
	assert.Equal(t, bson.M{"comming_friends": []string{"carol"}}, doc["$pullAll"])
}

func TestToUpdateDoc_OmitsEmptyOperators(t *testing.T) {
	doc := toUpdateDoc([]storage.Update{storage.DeleteField("destination_user_id")})

	assert.Len(t, doc, 1)
	assert.Contains(t, doc, "$unset")
}
