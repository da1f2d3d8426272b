// Package mongo stores documents in a MongoDB collection keyed by _id. Array
// operations map onto $addToSet and $pullAll.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

// Store implements storage.Store on a MongoDB collection
type Store struct {
	client     *mongodrv.Client
	collection *mongodrv.Collection
}

// Connect dials MongoDB and returns a Store for database/collection
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return New(client, client.Database(database).Collection(collection)), nil
}

// New wraps an existing client and collection
func New(client *mongodrv.Client, collection *mongodrv.Collection) *Store {
	return &Store{client: client, collection: collection}
}

// Get retrieves a document by id
func (s *Store) Get(ctx context.Context, id string) (*storage.Document, error) {
	var raw bson.M
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongodrv.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return toDocument(id, raw), nil
}

// List returns every document in natural order
func (s *Store) List(ctx context.Context) ([]*storage.Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	docs := make([]*storage.Document, 0, len(rows))
	for _, raw := range rows {
		id := fmt.Sprint(raw["_id"])
		docs = append(docs, toDocument(id, raw))
	}
	return docs, nil
}

// Put creates or replaces a document
func (s *Store) Put(ctx context.Context, id string, data map[string]interface{}) error {
	replacement := bson.M{}
	for k, v := range data {
		replacement[k] = v
	}
	replacement["_id"] = id

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": id}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Update applies field operations to one existing document
func (s *Store) Update(ctx context.Context, id string, updates ...storage.Update) error {
	if len(updates) == 0 {
		return nil
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, toUpdateDoc(updates))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

// Batch applies the writes inside a multi-document transaction. MongoDB only
// supports this on replica sets and sharded clusters.
func (s *Store) Batch(ctx context.Context, writes ...storage.Write) error {
	if len(writes) == 0 {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongodrv.SessionContext) (interface{}, error) {
		for _, w := range writes {
			if err := s.Update(sc, w.ID, w.Updates...); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func toUpdateDoc(updates []storage.Update) bson.M {
	set := bson.M{}
	unset := bson.M{}
	addToSet := bson.M{}
	pullAll := bson.M{}

	for _, u := range updates {
		switch u.Op {
		case storage.OpSet:
			set[u.Field] = u.Value
		case storage.OpDelete:
			unset[u.Field] = ""
		case storage.OpArrayUnion:
			addToSet[u.Field] = bson.M{"$each": u.Values}
		case storage.OpArrayRemove:
			pullAll[u.Field] = u.Values
		}
	}

	doc := bson.M{}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	if len(addToSet) > 0 {
		doc["$addToSet"] = addToSet
	}
	if len(pullAll) > 0 {
		doc["$pullAll"] = pullAll
	}
	return doc
}

// toDocument strips _id and converts driver types into the plain Go values
// the normalizer understands.
func toDocument(id string, raw bson.M) *storage.Document {
	data := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		data[k] = plain(v)
	}
	return &storage.Document{ID: id, Data: data}
}

func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	default:
		return v
	}
}
