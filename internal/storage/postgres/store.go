package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/friendpin/friendpin-backend/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

// Store keeps one JSONB row per document. Field operations are applied in Go
// inside a transaction holding row locks.
type Store struct {
	db         *sql.DB
	collection string
}

// New creates a Store for one collection
func New(db *sql.DB, collection string) *Store {
	return &Store{db: db, collection: collection}
}

// EnsureSchema creates the documents table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// Get retrieves a document by id
func (s *Store) Get(ctx context.Context, id string) (*storage.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, s.collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
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

// List returns every document of the collection in table order
func (s *Store) List(ctx context.Context) ([]*storage.Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`

	rows, err := s.db.QueryContext(ctx, query, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*storage.Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, &storage.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// Put creates or replaces a document
func (s *Store) Put(ctx context.Context, id string, data map[string]interface{}) error {
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
	`

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, s.collection, id, string(raw)); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Update applies field operations to one existing document
func (s *Store) Update(ctx context.Context, id string, updates ...storage.Update) error {
	return s.Batch(ctx, storage.Write{ID: id, Updates: updates})
}

// Batch applies every write in one transaction
func (s *Store) Batch(ctx context.Context, writes ...storage.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order []string
	pending := make(map[string]map[string]interface{}, len(writes))
	for _, w := range writes {
		data, ok := pending[w.ID]
		if !ok {
			data, err = s.lockForUpdate(ctx, tx, w.ID)
			if err != nil {
				return err
			}
			order = append(order, w.ID)
		}
		pending[w.ID] = storage.Apply(data, w.Updates...)
	}

	query := `UPDATE documents SET data = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
	for _, id := range order {
		raw, mErr := json.Marshal(pending[id])
		if mErr != nil {
			err = fmt.Errorf("failed to marshal document: %w", mErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, query, s.collection, id, string(raw)); err != nil {
			err = fmt.Errorf("failed to update document: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) lockForUpdate(ctx context.Context, tx *sql.Tx, id string) (map[string]interface{}, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`

	var raw []byte
	err := tx.QueryRowContext(ctx, query, s.collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock document: %w", err)
	}
	return decode(raw)
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

func decode(raw []byte) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return data, nil
}
