// Package storage defines the document-store abstraction every persistence
// backend implements. Documents are schemaless maps keyed by id inside one
// collection.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Document is a raw stored record. Data holds only the fields that are
// actually present in the store.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Op is a single field operation applied by Update.
type Op int

const (
	OpSet Op = iota
	OpDelete
	OpArrayUnion
	OpArrayRemove
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpArrayUnion:
		return "array_union"
	case OpArrayRemove:
		return "array_remove"
	default:
		return "unknown"
	}
}

// Update describes one field mutation. Value is used by OpSet, Values by the
// array operations.
type Update struct {
	Field  string
	Op     Op
	Value  interface{}
	Values []string
}

func Set(field string, value interface{}) Update {
	return Update{Field: field, Op: OpSet, Value: value}
}

func DeleteField(field string) Update {
	return Update{Field: field, Op: OpDelete}
}

func ArrayUnion(field string, values ...string) Update {
	return Update{Field: field, Op: OpArrayUnion, Values: values}
}

func ArrayRemove(field string, values ...string) Update {
	return Update{Field: field, Op: OpArrayRemove, Values: values}
}

// Write groups the updates for one document inside a Batch.
type Write struct {
	ID      string
	Updates []Update
}

// Store is the persistence collaborator used by the services.
//
// Update and Batch fail with ErrNotFound (possibly wrapped) when a target
// document does not exist. Batch applies all writes atomically or none.
type Store interface {
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Put(ctx context.Context, id string, data map[string]interface{}) error
	Update(ctx context.Context, id string, updates ...Update) error
	Batch(ctx context.Context, writes ...Write) error
	Ping(ctx context.Context) error
	Close() error
}
