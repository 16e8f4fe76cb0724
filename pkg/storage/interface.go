package storage

import (
	"context"
	"time"

	"angelhub/pkg/models"
)

// WorkStore is the persistence collaborator for the work library. Records
// are keyed by their opaque id; Update and Delete are atomic per record.
type WorkStore interface {
	// List returns every stored work. Order is unspecified; callers sort.
	List() ([]*models.Work, error)

	// Get retrieves one work by id. Returns an error wrapping
	// utils.ErrNotFound when no record exists for the id.
	Get(id string) (*models.Work, error)

	// Put creates or fully replaces a work record.
	Put(work *models.Work) error

	// Update applies mutate to the stored record inside a single
	// transaction, so concurrent field updates cannot interleave.
	// Returns an error wrapping utils.ErrNotFound for unknown ids.
	Update(id string, mutate func(*models.Work) error) error

	// Delete removes one record by id. Deleting an absent id is a no-op.
	Delete(id string) error

	// Count returns the number of stored works.
	Count() (int, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database
	Close() error
}

// Store combines the work store with its administrative surface.
type Store interface {
	WorkStore
	StoreAdmin
}
