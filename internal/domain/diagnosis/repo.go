package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores diagnoses. Records are only ever inserted.
type Repository interface {
	Create(ctx context.Context, d *Diagnosis) error
	// GetByID returns ErrNotFound when id is absent or, with a non-empty
	// ownerID, owned by someone else.
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*Diagnosis, error)
	// ListByOwner returns the owner's diagnoses newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*Diagnosis, error)
}
