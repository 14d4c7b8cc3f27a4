package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Lookups by id return ErrNotFound when the row is absent. Writes that hit a
// unique name return ErrDuplicateName. Batch lookups skip missing ids.

type SymptomRepository interface {
	Create(ctx context.Context, s *Symptom) error
	GetByID(ctx context.Context, id uuid.UUID) (*Symptom, error)
	GetByName(ctx context.Context, name string) (*Symptom, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Symptom, error)
	ListByBodyPart(ctx context.Context, bodyPart string) ([]*Symptom, error)
	List(ctx context.Context, limit, offset int) ([]*Symptom, int, error)
	Update(ctx context.Context, s *Symptom) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AgeGroupRepository interface {
	Create(ctx context.Context, g *AgeGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*AgeGroup, error)
	GetByName(ctx context.Context, name string) (*AgeGroup, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*AgeGroup, error)
	// List orders by MinAgeDays ascending.
	List(ctx context.Context) ([]*AgeGroup, error)
}

type ConditionRepository interface {
	Create(ctx context.Context, c *Condition) error
	GetByID(ctx context.Context, id uuid.UUID) (*Condition, error)
	GetByName(ctx context.Context, name string) (*Condition, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Condition, error)
	// ListBySymptoms returns every condition that lists at least one of
	// symptomIDs, in the order the conditions were created.
	ListBySymptoms(ctx context.Context, symptomIDs []uuid.UUID) ([]*Condition, error)
	List(ctx context.Context, limit, offset int) ([]*Condition, int, error)
	Update(ctx context.Context, c *Condition) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Resetter wipes the whole catalog. Used by `seed --reset`.
type Resetter interface {
	Reset(ctx context.Context) error
}
