package diagnosis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/care360/care360/internal/domain/catalog"
)

// references holds every catalog row a batch of diagnoses points at.
type references struct {
	symptoms   map[uuid.UUID]*catalog.Symptom
	ageGroups  map[uuid.UUID]*catalog.AgeGroup
	conditions map[uuid.UUID]*catalog.Condition
}

// loadReferences fetches the symptoms, age groups and conditions named by
// ds with one batched query per kind, run concurrently.
func (s *Service) loadReferences(ctx context.Context, ds []*Diagnosis) (*references, error) {
	var symptomIDs, ageGroupIDs, conditionIDs []uuid.UUID
	for _, d := range ds {
		symptomIDs = append(symptomIDs, d.Symptoms...)
		ageGroupIDs = append(ageGroupIDs, d.AgeGroupID)
		for _, pc := range d.PossibleConditions {
			conditionIDs = append(conditionIDs, pc.ConditionID)
		}
	}
	symptomIDs = lo.Uniq(symptomIDs)
	ageGroupIDs = lo.Uniq(ageGroupIDs)
	conditionIDs = lo.Uniq(conditionIDs)

	var (
		symptoms   []*catalog.Symptom
		ageGroups  []*catalog.AgeGroup
		conditions []*catalog.Condition
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(symptomIDs) > 0 {
		g.Go(func() (err error) {
			symptoms, err = s.catalog.SymptomsByIDs(gctx, symptomIDs)
			return err
		})
	}
	if len(ageGroupIDs) > 0 {
		g.Go(func() (err error) {
			ageGroups, err = s.catalog.AgeGroupsByIDs(gctx, ageGroupIDs)
			return err
		})
	}
	if len(conditionIDs) > 0 {
		g.Go(func() (err error) {
			conditions, err = s.catalog.ConditionsByIDs(gctx, conditionIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve diagnosis references: %w", err)
	}

	return &references{
		symptoms:   lo.KeyBy(symptoms, func(x *catalog.Symptom) uuid.UUID { return x.ID }),
		ageGroups:  lo.KeyBy(ageGroups, func(x *catalog.AgeGroup) uuid.UUID { return x.ID }),
		conditions: lo.KeyBy(conditions, func(x *catalog.Condition) uuid.UUID { return x.ID }),
	}, nil
}

func (r *references) symptom(id uuid.UUID) SymptomRef {
	if sym, ok := r.symptoms[id]; ok {
		return SymptomRef{ID: id, Name: sym.Name, Description: sym.Description, BodyPart: sym.BodyPart}
	}
	return SymptomRef{ID: id}
}

// view expands d. A reference that no longer resolves keeps its id and, for
// conditions, the name captured at creation.
func (r *references) view(d *Diagnosis) *View {
	v := &View{
		ID:                 d.ID,
		UserID:             d.UserID,
		Symptoms:           make([]SymptomRef, 0, len(d.Symptoms)),
		AgeGroup:           AgeGroupRef{ID: d.AgeGroupID},
		Sex:                d.Sex,
		PossibleConditions: make([]PossibleConditionView, 0, len(d.PossibleConditions)),
		FilteredOut:        d.FilteredOut,
		CreatedAt:          d.CreatedAt,
	}
	for _, id := range d.Symptoms {
		v.Symptoms = append(v.Symptoms, r.symptom(id))
	}
	if g, ok := r.ageGroups[d.AgeGroupID]; ok {
		v.AgeGroup.Name = g.Name
		v.AgeGroup.Description = g.Description
	}
	for _, pc := range d.PossibleConditions {
		ref := ConditionRef{ID: pc.ConditionID, Name: pc.ConditionName}
		if c, ok := r.conditions[pc.ConditionID]; ok {
			ref.Name = c.Name
			ref.Description = c.Description
			ref.Severity = c.Severity
		}
		v.PossibleConditions = append(v.PossibleConditions, PossibleConditionView{
			Condition:          ref,
			Probability:        pc.Probability,
			MatchingSymptoms:   nonNil(pc.MatchingSymptoms),
			RecommendedActions: nonNil(pc.RecommendedActions),
		})
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// resolve expands references for display, in the order given.
func (s *Service) resolve(ctx context.Context, ds ...*Diagnosis) ([]*View, error) {
	ctx, span := s.tracer.Start(ctx, "diagnosis.resolve",
		trace.WithAttributes(attribute.Int("diagnosis.count", len(ds))))
	defer span.End()

	refs, err := s.loadReferences(ctx, ds)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	views := make([]*View, len(ds))
	for i, d := range ds {
		views[i] = refs.view(d)
	}
	return views, nil
}
