package diagnosis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/care360/care360/internal/domain/catalog"
	"github.com/care360/care360/internal/platform/db"
)

// CatalogReader is the read side of the catalog the recorder depends on.
// *catalog.Service satisfies it.
type CatalogReader interface {
	AgeGroupExists(ctx context.Context, id uuid.UUID) (bool, error)
	SymptomsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Symptom, error)
	AgeGroupsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.AgeGroup, error)
	ConditionsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Condition, error)
	ConditionsBySymptoms(ctx context.Context, symptomIDs []uuid.UUID) ([]*catalog.Condition, error)
}

type Service struct {
	repo    Repository
	catalog CatalogReader

	tx               db.TxBeginner
	strictSymptomIDs bool
	logger           zerolog.Logger
	tracer           trace.Tracer
	metrics          *metrics
}

func NewService(repo Repository, cat CatalogReader) *Service {
	return &Service{
		repo:    repo,
		catalog: cat,
		logger:  zerolog.Nop(),
		tracer:  otel.Tracer(instrumentationName),
		metrics: defaultMetrics(),
	}
}

// SetTxBeginner makes candidate loading read from one catalog snapshot.
func (s *Service) SetTxBeginner(b db.TxBeginner) { s.tx = b }

// SetStrictSymptomIDs rejects submissions naming symptoms that do not exist.
// By default such ids are stored and never match.
func (s *Service) SetStrictSymptomIDs(strict bool) { s.strictSymptomIDs = strict }

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

func (s *Service) SetMeter(m metric.Meter) { s.metrics = newMetrics(m) }

// validated is a CreateRequest whose fields have the right shape.
type validated struct {
	symptoms   []uuid.UUID
	ageGroupID uuid.UUID
	sex        string
}

// validateShape checks the request without touching the catalog and stops at
// the first problem.
func validateShape(req CreateRequest) (*validated, error) {
	if len(req.Symptoms) == 0 {
		return nil, invalid("symptoms", "At least one symptom is required")
	}
	ids := make([]uuid.UUID, 0, len(req.Symptoms))
	for _, raw := range req.Symptoms {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalid("symptoms", "Invalid symptom id: %s", raw)
		}
		ids = append(ids, id)
	}
	ageGroupID, err := uuid.Parse(req.AgeGroupID)
	if err != nil {
		return nil, invalid("ageGroupId", "Valid ageGroupId is required")
	}
	if !validSexes[req.Sex] {
		return nil, invalid("sex", "Valid sex is required (male, female, or other)")
	}
	return &validated{symptoms: lo.Uniq(ids), ageGroupID: ageGroupID, sex: req.Sex}, nil
}

// Create scores the submitted symptoms against the catalog, stores the
// ranked result for the caller and returns it expanded for display. No
// matching conditions is a successful, empty result.
func (s *Service) Create(ctx context.Context, caller Caller, req CreateRequest) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "diagnosis.Create")
	defer span.End()

	in, err := validateShape(req)
	if err != nil {
		return nil, err
	}
	exists, err := s.catalog.AgeGroupExists(ctx, in.ageGroupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, invalid("ageGroupId", "Specified age group not found")
	}

	var (
		symptomNames map[uuid.UUID]string
		candidates   []*catalog.Condition
	)
	err = db.WithTx(ctx, s.tx, db.SnapshotOptions, func(ctx context.Context) error {
		known, err := s.catalog.SymptomsByIDs(ctx, in.symptoms)
		if err != nil {
			return err
		}
		symptomNames = lo.SliceToMap(known, func(sym *catalog.Symptom) (uuid.UUID, string) { return sym.ID, sym.Name })
		if s.strictSymptomIDs {
			for _, id := range in.symptoms {
				if _, ok := symptomNames[id]; !ok {
					return invalid("symptoms", "Symptom %s not found", id)
				}
			}
		}
		candidates, err = s.catalog.ConditionsBySymptoms(ctx, in.symptoms)
		return err
	})
	if err != nil {
		return nil, err
	}

	d := &Diagnosis{
		ID:         uuid.New(),
		UserID:     caller.UserID,
		Symptoms:   in.symptoms,
		AgeGroupID: in.ageGroupID,
		Sex:        in.sex,
	}
	matches := s.score(ctx, d, candidates, in)
	d.PossibleConditions = make([]PossibleCondition, 0, len(matches))
	for _, m := range matches {
		d.PossibleConditions = append(d.PossibleConditions, toPossibleCondition(m, symptomNames))
	}
	span.SetAttributes(
		attribute.Int("diagnosis.candidates", len(candidates)),
		attribute.Int("diagnosis.matches", len(matches)),
		attribute.Int("diagnosis.filtered_out", d.FilteredOut),
	)

	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("diagnosis insert failed")
		span.SetStatus(codes.Error, "persist diagnosis")
		return nil, &PersistenceError{Err: err}
	}
	s.metrics.recordCreated(ctx, len(matches))

	views, err := s.resolve(ctx, d)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// score runs the matcher over every candidate and returns the included
// matches ranked. Conditions with unusable catalog data are logged and
// skipped without failing the request.
func (s *Service) score(ctx context.Context, d *Diagnosis, candidates []*catalog.Condition, in *validated) []*Match {
	submitted := NewSymptomSet(in.symptoms)
	var matches []*Match
	for _, cond := range candidates {
		m, err := MatchCondition(cond, submitted, in.ageGroupID, in.sex)
		if err != nil {
			s.metrics.recordFault(ctx)
			s.logger.Warn().Err(err).Str("condition_id", cond.ID.String()).Msg("condition skipped")
			continue
		}
		if m == nil {
			continue
		}
		if m.Filtered() {
			d.FilteredOut++
			reason := "sex"
			if !m.AgeCompatible {
				reason = "age"
			}
			s.metrics.recordExcluded(ctx, reason)
			s.logger.Debug().
				Str("condition", cond.Name).
				Int("probability", m.Probability).
				Str("reason", reason).
				Msg("condition excluded")
			continue
		}
		if m.Included() {
			matches = append(matches, m)
		}
	}
	Rank(matches)
	return matches
}

func toPossibleCondition(m *Match, symptomNames map[uuid.UUID]string) PossibleCondition {
	return PossibleCondition{
		ConditionID:   m.Condition.ID,
		ConditionName: m.Condition.Name,
		Probability:   m.Probability,
		MatchingSymptoms: lo.Map(m.MatchingSymptoms, func(cs catalog.ConditionSymptom, _ int) MatchingSymptom {
			return MatchingSymptom{SymptomID: cs.SymptomID, Name: symptomNames[cs.SymptomID], Importance: cs.Importance}
		}),
		RecommendedActions: nonNil(m.RecommendedActions),
	}
}

// owner picks whose records a listing reads. Reading someone else's needs
// the admin role and is refused before any store access.
func owner(caller Caller, requested, forbidden string) (string, error) {
	if requested == "" || requested == caller.UserID {
		return caller.UserID, nil
	}
	if !caller.Admin {
		return "", &ForbiddenError{Message: forbidden}
	}
	return requested, nil
}

// History returns ownerID's diagnoses newest first. An empty ownerID means
// the caller.
func (s *Service) History(ctx context.Context, caller Caller, ownerID string) ([]*View, error) {
	who, err := owner(caller, ownerID, "Forbidden - You can only access your own diagnosis history")
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.ListByOwner(ctx, who)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, ds...)
}

// Get returns one diagnosis. A record owned by another user is reported
// exactly like a missing one unless the caller is an admin.
func (s *Service) Get(ctx context.Context, caller Caller, id uuid.UUID) (*View, error) {
	ownerID := caller.UserID
	if caller.Admin {
		ownerID = ""
	}
	d, err := s.repo.GetByID(ctx, id, ownerID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, d)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ReportedSymptoms lists each distinct symptom across ownerID's diagnoses
// with the first and last time it was reported, most recent first.
func (s *Service) ReportedSymptoms(ctx context.Context, caller Caller, ownerID string) ([]*ReportedSymptom, error) {
	who, err := owner(caller, ownerID, "Forbidden - You can only access your own symptoms")
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.ListByOwner(ctx, who)
	if err != nil {
		return nil, err
	}

	var order []uuid.UUID
	seen := make(map[uuid.UUID]*ReportedSymptom)
	for _, d := range ds {
		for _, id := range d.Symptoms {
			rs, ok := seen[id]
			if !ok {
				rs = &ReportedSymptom{FirstReported: d.CreatedAt, LastReported: d.CreatedAt}
				seen[id] = rs
				order = append(order, id)
				continue
			}
			rs.FirstReported = earliest(rs.FirstReported, d.CreatedAt)
			rs.LastReported = latest(rs.LastReported, d.CreatedAt)
		}
	}
	if len(order) == 0 {
		return []*ReportedSymptom{}, nil
	}

	known, err := s.catalog.SymptomsByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	refs := &references{symptoms: lo.KeyBy(known, func(x *catalog.Symptom) uuid.UUID { return x.ID })}
	out := make([]*ReportedSymptom, 0, len(order))
	for _, id := range order {
		rs := seen[id]
		rs.SymptomRef = refs.symptom(id)
		out = append(out, rs)
	}
	return out, nil
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
