package catalog

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/care360/care360/internal/platform/cache"
	"github.com/care360/care360/internal/platform/db"
)

const (
	cacheKeyAgeGroups      = "age-groups"
	cacheKeySymptomsPrefix = "symptoms:"
)

type Service struct {
	symptoms   SymptomRepository
	ageGroups  AgeGroupRepository
	conditions ConditionRepository
	resetter   Resetter

	tx       db.TxBeginner
	cache    cache.Store
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func NewService(symptoms SymptomRepository, ageGroups AgeGroupRepository, conditions ConditionRepository) *Service {
	return &Service{
		symptoms:   symptoms,
		ageGroups:  ageGroups,
		conditions: conditions,
		cache:      cache.Noop{},
		logger:     zerolog.Nop(),
	}
}

// SetCache enables caching of the public browsing reads.
func (s *Service) SetCache(store cache.Store, ttl time.Duration) {
	if store == nil {
		store = cache.Noop{}
	}
	s.cache = store
	s.cacheTTL = ttl
}

// SetTxBeginner makes multi-step writes and the seed atomic.
func (s *Service) SetTxBeginner(b db.TxBeginner) { s.tx = b }

func (s *Service) SetResetter(r Resetter) { s.resetter = r }

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// -- Cache helpers --

func (s *Service) cached(ctx context.Context, key string, dst interface{}, load func() error) error {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}
	if hit {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, dst, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, prefix string) {
	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn().Err(err).Str("prefix", prefix).Msg("catalog cache invalidation failed")
	}
}

// -- Browsing --

// ListAgeGroups returns every age group ordered by MinAgeDays ascending.
func (s *Service) ListAgeGroups(ctx context.Context) ([]*AgeGroup, error) {
	var groups []*AgeGroup
	err := s.cached(ctx, cacheKeyAgeGroups, &groups, func() (err error) {
		groups, err = s.ageGroups.List(ctx)
		return err
	})
	return groups, err
}

// ListSymptomsByBodyPart validates bodyPart against the enum before touching
// the store; a valid part with no symptoms yields an empty list.
func (s *Service) ListSymptomsByBodyPart(ctx context.Context, bodyPart string) ([]*Symptom, error) {
	if !IsBodyPart(bodyPart) {
		return nil, invalid("bodyPart", "Invalid body part: %s", bodyPart)
	}
	var symptoms []*Symptom
	err := s.cached(ctx, cacheKeySymptomsPrefix+"body-part:"+bodyPart, &symptoms, func() (err error) {
		symptoms, err = s.symptoms.ListByBodyPart(ctx, bodyPart)
		return err
	})
	return symptoms, err
}

func (s *Service) ListSymptoms(ctx context.Context, limit, offset int) ([]*Symptom, int, error) {
	return s.symptoms.List(ctx, limit, offset)
}

// GetSymptom returns the symptom with its associated symptoms expanded.
// Associations that no longer resolve are dropped.
func (s *Service) GetSymptom(ctx context.Context, id uuid.UUID) (*SymptomDetail, error) {
	sym, err := s.symptoms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &SymptomDetail{Symptom: *sym, AssociatedSymptoms: []SymptomSummary{}}
	if len(sym.AssociatedSymptoms) == 0 {
		return detail, nil
	}
	assoc, err := s.symptoms.GetByIDs(ctx, sym.AssociatedSymptoms)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(assoc, func(a *Symptom) uuid.UUID { return a.ID })
	for _, aid := range sym.AssociatedSymptoms {
		if a, ok := byID[aid]; ok {
			detail.AssociatedSymptoms = append(detail.AssociatedSymptoms, SymptomSummary{
				ID: a.ID, Name: a.Name, BodyPart: a.BodyPart, Severity: a.Severity,
			})
		}
	}
	return detail, nil
}

// -- Reads used by the diagnosis recorder --

func (s *Service) AgeGroupExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.ageGroups.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) SymptomsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Symptom, error) {
	return s.symptoms.GetByIDs(ctx, ids)
}

func (s *Service) AgeGroupsByIDs(ctx context.Context, ids []uuid.UUID) ([]*AgeGroup, error) {
	return s.ageGroups.GetByIDs(ctx, ids)
}

func (s *Service) ConditionsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Condition, error) {
	return s.conditions.GetByIDs(ctx, ids)
}

// ConditionsBySymptoms loads every condition sharing at least one symptom
// with symptomIDs, in a stable order.
func (s *Service) ConditionsBySymptoms(ctx context.Context, symptomIDs []uuid.UUID) ([]*Condition, error) {
	return s.conditions.ListBySymptoms(ctx, symptomIDs)
}

// -- Symptom administration --

func normalizeSymptom(sym *Symptom) error {
	sym.Name = strings.TrimSpace(sym.Name)
	sym.Description = strings.TrimSpace(sym.Description)
	if sym.Name == "" {
		return invalid("name", "Please add a symptom name")
	}
	if utf8.RuneCountInString(sym.Name) > 50 {
		return invalid("name", "Name can not be more than 50 characters")
	}
	if sym.Description == "" {
		return invalid("description", "Please add a description")
	}
	if utf8.RuneCountInString(sym.Description) > 500 {
		return invalid("description", "Description can not be more than 500 characters")
	}
	if sym.BodyPart == "" {
		return invalid("bodyPart", "Please specify body part")
	}
	if !IsBodyPart(sym.BodyPart) {
		return invalid("bodyPart", "Invalid body part: %s", sym.BodyPart)
	}
	if sym.Severity == "" {
		sym.Severity = SeverityMedium
	}
	if !validSeverities[sym.Severity] {
		return invalid("severity", "Invalid severity: %s", sym.Severity)
	}
	sym.AssociatedSymptoms = lo.Uniq(sym.AssociatedSymptoms)
	if sym.ID != uuid.Nil && lo.Contains(sym.AssociatedSymptoms, sym.ID) {
		return invalid("associatedSymptoms", "A symptom can not be associated with itself")
	}
	return nil
}

// requireSymptoms fails with a ValidationError on field when any id is unknown.
func (s *Service) requireSymptoms(ctx context.Context, field string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.symptoms.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := lo.SliceToMap(found, func(sym *Symptom) (uuid.UUID, bool) { return sym.ID, true })
	for _, id := range ids {
		if !known[id] {
			return invalid(field, "Symptom %s not found", id)
		}
	}
	return nil
}

func (s *Service) CreateSymptom(ctx context.Context, sym *Symptom) error {
	sym.ID = uuid.Nil
	if err := normalizeSymptom(sym); err != nil {
		return err
	}
	if err := s.requireSymptoms(ctx, "associatedSymptoms", sym.AssociatedSymptoms); err != nil {
		return err
	}
	if err := s.symptoms.Create(ctx, sym); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeySymptomsPrefix)
	return nil
}

func (s *Service) UpdateSymptom(ctx context.Context, sym *Symptom) error {
	if err := normalizeSymptom(sym); err != nil {
		return err
	}
	if _, err := s.symptoms.GetByID(ctx, sym.ID); err != nil {
		return err
	}
	if err := s.requireSymptoms(ctx, "associatedSymptoms", sym.AssociatedSymptoms); err != nil {
		return err
	}
	if err := s.symptoms.Update(ctx, sym); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeySymptomsPrefix)
	return nil
}

// DeleteSymptom also removes the symptom from every condition that lists it.
func (s *Service) DeleteSymptom(ctx context.Context, id uuid.UUID) error {
	if err := s.symptoms.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeySymptomsPrefix)
	return nil
}

// -- Age group administration --

func (s *Service) CreateAgeGroup(ctx context.Context, g *AgeGroup) error {
	g.ID = uuid.Nil
	g.Name = strings.TrimSpace(g.Name)
	g.Description = strings.TrimSpace(g.Description)
	if g.Name == "" {
		return invalid("name", "Please add an age group name")
	}
	if g.MinAgeDays < 0 || g.MaxAgeDays < 0 {
		return invalid("minAgeDays", "Age bounds must not be negative")
	}
	if g.MinAgeDays > g.MaxAgeDays {
		return invalid("maxAgeDays", "minAgeDays (%d) must not exceed maxAgeDays (%d)", g.MinAgeDays, g.MaxAgeDays)
	}
	if err := s.ageGroups.Create(ctx, g); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyAgeGroups)
	return nil
}

// -- Condition administration --

func normalizeCondition(c *Condition) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if c.Name == "" {
		return invalid("name", "Please add a condition name")
	}
	if c.Description == "" {
		return invalid("description", "Please add a description")
	}
	if c.Severity == "" {
		c.Severity = SeverityMedium
	}
	if !validSeverities[c.Severity] {
		return invalid("severity", "Invalid severity: %s", c.Severity)
	}
	if !validSexSpecific[c.SexSpecific] {
		return invalid("sexSpecific", "sexSpecific must be male, female or empty")
	}

	seen := make(map[uuid.UUID]bool, len(c.Symptoms))
	for i := range c.Symptoms {
		cs := &c.Symptoms[i]
		if cs.SymptomID == uuid.Nil {
			return invalid("symptoms", "symptoms[%d].symptom is required", i)
		}
		if seen[cs.SymptomID] {
			return invalid("symptoms", "Symptom %s is listed more than once", cs.SymptomID)
		}
		seen[cs.SymptomID] = true
		if cs.Importance == 0 {
			cs.Importance = DefaultImportance
		}
		if cs.Importance < MinImportance || cs.Importance > MaxImportance {
			return invalid("symptoms", "symptoms[%d].importance must be between %d and %d", i, MinImportance, MaxImportance)
		}
	}

	for i := range c.RecommendedActions {
		ra := &c.RecommendedActions[i]
		ra.Action = strings.TrimSpace(ra.Action)
		if ra.Action == "" {
			return invalid("recommendedActions", "recommendedActions[%d].action is required", i)
		}
		if ra.ForSeverity == "" {
			ra.ForSeverity = SeverityAll
		}
		if !validActionSeverities[ra.ForSeverity] {
			return invalid("recommendedActions", "recommendedActions[%d].forSeverity is invalid: %s", i, ra.ForSeverity)
		}
	}

	c.AgeGroups = lo.Uniq(c.AgeGroups)
	return nil
}

func (s *Service) checkConditionRefs(ctx context.Context, c *Condition) error {
	if err := s.requireSymptoms(ctx, "symptoms", c.SymptomIDs()); err != nil {
		return err
	}
	if len(c.AgeGroups) == 0 {
		return nil
	}
	found, err := s.ageGroups.GetByIDs(ctx, c.AgeGroups)
	if err != nil {
		return err
	}
	known := lo.SliceToMap(found, func(g *AgeGroup) (uuid.UUID, bool) { return g.ID, true })
	for _, id := range c.AgeGroups {
		if !known[id] {
			return invalid("ageGroups", "Age group %s not found", id)
		}
	}
	return nil
}

func (s *Service) CreateCondition(ctx context.Context, c *Condition) error {
	c.ID = uuid.Nil
	if err := normalizeCondition(c); err != nil {
		return err
	}
	return db.WithTx(ctx, s.tx, pgx.TxOptions{}, func(ctx context.Context) error {
		if err := s.checkConditionRefs(ctx, c); err != nil {
			return err
		}
		return s.conditions.Create(ctx, c)
	})
}

func (s *Service) GetCondition(ctx context.Context, id uuid.UUID) (*Condition, error) {
	return s.conditions.GetByID(ctx, id)
}

func (s *Service) ListConditions(ctx context.Context, limit, offset int) ([]*Condition, int, error) {
	return s.conditions.List(ctx, limit, offset)
}

func (s *Service) UpdateCondition(ctx context.Context, c *Condition) error {
	if err := normalizeCondition(c); err != nil {
		return err
	}
	return db.WithTx(ctx, s.tx, pgx.TxOptions{}, func(ctx context.Context) error {
		if _, err := s.conditions.GetByID(ctx, c.ID); err != nil {
			return err
		}
		if err := s.checkConditionRefs(ctx, c); err != nil {
			return err
		}
		return s.conditions.Update(ctx, c)
	})
}

func (s *Service) DeleteCondition(ctx context.Context, id uuid.UUID) error {
	return s.conditions.Delete(ctx, id)
}
