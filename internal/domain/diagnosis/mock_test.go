package diagnosis

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/care360/care360/internal/domain/catalog"
)

// -- Mock Repository --

type mockRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*Diagnosis
	clock   time.Time
	failErr error
	reads   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		items: make(map[uuid.UUID]*Diagnosis),
		clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepo) Create(_ context.Context, d *Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Minute)
	d.CreatedAt = m.clock
	cp := *d
	m.items[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID, ownerID string) (*Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	d, ok := m.items[id]
	if !ok || (ownerID != "" && d.UserID != ownerID) {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) ListByOwner(_ context.Context, ownerID string) ([]*Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var out []*Diagnosis
	for _, d := range m.items {
		if d.UserID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// -- Mock Catalog --

type mockCatalog struct {
	mu         sync.Mutex
	symptoms   map[uuid.UUID]*catalog.Symptom
	ageGroups  map[uuid.UUID]*catalog.AgeGroup
	conditions []*catalog.Condition
	queries    int
	failErr    error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		symptoms:  make(map[uuid.UUID]*catalog.Symptom),
		ageGroups: make(map[uuid.UUID]*catalog.AgeGroup),
	}
}

func (m *mockCatalog) addSymptom(id uuid.UUID, name string) {
	m.symptoms[id] = &catalog.Symptom{ID: id, Name: name, Description: name + " description", BodyPart: "general"}
}

func (m *mockCatalog) addAgeGroup(id uuid.UUID, name string) {
	m.ageGroups[id] = &catalog.AgeGroup{ID: id, Name: name, Description: name + " range"}
}

func (m *mockCatalog) addCondition(c *catalog.Condition) {
	m.conditions = append(m.conditions, c)
}

func (m *mockCatalog) touch() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	return m.failErr
}

func (m *mockCatalog) AgeGroupExists(_ context.Context, id uuid.UUID) (bool, error) {
	if err := m.touch(); err != nil {
		return false, err
	}
	_, ok := m.ageGroups[id]
	return ok, nil
}

func (m *mockCatalog) SymptomsByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.Symptom, error) {
	if err := m.touch(); err != nil {
		return nil, err
	}
	var out []*catalog.Symptom
	for _, id := range ids {
		if s, ok := m.symptoms[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockCatalog) AgeGroupsByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.AgeGroup, error) {
	if err := m.touch(); err != nil {
		return nil, err
	}
	var out []*catalog.AgeGroup
	for _, id := range ids {
		if g, ok := m.ageGroups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockCatalog) ConditionsByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.Condition, error) {
	if err := m.touch(); err != nil {
		return nil, err
	}
	want := NewSymptomSet(ids)
	var out []*catalog.Condition
	for _, c := range m.conditions {
		if want.Has(c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCatalog) ConditionsBySymptoms(_ context.Context, symptomIDs []uuid.UUID) ([]*catalog.Condition, error) {
	if err := m.touch(); err != nil {
		return nil, err
	}
	submitted := NewSymptomSet(symptomIDs)
	var out []*catalog.Condition
	for _, c := range m.conditions {
		for _, cs := range c.Symptoms {
			if submitted.Has(cs.SymptomID) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store down")

// newTestService returns a service over the Common Cold fixture catalog.
func newTestService() (*Service, *mockRepo, *mockCatalog) {
	repo := newMockRepo()
	cat := newMockCatalog()
	cat.addSymptom(cough, "Cough")
	cat.addSymptom(soreThroat, "Sore Throat")
	cat.addSymptom(headache, "Headache")
	cat.addSymptom(fatigue, "Fatigue")
	cat.addSymptom(rash, "Rash")
	cat.addAgeGroup(adult, "Adult")
	cat.addAgeGroup(child, "Child")
	cat.addCondition(commonCold())
	return NewService(repo, cat), repo, cat
}

func ids(us ...uuid.UUID) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.String()
	}
	return out
}
