package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockSymptomRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Symptom
}

func newMockSymptomRepo() *mockSymptomRepo {
	return &mockSymptomRepo{items: make(map[uuid.UUID]*Symptom)}
}

func (m *mockSymptomRepo) Create(_ context.Context, s *Symptom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Name == s.Name {
			return ErrDuplicateName
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockSymptomRepo) GetByID(_ context.Context, id uuid.UUID) (*Symptom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSymptomRepo) GetByName(_ context.Context, name string) (*Symptom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockSymptomRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*Symptom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Symptom
	for _, id := range ids {
		if s, ok := m.items[id]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSymptomRepo) sorted() []*Symptom {
	var out []*Symptom
	for _, s := range m.items {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockSymptomRepo) ListByBodyPart(_ context.Context, bodyPart string) ([]*Symptom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Symptom
	for _, s := range m.sorted() {
		if s.BodyPart == bodyPart {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSymptomRepo) List(_ context.Context, limit, offset int) ([]*Symptom, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockSymptomRepo) Update(_ context.Context, s *Symptom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.items {
		if id != s.ID && existing.Name == s.Name {
			return ErrDuplicateName
		}
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockSymptomRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type mockAgeGroupRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*AgeGroup
	lists int
}

func newMockAgeGroupRepo() *mockAgeGroupRepo {
	return &mockAgeGroupRepo{items: make(map[uuid.UUID]*AgeGroup)}
}

func (m *mockAgeGroupRepo) Create(_ context.Context, g *AgeGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Name == g.Name {
			return ErrDuplicateName
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	m.items[g.ID] = &cp
	return nil
}

func (m *mockAgeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockAgeGroupRepo) GetByName(_ context.Context, name string) (*AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.items {
		if g.Name == name {
			cp := *g
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockAgeGroupRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*AgeGroup
	for _, id := range ids {
		if g, ok := m.items[id]; ok {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAgeGroupRepo) List(_ context.Context) ([]*AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []*AgeGroup
	for _, g := range m.items {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinAgeDays < out[j].MinAgeDays })
	return out, nil
}

type mockConditionRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Condition
	order []uuid.UUID // insertion order
}

func newMockConditionRepo() *mockConditionRepo {
	return &mockConditionRepo{items: make(map[uuid.UUID]*Condition)}
}

func cloneCondition(c *Condition) *Condition {
	cp := *c
	cp.Symptoms = append([]ConditionSymptom(nil), c.Symptoms...)
	cp.RecommendedActions = append([]RecommendedAction(nil), c.RecommendedActions...)
	cp.AgeGroups = append([]uuid.UUID(nil), c.AgeGroups...)
	return &cp
}

func (m *mockConditionRepo) Create(_ context.Context, c *Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Name == c.Name {
			return ErrDuplicateName
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.items[c.ID] = cloneCondition(c)
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockConditionRepo) GetByID(_ context.Context, id uuid.UUID) (*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCondition(c), nil
}

func (m *mockConditionRepo) GetByName(_ context.Context, name string) (*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.Name == name {
			return cloneCondition(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockConditionRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Condition
	for _, id := range ids {
		if c, ok := m.items[id]; ok {
			out = append(out, cloneCondition(c))
		}
	}
	return out, nil
}

func (m *mockConditionRepo) sorted() []*Condition {
	var out []*Condition
	for _, c := range m.items {
		out = append(out, cloneCondition(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out
}

func (m *mockConditionRepo) ListBySymptoms(_ context.Context, symptomIDs []uuid.UUID) ([]*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(symptomIDs))
	for _, id := range symptomIDs {
		want[id] = true
	}
	var out []*Condition
	for _, id := range m.order {
		c, ok := m.items[id]
		if !ok {
			continue
		}
		for _, cs := range c.Symptoms {
			if want[cs.SymptomID] {
				out = append(out, cloneCondition(c))
				break
			}
		}
	}
	return out, nil
}

func (m *mockConditionRepo) List(_ context.Context, limit, offset int) ([]*Condition, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockConditionRepo) Update(_ context.Context, c *Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.ID]; !ok {
		return ErrNotFound
	}
	m.items[c.ID] = cloneCondition(c)
	return nil
}

func (m *mockConditionRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type mockResetter struct {
	symptoms   *mockSymptomRepo
	ageGroups  *mockAgeGroupRepo
	conditions *mockConditionRepo
	calls      int
}

func (m *mockResetter) Reset(context.Context) error {
	m.calls++
	m.symptoms.items = make(map[uuid.UUID]*Symptom)
	m.ageGroups.items = make(map[uuid.UUID]*AgeGroup)
	m.conditions.items = make(map[uuid.UUID]*Condition)
	m.conditions.order = nil
	return nil
}

// memoryCache is a cache.Store backed by a map.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }

type testCatalog struct {
	svc        *Service
	symptoms   *mockSymptomRepo
	ageGroups  *mockAgeGroupRepo
	conditions *mockConditionRepo
	cache      *memoryCache
}

func newTestCatalog() *testCatalog {
	tc := &testCatalog{
		symptoms:   newMockSymptomRepo(),
		ageGroups:  newMockAgeGroupRepo(),
		conditions: newMockConditionRepo(),
		cache:      newMemoryCache(),
	}
	tc.svc = NewService(tc.symptoms, tc.ageGroups, tc.conditions)
	tc.svc.SetCache(tc.cache, time.Minute)
	tc.svc.SetResetter(&mockResetter{symptoms: tc.symptoms, ageGroups: tc.ageGroups, conditions: tc.conditions})
	return tc
}
