package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Symptom is a reportable symptom. AssociatedSymptoms is advisory and never
// used by matching.
type Symptom struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	BodyPart           string      `json:"bodyPart"`
	Severity           string      `json:"severity"`
	AssociatedSymptoms []uuid.UUID `json:"associatedSymptoms"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// SymptomSummary is the embedded form of an associated symptom.
type SymptomSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	BodyPart string    `json:"bodyPart"`
	Severity string    `json:"severity"`
}

// SymptomDetail is a symptom with its associated symptoms expanded.
type SymptomDetail struct {
	Symptom
	AssociatedSymptoms []SymptomSummary `json:"associatedSymptoms"`
}

// AgeGroup is a closed range of ages in days.
type AgeGroup struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MinAgeDays  int       `json:"minAgeDays"`
	MaxAgeDays  int       `json:"maxAgeDays"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ConditionSymptom weights one symptom of a condition. Importance is 1..5.
type ConditionSymptom struct {
	SymptomID  uuid.UUID `json:"symptom"`
	Importance int       `json:"importance"`
}

type RecommendedAction struct {
	Action      string `json:"action"`
	ForSeverity string `json:"forSeverity"`
}

// Condition is a diagnosable condition. Symptoms keep their defined order;
// an empty AgeGroups list means every age, and an empty SexSpecific means
// either sex.
type Condition struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Severity           string              `json:"severity"`
	Symptoms           []ConditionSymptom  `json:"symptoms"`
	RecommendedActions []RecommendedAction `json:"recommendedActions"`
	AgeGroups          []uuid.UUID         `json:"ageGroups"`
	SexSpecific        string              `json:"sexSpecific,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// SymptomIDs returns the condition's symptom ids in defined order.
func (c *Condition) SymptomIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Symptoms))
	for i, cs := range c.Symptoms {
		ids[i] = cs.SymptomID
	}
	return ids
}

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
	SeverityAll    = "all"

	DefaultImportance = 3
	MinImportance     = 1
	MaxImportance     = 5
)

var BodyParts = []string{
	"head", "neck", "chest", "abdomen", "back", "pelvis",
	"arms", "legs", "skin", "general", "other",
}

var validBodyParts = func() map[string]bool {
	m := make(map[string]bool, len(BodyParts))
	for _, bp := range BodyParts {
		m[bp] = true
	}
	return m
}()

var validSeverities = map[string]bool{
	SeverityLow: true, SeverityMedium: true, SeverityHigh: true,
}

var validActionSeverities = map[string]bool{
	SeverityLow: true, SeverityMedium: true, SeverityHigh: true, SeverityAll: true,
}

var validSexSpecific = map[string]bool{
	"": true, "male": true, "female": true,
}

// IsBodyPart reports whether s is one of BodyParts.
func IsBodyPart(s string) bool { return validBodyParts[s] }
