package diagnosis

import (
	"time"

	"github.com/google/uuid"
)

const (
	SexMale   = "male"
	SexFemale = "female"
	SexOther  = "other"
)

var validSexes = map[string]bool{SexMale: true, SexFemale: true, SexOther: true}

// Diagnosis is one stored symptom check. It is written once and never
// updated; references are only checked when it is created.
type Diagnosis struct {
	ID                 uuid.UUID
	UserID             string
	Symptoms           []uuid.UUID
	AgeGroupID         uuid.UUID
	Sex                string
	PossibleConditions []PossibleCondition
	FilteredOut        int
	CreatedAt          time.Time
}

// MatchingSymptom is a submitted symptom that the condition lists.
type MatchingSymptom struct {
	SymptomID  uuid.UUID `json:"symptom"`
	Name       string    `json:"name"`
	Importance int       `json:"importance"`
}

// PossibleCondition is a ranked match. ConditionName is a snapshot taken
// when the diagnosis was made.
type PossibleCondition struct {
	ConditionID        uuid.UUID         `json:"condition"`
	ConditionName      string            `json:"conditionName"`
	Probability        int               `json:"probability"`
	MatchingSymptoms   []MatchingSymptom `json:"matchingSymptoms"`
	RecommendedActions []string          `json:"recommendedActions"`
}

// CreateRequest is the body of a diagnosis submission.
type CreateRequest struct {
	Symptoms   []string `json:"symptoms"`
	AgeGroupID string   `json:"ageGroupId"`
	Sex        string   `json:"sex"`
}

// Caller is the authenticated identity a request runs as.
type Caller struct {
	UserID string
	Admin  bool
}

// -- Display forms --

type SymptomRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BodyPart    string    `json:"bodyPart,omitempty"`
}

type AgeGroupRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
}

type ConditionRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Severity    string    `json:"severity,omitempty"`
}

type PossibleConditionView struct {
	Condition          ConditionRef      `json:"condition"`
	Probability        int               `json:"probability"`
	MatchingSymptoms   []MatchingSymptom `json:"matchingSymptoms"`
	RecommendedActions []string          `json:"recommendedActions"`
}

// View is a Diagnosis with its references expanded for display.
type View struct {
	ID                 uuid.UUID               `json:"id"`
	UserID             string                  `json:"user"`
	Symptoms           []SymptomRef            `json:"symptoms"`
	AgeGroup           AgeGroupRef             `json:"ageGroup"`
	Sex                string                  `json:"sex"`
	PossibleConditions []PossibleConditionView `json:"possibleConditions"`
	FilteredOut        int                     `json:"filteredOut"`
	CreatedAt          time.Time               `json:"createdAt"`
}

// ReportedSymptom records when a user first and last reported a symptom
// across their diagnoses.
type ReportedSymptom struct {
	SymptomRef
	FirstReported time.Time `json:"firstReported"`
	LastReported  time.Time `json:"lastReported"`
}
