package diagnosis

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/care360/care360/internal/domain/catalog"
)

const (
	partialScoreCeiling = 90
	completenessBonus   = 10
	maxProbability      = 100
)

// SymptomSet is the submitted symptom ids. Ids that name no symptom are
// allowed and simply never match.
type SymptomSet map[uuid.UUID]struct{}

func NewSymptomSet(ids []uuid.UUID) SymptomSet {
	set := make(SymptomSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s SymptomSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Match is the score of one candidate condition.
type Match struct {
	Condition          *catalog.Condition
	Probability        int
	MatchingSymptoms   []catalog.ConditionSymptom
	RecommendedActions []string
	AgeCompatible      bool
	SexCompatible      bool
}

// Included reports whether the match belongs in the result list.
func (m *Match) Included() bool {
	return m.Probability > 0 && m.AgeCompatible && m.SexCompatible
}

// Filtered reports a scored match that the age or sex gate removed.
func (m *Match) Filtered() bool {
	return m.Probability > 0 && !(m.AgeCompatible && m.SexCompatible)
}

// MatchCondition scores cond against the submitted symptoms. It returns nil
// when the condition shares no symptom with the submission or lists no
// symptoms at all. Malformed catalog data yields a *ComputationError.
func MatchCondition(cond *catalog.Condition, submitted SymptomSet, ageGroupID uuid.UUID, sex string) (*Match, error) {
	if err := checkCondition(cond); err != nil {
		return nil, err
	}

	var matching []catalog.ConditionSymptom
	score, maxScore := 0, 0
	for _, cs := range cond.Symptoms {
		maxScore += cs.Importance
		if submitted.Has(cs.SymptomID) {
			matching = append(matching, cs)
			score += cs.Importance
		}
	}
	if len(matching) == 0 || maxScore <= 0 {
		return nil, nil
	}

	probability := min(partialScoreCeiling, roundPercent(score, maxScore))
	if len(matching) == len(cond.Symptoms) {
		probability = min(maxProbability, probability+completenessBonus)
	}
	if probability < 0 || probability > maxProbability {
		return nil, &ComputationError{ConditionID: cond.ID, Reason: "probability out of range"}
	}

	return &Match{
		Condition:          cond,
		Probability:        probability,
		MatchingSymptoms:   matching,
		RecommendedActions: actionsFor(cond),
		AgeCompatible:      len(cond.AgeGroups) == 0 || lo.Contains(cond.AgeGroups, ageGroupID),
		SexCompatible:      cond.SexSpecific == "" || cond.SexSpecific == sex,
	}, nil
}

func checkCondition(cond *catalog.Condition) error {
	seen := make(map[uuid.UUID]bool, len(cond.Symptoms))
	for _, cs := range cond.Symptoms {
		if cs.Importance < catalog.MinImportance || cs.Importance > catalog.MaxImportance {
			return &ComputationError{ConditionID: cond.ID, Reason: "symptom importance outside 1..5"}
		}
		if seen[cs.SymptomID] {
			return &ComputationError{ConditionID: cond.ID, Reason: "symptom listed more than once"}
		}
		seen[cs.SymptomID] = true
	}
	return nil
}

// roundPercent returns num/den*100 rounded half away from zero. num and den
// are non-negative and den is positive.
func roundPercent(num, den int) int {
	return (200*num + den) / (2 * den)
}

func actionsFor(cond *catalog.Condition) []string {
	kept := lo.Filter(cond.RecommendedActions, func(a catalog.RecommendedAction, _ int) bool {
		return a.ForSeverity == catalog.SeverityAll || a.ForSeverity == cond.Severity
	})
	return lo.Map(kept, func(a catalog.RecommendedAction, _ int) string { return a.Action })
}

// Rank orders matches by probability, highest first. Equal probabilities keep
// their input order.
func Rank(matches []*Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Probability > matches[j].Probability
	})
}
