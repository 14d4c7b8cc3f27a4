package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/care360/care360/internal/platform/db"
)

// SeedResult counts the rows inserted and the rows left alone because a row
// with the same name already existed.
type SeedResult struct {
	AgeGroupsCreated  int `json:"ageGroupsCreated"`
	SymptomsCreated   int `json:"symptomsCreated"`
	ConditionsCreated int `json:"conditionsCreated"`
	Skipped           int `json:"skipped"`
}

var seedAgeGroups = []AgeGroup{
	{Name: "Newborn", MinAgeDays: 0, MaxAgeDays: 28, Description: "0-28 days"},
	{Name: "Infant", MinAgeDays: 29, MaxAgeDays: 365, Description: "29 days to 1 year"},
	{Name: "Toddler", MinAgeDays: 366, MaxAgeDays: 1095, Description: "1-3 years"},
	{Name: "Preschool", MinAgeDays: 1096, MaxAgeDays: 1825, Description: "3-5 years"},
	{Name: "Child", MinAgeDays: 1826, MaxAgeDays: 4745, Description: "5-13 years"},
	{Name: "Adolescent", MinAgeDays: 4746, MaxAgeDays: 6205, Description: "13-17 years"},
	{Name: "Adult", MinAgeDays: 6206, MaxAgeDays: 25550, Description: "18-70 years"},
	{Name: "Senior", MinAgeDays: 25551, MaxAgeDays: 36500, Description: "70+ years"},
}

var seedSymptoms = []Symptom{
	{Name: "Fever", BodyPart: "general", Severity: SeverityHigh, Description: "Elevated body temperature above 38°C (100.4°F)"},
	{Name: "Cough", BodyPart: "chest", Severity: SeverityMedium, Description: "Expulsion of air from lungs with sudden sharp sound"},
	{Name: "Headache", BodyPart: "head", Severity: SeverityMedium, Description: "Pain in any region of the head"},
	{Name: "Sore Throat", BodyPart: "neck", Severity: SeverityMedium, Description: "Pain, scratchiness or irritation of the throat"},
	{Name: "Shortness of Breath", BodyPart: "chest", Severity: SeverityHigh, Description: "Difficulty breathing or feeling breathless"},
	{Name: "Chest Pain", BodyPart: "chest", Severity: SeverityHigh, Description: "Pain or discomfort in the chest area"},
	{Name: "Fatigue", BodyPart: "general", Severity: SeverityMedium, Description: "Persistent feeling of tiredness or weakness"},
	{Name: "Nausea", BodyPart: "abdomen", Severity: SeverityMedium, Description: "Feeling of sickness with an inclination to vomit"},
	{Name: "Dizziness", BodyPart: "head", Severity: SeverityMedium, Description: "Sensation of spinning or lightheadedness"},
	{Name: "Rash", BodyPart: "skin", Severity: SeverityLow, Description: "Change in skin appearance or texture"},
}

type seedWeight struct {
	symptom    string
	importance int
}

type seedCondition struct {
	name        string
	description string
	severity    string
	symptoms    []seedWeight
	actions     []RecommendedAction
	ageGroups   []string
}

var seedConditions = []seedCondition{
	{
		name: "Common Cold", severity: SeverityLow,
		description: "Viral infection of the upper respiratory tract",
		symptoms:    []seedWeight{{"Cough", 3}, {"Sore Throat", 2}, {"Headache", 1}, {"Fatigue", 1}},
		actions: []RecommendedAction{
			{Action: "Rest and hydration", ForSeverity: SeverityAll},
			{Action: "Over-the-counter pain relievers", ForSeverity: SeverityAll},
			{Action: "Consult doctor if symptoms persist beyond 10 days", ForSeverity: SeverityMedium},
		},
		ageGroups: []string{"Adult", "Child", "Adolescent"},
	},
	{
		name: "Influenza (Flu)", severity: SeverityHigh,
		description: "Viral infection affecting the respiratory system",
		symptoms:    []seedWeight{{"Fever", 5}, {"Cough", 4}, {"Headache", 3}, {"Fatigue", 4}, {"Sore Throat", 2}},
		actions: []RecommendedAction{
			{Action: "Antiviral medication (if early)", ForSeverity: SeverityHigh},
			{Action: "Rest and fluids", ForSeverity: SeverityAll},
			{Action: "Seek medical attention if severe", ForSeverity: SeverityHigh},
		},
		ageGroups: []string{"Adult", "Child", "Adolescent"},
	},
	{
		name: "Strep Throat", severity: SeverityMedium,
		description: "Bacterial infection causing throat pain",
		symptoms:    []seedWeight{{"Sore Throat", 5}, {"Fever", 4}, {"Headache", 2}},
		actions: []RecommendedAction{
			{Action: "Antibiotics (requires prescription)", ForSeverity: SeverityMedium},
			{Action: "Throat lozenges", ForSeverity: SeverityAll},
			{Action: "Warm salt water gargles", ForSeverity: SeverityAll},
		},
		ageGroups: []string{"Child", "Adolescent"},
	},
	{
		name: "Pneumonia", severity: SeverityHigh,
		description: "Infection that inflames air sacs in one or both lungs",
		symptoms:    []seedWeight{{"Cough", 4}, {"Fever", 4}, {"Shortness of Breath", 5}, {"Chest Pain", 3}, {"Fatigue", 3}},
		actions: []RecommendedAction{
			{Action: "Seek immediate medical attention", ForSeverity: SeverityHigh},
			{Action: "Antibiotics (if bacterial)", ForSeverity: SeverityHigh},
			{Action: "Hospitalization may be required", ForSeverity: SeverityHigh},
		},
		ageGroups: []string{"Adult", "Child", "Senior", "Infant"},
	},
	{
		name: "Migraine", severity: SeverityMedium,
		description: "Recurrent headache disorder",
		symptoms:    []seedWeight{{"Headache", 5}, {"Nausea", 3}, {"Dizziness", 2}},
		actions: []RecommendedAction{
			{Action: "Rest in a quiet, dark room", ForSeverity: SeverityAll},
			{Action: "Prescription migraine medication", ForSeverity: SeverityMedium},
			{Action: "Hydration and regular meals", ForSeverity: SeverityAll},
		},
		ageGroups: []string{"Adult", "Adolescent"},
	},
	{
		name: "Allergic Reaction", severity: SeverityMedium,
		description: "Immune system response to allergens",
		symptoms:    []seedWeight{{"Rash", 4}, {"Shortness of Breath", 3}, {"Dizziness", 2}},
		actions: []RecommendedAction{
			{Action: "Antihistamines", ForSeverity: SeverityAll},
			{Action: "Epinephrine for severe reactions", ForSeverity: SeverityHigh},
			{Action: "Avoid known allergens", ForSeverity: SeverityAll},
		},
		ageGroups: []string{"Adult", "Child", "Adolescent", "Infant"},
	},
}

// Seed loads the reference catalog in one transaction. With reset the
// existing catalog is wiped first; otherwise rows whose name already exists
// are kept as they are and reused for references.
func (s *Service) Seed(ctx context.Context, reset bool) (*SeedResult, error) {
	res := &SeedResult{}
	err := db.WithTx(ctx, s.tx, pgx.TxOptions{}, func(ctx context.Context) error {
		if reset {
			if s.resetter == nil {
				return fmt.Errorf("seed: reset requested but no resetter configured")
			}
			if err := s.resetter.Reset(ctx); err != nil {
				return fmt.Errorf("seed: reset catalog: %w", err)
			}
		}

		ageGroupIDs := make(map[string]uuid.UUID, len(seedAgeGroups))
		for _, g := range seedAgeGroups {
			existing, err := s.ageGroups.GetByName(ctx, g.Name)
			switch {
			case err == nil:
				ageGroupIDs[g.Name] = existing.ID
				res.Skipped++
				continue
			case !errors.Is(err, ErrNotFound):
				return fmt.Errorf("seed: age group %s: %w", g.Name, err)
			}
			if err := s.ageGroups.Create(ctx, &g); err != nil {
				return fmt.Errorf("seed: create age group %s: %w", g.Name, err)
			}
			ageGroupIDs[g.Name] = g.ID
			res.AgeGroupsCreated++
		}

		symptomIDs := make(map[string]uuid.UUID, len(seedSymptoms))
		for _, sym := range seedSymptoms {
			existing, err := s.symptoms.GetByName(ctx, sym.Name)
			switch {
			case err == nil:
				symptomIDs[sym.Name] = existing.ID
				res.Skipped++
				continue
			case !errors.Is(err, ErrNotFound):
				return fmt.Errorf("seed: symptom %s: %w", sym.Name, err)
			}
			if err := s.symptoms.Create(ctx, &sym); err != nil {
				return fmt.Errorf("seed: create symptom %s: %w", sym.Name, err)
			}
			symptomIDs[sym.Name] = sym.ID
			res.SymptomsCreated++
		}

		for _, sc := range seedConditions {
			_, err := s.conditions.GetByName(ctx, sc.name)
			if err == nil {
				res.Skipped++
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("seed: condition %s: %w", sc.name, err)
			}

			c := &Condition{
				Name:               sc.name,
				Description:        sc.description,
				Severity:           sc.severity,
				RecommendedActions: append([]RecommendedAction(nil), sc.actions...),
			}
			for _, w := range sc.symptoms {
				c.Symptoms = append(c.Symptoms, ConditionSymptom{SymptomID: symptomIDs[w.symptom], Importance: w.importance})
			}
			for _, name := range sc.ageGroups {
				c.AgeGroups = append(c.AgeGroups, ageGroupIDs[name])
			}
			if err := s.conditions.Create(ctx, c); err != nil {
				return fmt.Errorf("seed: create condition %s: %w", sc.name, err)
			}
			res.ConditionsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cacheKeyAgeGroups)
	s.invalidate(ctx, cacheKeySymptomsPrefix)
	return res, nil
}
