package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/care360/care360/internal/platform/db"
)

const pgUniqueViolation = "23505"

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateName
	}
	return err
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// -- Symptoms --

type symptomRepoPG struct{ pool *pgxpool.Pool }

func NewSymptomRepoPG(pool *pgxpool.Pool) SymptomRepository {
	return &symptomRepoPG{pool: pool}
}

func (r *symptomRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const symptomCols = `s.id, s.name, s.description, s.body_part, s.severity,
	COALESCE((SELECT array_agg(a.associated_id ORDER BY a.position)
		FROM symptom_association a WHERE a.symptom_id = s.id), '{}'),
	s.created_at, s.updated_at`

func scanSymptom(row pgx.Row) (*Symptom, error) {
	var s Symptom
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.BodyPart, &s.Severity,
		&s.AssociatedSymptoms, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapPGError(err)
	}
	return &s, nil
}

func collectSymptoms(rows pgx.Rows) ([]*Symptom, error) {
	defer rows.Close()
	var items []*Symptom
	for rows.Next() {
		s, err := scanSymptom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *symptomRepoPG) Create(ctx context.Context, s *Symptom) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO symptom (id, name, description, body_part, severity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`,
			s.ID, s.Name, s.Description, s.BodyPart, s.Severity,
		).Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return r.writeAssociations(ctx, s)
	})
}

func (r *symptomRepoPG) writeAssociations(ctx context.Context, s *Symptom) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM symptom_association WHERE symptom_id = $1`, s.ID); err != nil {
		return err
	}
	for i, assoc := range s.AssociatedSymptoms {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO symptom_association (symptom_id, associated_id, position)
			VALUES ($1, $2, $3)`, s.ID, assoc, i); err != nil {
			return mapPGError(err)
		}
	}
	return nil
}

func (r *symptomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Symptom, error) {
	return scanSymptom(r.conn(ctx).QueryRow(ctx, `SELECT `+symptomCols+` FROM symptom s WHERE s.id = $1`, id))
}

func (r *symptomRepoPG) GetByName(ctx context.Context, name string) (*Symptom, error) {
	return scanSymptom(r.conn(ctx).QueryRow(ctx, `SELECT `+symptomCols+` FROM symptom s WHERE s.name = $1`, name))
}

func (r *symptomRepoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Symptom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+symptomCols+` FROM symptom s WHERE s.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectSymptoms(rows)
}

func (r *symptomRepoPG) ListByBodyPart(ctx context.Context, bodyPart string) ([]*Symptom, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+symptomCols+` FROM symptom s WHERE s.body_part = $1 ORDER BY s.name`, bodyPart)
	if err != nil {
		return nil, err
	}
	return collectSymptoms(rows)
}

func (r *symptomRepoPG) List(ctx context.Context, limit, offset int) ([]*Symptom, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM symptom`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+symptomCols+` FROM symptom s ORDER BY s.name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectSymptoms(rows)
	return items, total, err
}

func (r *symptomRepoPG) Update(ctx context.Context, s *Symptom) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			UPDATE symptom SET name = $2, description = $3, body_part = $4, severity = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at`,
			s.ID, s.Name, s.Description, s.BodyPart, s.Severity,
		).Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return r.writeAssociations(ctx, s)
	})
}

func (r *symptomRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM symptom WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Age groups --

type ageGroupRepoPG struct{ pool *pgxpool.Pool }

func NewAgeGroupRepoPG(pool *pgxpool.Pool) AgeGroupRepository {
	return &ageGroupRepoPG{pool: pool}
}

func (r *ageGroupRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const ageGroupCols = `id, name, min_age_days, max_age_days, description, created_at, updated_at`

func scanAgeGroup(row pgx.Row) (*AgeGroup, error) {
	var g AgeGroup
	if err := row.Scan(&g.ID, &g.Name, &g.MinAgeDays, &g.MaxAgeDays, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, mapPGError(err)
	}
	return &g, nil
}

func (r *ageGroupRepoPG) Create(ctx context.Context, g *AgeGroup) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO age_group (id, name, min_age_days, max_age_days, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		g.ID, g.Name, g.MinAgeDays, g.MaxAgeDays, g.Description,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	return mapPGError(err)
}

func (r *ageGroupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AgeGroup, error) {
	return scanAgeGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+ageGroupCols+` FROM age_group WHERE id = $1`, id))
}

func (r *ageGroupRepoPG) GetByName(ctx context.Context, name string) (*AgeGroup, error) {
	return scanAgeGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+ageGroupCols+` FROM age_group WHERE name = $1`, name))
}

func (r *ageGroupRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*AgeGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AgeGroup
	for rows.Next() {
		g, err := scanAgeGroup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (r *ageGroupRepoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*AgeGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+ageGroupCols+` FROM age_group WHERE id = ANY($1)`, ids)
}

func (r *ageGroupRepoPG) List(ctx context.Context) ([]*AgeGroup, error) {
	return r.query(ctx, `SELECT `+ageGroupCols+` FROM age_group ORDER BY min_age_days, name`)
}

// -- Conditions --

type conditionRepoPG struct{ pool *pgxpool.Pool }

func NewConditionRepoPG(pool *pgxpool.Pool) ConditionRepository {
	return &conditionRepoPG{pool: pool}
}

func (r *conditionRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const conditionCols = `c.id, c.name, c.description, c.severity, COALESCE(c.sex_specific, ''),
	c.recommended_actions, c.age_group_ids, c.created_at, c.updated_at`

func scanCondition(row pgx.Row) (*Condition, error) {
	var c Condition
	var actions []byte
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Severity, &c.SexSpecific,
		&actions, &c.AgeGroups, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapPGError(err)
	}
	if err := json.Unmarshal(actions, &c.RecommendedActions); err != nil {
		return nil, fmt.Errorf("decode recommended actions of %s: %w", c.ID, err)
	}
	return &c, nil
}

// load runs a condition query and attaches each condition's symptom list.
// Callers that need both reads from one snapshot wrap this in db.WithTx.
func (r *conditionRepoPG) load(ctx context.Context, sql string, args ...interface{}) ([]*Condition, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var items []*Condition
	byID := make(map[uuid.UUID]*Condition)
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, c)
		byID[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.ID)
	}
	srows, err := r.conn(ctx).Query(ctx, `
		SELECT condition_id, symptom_id, importance
		FROM condition_symptom
		WHERE condition_id = ANY($1)
		ORDER BY condition_id, position`, ids)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var condID uuid.UUID
		var cs ConditionSymptom
		if err := srows.Scan(&condID, &cs.SymptomID, &cs.Importance); err != nil {
			return nil, err
		}
		if c, ok := byID[condID]; ok {
			c.Symptoms = append(c.Symptoms, cs)
		}
	}
	return items, srows.Err()
}

func (r *conditionRepoPG) one(ctx context.Context, sql string, args ...interface{}) (*Condition, error) {
	items, err := r.load(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (r *conditionRepoPG) writeSymptoms(ctx context.Context, c *Condition) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM condition_symptom WHERE condition_id = $1`, c.ID); err != nil {
		return err
	}
	for i, cs := range c.Symptoms {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO condition_symptom (condition_id, symptom_id, importance, position)
			VALUES ($1, $2, $3, $4)`, c.ID, cs.SymptomID, cs.Importance, i); err != nil {
			return mapPGError(err)
		}
	}
	return nil
}

func encodeActions(actions []RecommendedAction) ([]byte, error) {
	if actions == nil {
		actions = []RecommendedAction{}
	}
	return json.Marshal(actions)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *conditionRepoPG) Create(ctx context.Context, c *Condition) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	actions, err := encodeActions(c.RecommendedActions)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO condition (id, name, description, severity, sex_specific, recommended_actions, age_group_ids)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`,
			c.ID, c.Name, c.Description, c.Severity, nullableString(c.SexSpecific), actions, nonNilIDs(c.AgeGroups),
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return r.writeSymptoms(ctx, c)
	})
}

func (r *conditionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Condition, error) {
	return r.one(ctx, `SELECT `+conditionCols+` FROM condition c WHERE c.id = $1`, id)
}

func (r *conditionRepoPG) GetByName(ctx context.Context, name string) (*Condition, error) {
	return r.one(ctx, `SELECT `+conditionCols+` FROM condition c WHERE c.name = $1`, name)
}

func (r *conditionRepoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Condition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.load(ctx, `SELECT `+conditionCols+` FROM condition c WHERE c.id = ANY($1)`, ids)
}

func (r *conditionRepoPG) ListBySymptoms(ctx context.Context, symptomIDs []uuid.UUID) ([]*Condition, error) {
	if len(symptomIDs) == 0 {
		return nil, nil
	}
	return r.load(ctx, `
		SELECT `+conditionCols+` FROM condition c
		WHERE EXISTS (
			SELECT 1 FROM condition_symptom cs
			WHERE cs.condition_id = c.id AND cs.symptom_id = ANY($1)
		)
		ORDER BY c.seq`, symptomIDs)
}

func (r *conditionRepoPG) List(ctx context.Context, limit, offset int) ([]*Condition, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM condition`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.load(ctx, `SELECT `+conditionCols+` FROM condition c ORDER BY c.name LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *conditionRepoPG) Update(ctx context.Context, c *Condition) error {
	actions, err := encodeActions(c.RecommendedActions)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			UPDATE condition SET name = $2, description = $3, severity = $4, sex_specific = $5,
				recommended_actions = $6, age_group_ids = $7, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at`,
			c.ID, c.Name, c.Description, c.Severity, nullableString(c.SexSpecific), actions, nonNilIDs(c.AgeGroups),
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return r.writeSymptoms(ctx, c)
	})
}

func (r *conditionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM condition WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Reset --

type resetterPG struct{ pool *pgxpool.Pool }

func NewResetterPG(pool *pgxpool.Pool) Resetter {
	return &resetterPG{pool: pool}
}

func (r *resetterPG) Reset(ctx context.Context) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`TRUNCATE condition_symptom, condition, symptom_association, symptom, age_group RESTART IDENTITY`)
	return err
}
