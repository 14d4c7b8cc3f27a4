package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/care360/care360/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const diagnosisCols = `id, user_id, symptom_ids, age_group_id, sex, filtered_out, possible_conditions, created_at`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	var conditions []byte
	err := row.Scan(&d.ID, &d.UserID, &d.Symptoms, &d.AgeGroupID, &d.Sex,
		&d.FilteredOut, &conditions, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(conditions, &d.PossibleConditions); err != nil {
		return nil, fmt.Errorf("decode possible conditions of %s: %w", d.ID, err)
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.PossibleConditions == nil {
		d.PossibleConditions = []PossibleCondition{}
	}
	conditions, err := json.Marshal(d.PossibleConditions)
	if err != nil {
		return fmt.Errorf("encode possible conditions: %w", err)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO diagnosis (id, user_id, symptom_ids, age_group_id, sex, filtered_out, possible_conditions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		d.ID, d.UserID, d.Symptoms, d.AgeGroupID, d.Sex, d.FilteredOut, conditions,
	).Scan(&d.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*Diagnosis, error) {
	return scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE id = $1 AND ($2::text = '' OR user_id = $2::text)`,
		id, ownerID))
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID string) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
