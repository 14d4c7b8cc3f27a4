//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/care360/care360/internal/domain/catalog"
	"github.com/care360/care360/internal/domain/diagnosis"
	"github.com/care360/care360/internal/platform/db"
)

// globalPool is shared by every test and migrated once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pool, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up postgres: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupDatabase(ctx context.Context) (*pgxpool.Pool, func(), error) {
	connStr, stop, err := startPostgres(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 5, MinConns: 1})
	if err != nil {
		stop()
		return nil, nil, err
	}
	if _, err := db.NewMigrator(pool, findMigrationsDir()).Up(ctx); err != nil {
		pool.Close()
		stop()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, func() {
		pool.Close()
		stop()
	}, nil
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// newServices wires both services against the shared pool the way the
// server does, without a cache.
func newServices() (*catalog.Service, *diagnosis.Service) {
	cat := catalog.NewService(
		catalog.NewSymptomRepoPG(globalPool),
		catalog.NewAgeGroupRepoPG(globalPool),
		catalog.NewConditionRepoPG(globalPool),
	)
	cat.SetTxBeginner(globalPool)
	cat.SetResetter(catalog.NewResetterPG(globalPool))

	diag := diagnosis.NewService(diagnosis.NewRepoPG(globalPool), cat)
	diag.SetTxBeginner(globalPool)
	return cat, diag
}

// reseed resets the catalog to the reference data.
func reseed(t *testing.T, ctx context.Context, cat *catalog.Service) {
	t.Helper()
	if _, err := cat.Seed(ctx, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func symptomID(t *testing.T, ctx context.Context, cat *catalog.Service, bodyPart, name string) uuid.UUID {
	t.Helper()
	symptoms, err := cat.ListSymptomsByBodyPart(ctx, bodyPart)
	if err != nil {
		t.Fatalf("list %s symptoms: %v", bodyPart, err)
	}
	for _, s := range symptoms {
		if s.Name == name {
			return s.ID
		}
	}
	t.Fatalf("symptom %q not found under %s", name, bodyPart)
	return uuid.Nil
}

func ageGroupID(t *testing.T, ctx context.Context, cat *catalog.Service, name string) uuid.UUID {
	t.Helper()
	groups, err := cat.ListAgeGroups(ctx)
	if err != nil {
		t.Fatalf("list age groups: %v", err)
	}
	for _, g := range groups {
		if g.Name == name {
			return g.ID
		}
	}
	t.Fatalf("age group %q not found", name)
	return uuid.Nil
}

func uniqueUser(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
