package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/care360/care360/internal/config"
	"github.com/care360/care360/internal/domain/catalog"
	"github.com/care360/care360/internal/domain/diagnosis"
	"github.com/care360/care360/internal/platform/db"
	"github.com/care360/care360/internal/platform/middleware"
)

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:            env,
		CORSOrigins:    []string{"http://localhost:5173"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
		BodyLimit:      "1M",
		AuthSigningKey: "0123456789abcdef0123456789abcdef",
	}
}

func testRouter(cfg *config.Config) http.Handler {
	return newRouter(cfg, zerolog.Nop(), services{
		catalog:   catalog.NewService(nil, nil, nil),
		diagnosis: diagnosis.NewService(nil, nil),
	})
}

func TestRootCmd_Commands(t *testing.T) {
	root := rootCmd()
	want := map[string]bool{"serve": false, "migrate": false, "seed": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand", name)
		}
	}
}

func TestMigrateCmd_Subcommands(t *testing.T) {
	cmd := migrateCmd()
	for _, name := range []string{"up", "status"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected migrate %s, got %v", name, err)
		}
		if sub.Flags().Lookup("dir") == nil {
			t.Errorf("expected --dir flag on migrate %s", name)
		}
	}
}

func TestSeedCmd_ResetFlag(t *testing.T) {
	cmd := seedCmd()
	if err := cmd.ParseFlags([]string{"--reset"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	reset, err := cmd.Flags().GetBool("reset")
	if err != nil || !reset {
		t.Errorf("expected --reset to parse as true, got %v (%v)", reset, err)
	}
}

func TestMigrationsDir_FlagOverridesConfig(t *testing.T) {
	cfg := &config.Config{MigrationsDir: "./migrations"}
	cmd := migrateCmd().Commands()[0]
	if got := migrationsDir(cmd, cfg); got != "./migrations" {
		t.Errorf("expected config dir, got %q", got)
	}
	_ = cmd.Flags().Set("dir", "/tmp/other")
	if got := migrationsDir(cmd, cfg); got != "/tmp/other" {
		t.Errorf("expected flag dir, got %q", got)
	}
}

func TestPrintStatus(t *testing.T) {
	applied := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "catalog", Applied: true, AppliedAt: &applied},
		{Version: 2, Name: "diagnoses"},
	})
	out := buf.String()
	if !strings.Contains(out, "2026-03-01 12:00:00") {
		t.Errorf("expected applied timestamp in output:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending migration in output:\n%s", out)
	}
}

func TestRateLimitConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &config.Config{}
	if got, want := rateLimitConfig(cfg), middleware.DefaultRateLimitConfig(); got != want {
		t.Errorf("expected defaults %+v, got %+v", want, got)
	}

	cfg.RateLimitRPS, cfg.RateLimitBurst = 5, 10
	got := rateLimitConfig(cfg)
	if got.RequestsPerSecond != 5 || got.BurstSize != 10 {
		t.Errorf("expected configured limits, got %+v", got)
	}
	if got.IdleTTL == 0 {
		t.Error("expected idle ttl to be filled in")
	}
}

func TestRouter_ProductionRequiresToken(t *testing.T) {
	h := testRouter(testConfig("production"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symptom-checker/diagnosis/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestRouter_DevelopmentRunsAsDevAdmin(t *testing.T) {
	h := testRouter(testConfig("development"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symptom-checker/diagnosis/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected the dev user to reach the handler and get 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Valid diagnosis ID is required") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_PublicCatalogRoute(t *testing.T) {
	h := testRouter(testConfig("production"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symptom-checker/symptoms/tail", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected public body-part route to validate without auth, got %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}
