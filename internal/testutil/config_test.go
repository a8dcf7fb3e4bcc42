package testutil

import "testing"

func TestDefaultTestDBConfig(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "")
	t.Setenv("TEST_DB_PORT", "")
	t.Setenv("TEST_DB_USER", "")
	t.Setenv("TEST_DB_PASSWORD", "")
	t.Setenv("TEST_DB_NAME", "")

	cfg := DefaultTestDBConfig()
	if cfg.Host != "localhost" || cfg.Port != "55432" {
		t.Fatalf("unexpected host/port %s:%s", cfg.Host, cfg.Port)
	}
	if cfg.User != "relay" || cfg.Password != "relay" || cfg.DBName != "relay" {
		t.Fatalf("unexpected credentials %#v", cfg)
	}

	t.Setenv("TEST_DB_PORT", "5432")
	if got := DefaultTestDBConfig().Port; got != "5432" {
		t.Fatalf("expected env override, got %s", got)
	}
}

func TestNewJobParams(t *testing.T) {
	a := NewJobParams().Build()
	b := NewJobParams().WithID("job_fixed").WithSubmissionID("s2").Build()

	if err := a.Validate(); err != nil {
		t.Fatalf("default params should validate: %v", err)
	}
	if a.ID == b.ID || b.ID != "job_fixed" || b.SubmissionID != "s2" {
		t.Fatalf("unexpected builder output %#v / %#v", a, b)
	}
}
