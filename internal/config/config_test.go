package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c := Load()

	if c.AppPort != "8080" {
		t.Fatalf("AppPort = %q", c.AppPort)
	}
	if c.MySQLDB != "loanworkflow" || c.MySQLUser != "loanworkflow" {
		t.Fatalf("mysql defaults = %q/%q", c.MySQLDB, c.MySQLUser)
	}
	if c.IdempTTLSecs != 300 {
		t.Fatalf("IdempTTLSecs = %d", c.IdempTTLSecs)
	}
	if c.LogLevel != "info" || c.LogFormat != "json" {
		t.Fatalf("log defaults = %q/%q", c.LogLevel, c.LogFormat)
	}

	// no base URL configured → orchestrator disabled
	if c.Conductor.Enabled {
		t.Fatal("Conductor.Enabled should default to false without a base URL")
	}
	if c.Conductor.PollInterval != time.Second || c.Conductor.ErrorBackoff != 2*time.Second {
		t.Fatalf("poll timings = %v / %v", c.Conductor.PollInterval, c.Conductor.ErrorBackoff)
	}
	if !strings.HasSuffix(c.Conductor.WorkerID, "_loanwf") {
		t.Fatalf("WorkerID = %q", c.Conductor.WorkerID)
	}
}

func TestLoad_ConductorFromEnv(t *testing.T) {
	t.Setenv("CONDUCTOR_BASE_URL", "http://conductor:8080/api")
	t.Setenv("CONDUCTOR_KEY_ID", "kid")
	t.Setenv("CONDUCTOR_KEY_SECRET", "ks")
	t.Setenv("CONDUCTOR_WORKER_ID", "w1")
	t.Setenv("CONDUCTOR_POLL_INTERVAL_MS", "250")
	t.Setenv("CONDUCTOR_ERROR_BACKOFF_MS", "500")

	c := Load()
	cc := c.Conductor
	if !cc.Enabled {
		t.Fatal("base URL set → enabled by default")
	}
	if cc.BaseURL != "http://conductor:8080/api" || cc.KeyID != "kid" || cc.KeySecret != "ks" {
		t.Fatalf("conductor = %+v", cc)
	}
	if cc.WorkerID != "w1" {
		t.Fatalf("WorkerID = %q", cc.WorkerID)
	}
	if cc.PollInterval != 250*time.Millisecond || cc.ErrorBackoff != 500*time.Millisecond {
		t.Fatalf("timings = %v / %v", cc.PollInterval, cc.ErrorBackoff)
	}
}

func TestLoad_ConductorForcedOff(t *testing.T) {
	t.Setenv("CONDUCTOR_BASE_URL", "http://conductor:8080/api")
	t.Setenv("CONDUCTOR_ENABLED", "false")

	if c := Load(); c.Conductor.Enabled {
		t.Fatal("CONDUCTOR_ENABLED=false must win over a configured base URL")
	}
}

func TestValidate(t *testing.T) {
	ok := Load()
	if err := ok.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := Load()
	bad.MySQLPort = "not-a-port"
	if err := bad.Validate(); err == nil {
		t.Fatal("invalid port must fail validation")
	}

	bad = Load()
	bad.Conductor.Enabled = true
	bad.Conductor.BaseURL = ""
	if err := bad.Validate(); err == nil {
		t.Fatal("enabled without base URL must fail validation")
	}
}

func TestMySQLDSN(t *testing.T) {
	c := Load()
	c.MySQLUser, c.MySQLPass = "u", "p"
	c.MySQLHost, c.MySQLPort, c.MySQLDB = "dbhost", "3307", "loans"

	dsn := c.MySQLDSN()
	want := "u:p@tcp(dbhost:3307)/loans?"
	if !strings.HasPrefix(dsn, want) {
		t.Fatalf("dsn = %q, want prefix %q", dsn, want)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn missing parseTime: %q", dsn)
	}
}
