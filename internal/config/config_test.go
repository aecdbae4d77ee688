package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_AuditForwardRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("AUDIT_FORWARD_ENABLED", "true")
	t.Setenv("AUDIT_FORWARD_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when AUDIT_FORWARD_ENABLED=true without AUDIT_FORWARD_ENDPOINT")
	}
}

func TestLoad_AuditForwardConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("AUDIT_FORWARD_ENABLED", "true")
	t.Setenv("AUDIT_FORWARD_ENDPOINT", "https://audit.example.com/v1/entries")
	t.Setenv("AUDIT_FORWARD_API_KEY", "key-123")
	t.Setenv("AUDIT_FORWARD_TIMEOUT", "4s")
	t.Setenv("AUDIT_FORWARD_ASYNC", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AuditForwardEnabled {
		t.Fatalf("expected AuditForwardEnabled=true")
	}
	if cfg.AuditForwardEndpoint != "https://audit.example.com/v1/entries" {
		t.Fatalf("unexpected AuditForwardEndpoint: %q", cfg.AuditForwardEndpoint)
	}
	if cfg.AuditForwardAPIKey != "key-123" {
		t.Fatalf("unexpected AuditForwardAPIKey")
	}
	if cfg.AuditForwardTimeout != 4*time.Second {
		t.Fatalf("unexpected AuditForwardTimeout: %s", cfg.AuditForwardTimeout)
	}
	if cfg.AuditForwardAsync {
		t.Fatalf("expected AuditForwardAsync=false")
	}
}

func TestLoad_AuthCircuitDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AuthCircuitEnabled {
		t.Fatalf("expected AuthCircuitEnabled=true by default")
	}
	if cfg.AuthCircuitFailureCount != 5 {
		t.Fatalf("unexpected AuthCircuitFailureCount: %d", cfg.AuthCircuitFailureCount)
	}
	if cfg.AuthCircuitOpenTimeout != 15*time.Second {
		t.Fatalf("unexpected AuthCircuitOpenTimeout: %s", cfg.AuthCircuitOpenTimeout)
	}
	if cfg.AuthTimeout != 3*time.Second {
		t.Fatalf("unexpected AuthTimeout: %s", cfg.AuthTimeout)
	}
}

func TestLoad_PickPolicyAndWorkers(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("ADMIN_PICK_BYPASS_TEAM_TWICE", "true")
	t.Setenv("PROCESS_MAX_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AdminPickBypassTeamTwice {
		t.Fatalf("expected AdminPickBypassTeamTwice=true")
	}
	if cfg.ProcessMaxWorkers != 8 {
		t.Fatalf("unexpected ProcessMaxWorkers: %d", cfg.ProcessMaxWorkers)
	}
}

func TestLoad_ProcessWorkersValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PROCESS_MAX_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for PROCESS_MAX_WORKERS=0")
	}
}

func TestLoad_LogLevelParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel.String() != "warn" {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel.String())
	}
}
