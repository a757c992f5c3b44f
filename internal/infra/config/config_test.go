package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
assistant:
  api_key: "sk-test"
  assistant_id: "asst_test"
  model: "gpt-4o"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
	if cfg.Billing.Schedule != "@monthly" {
		t.Errorf("Billing.Schedule = %q, want %q", cfg.Billing.Schedule, "@monthly")
	}
	if cfg.Billing.WindowDays != 30 {
		t.Errorf("Billing.WindowDays = %d, want 30", cfg.Billing.WindowDays)
	}
	if cfg.Assistant.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Assistant.BaseURL = %q", cfg.Assistant.BaseURL)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9000"
  rate_per_minute: 30
database:
  path: "/tmp/crm.db"
assistant:
  api_key: "sk-test"
  assistant_id: "asst_test"
  model: "gpt-4o"
  timeout: "30s"
auth:
  session_ttl: "24h"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.Server.RatePerMinute != 30 {
		t.Errorf("Server.RatePerMinute = %d, want 30", cfg.Server.RatePerMinute)
	}
	if cfg.Database.Path != "/tmp/crm.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if got := cfg.AssistantTimeout(); got != 30*time.Second {
		t.Errorf("AssistantTimeout = %v, want 30s", got)
	}
	if got := cfg.SessionTTL(); got != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/tmp/nonexistent-config-98765.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_ASSISTANT_ID", "asst_from_env")

	cfg, err := Load(writeConfig(t, `
assistant:
  api_key: "sk-file"
  assistant_id: "asst_file"
  model: "gpt-4o"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assistant.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.Assistant.APIKey)
	}
	if cfg.Assistant.AssistantID != "asst_from_env" {
		t.Errorf("AssistantID = %q, want env value", cfg.Assistant.AssistantID)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_ASSISTANT_ID", "")

	_, err := Load(writeConfig(t, `
logger:
  format: "xml"
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"assistant.api_key", "assistant.assistant_id", "assistant.model", "logger.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestRequestTimeoutUnsetIsZero(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.RequestTimeout(); got != 0 {
		t.Errorf("RequestTimeout = %v, want 0", got)
	}
}
