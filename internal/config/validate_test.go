package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "shopassist",
			Password: "secret", Name: "shopassist", SSLMode: "disable", MaxConns: 25,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		JWT: JWTConfig{
			AccessSecret: "access-secret-that-is-at-least-32-chars!",
			Issuer:       "shop",
		},
		LLM: LLMConfig{
			APIKey:          "sk-test",
			ClassifyTimeout: 8 * time.Second,
			ChatTimeout:     20 * time.Second,
		},
		Dialogue: DialogueConfig{
			ConfidenceThreshold: 0.7,
			HistoryWindow:       10,
			ContextTTL:          24 * time.Hour,
		},
		History: HistoryConfig{Driver: "postgres"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_JWTAccessSecretTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_ACCESS_SECRET") {
		t.Fatalf("expected JWT_ACCESS_SECRET error, got: %v", err)
	}
}

func TestValidate_DBPasswordRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.DB.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("expected DB_PORT error in: %v", err)
	}
}

func TestValidate_ConfidenceThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Dialogue.ConfidenceThreshold = 1.5
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DIALOGUE_CONFIDENCE_THRESHOLD") {
		t.Fatalf("expected threshold error, got: %v", err)
	}
}

func TestValidate_HistoryDriver(t *testing.T) {
	cfg := validConfig()
	cfg.History.Driver = "mongo"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "HISTORY_DRIVER") {
		t.Fatalf("expected HISTORY_DRIVER error, got: %v", err)
	}

	cfg.History.Driver = "sqlite"
	cfg.History.SQLitePath = ""
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "HISTORY_SQLITE_PATH") {
		t.Fatalf("expected HISTORY_SQLITE_PATH error, got: %v", err)
	}
}

func TestValidate_XMPPNeedsSecretAndNATS(t *testing.T) {
	cfg := validConfig()
	cfg.XMPP.Enabled = true
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected XMPP validation errors")
	}
	for _, substr := range []string{"XMPP_COMPONENT_SECRET", "NATS_URL"} {
		if !strings.Contains(err.Error(), substr) {
			t.Errorf("expected %q in error: %v", substr, err)
		}
	}
}

func TestValidate_MissingLLMKeyOnlyWarns(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error without LLM key, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 0},
		DB:      DBConfig{Port: 5432},
		Redis:   RedisConfig{Port: 6379},
		History: HistoryConfig{Driver: "postgres"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"JWT_ACCESS_SECRET", "DB_PASSWORD", "SERVER_PORT", "DIALOGUE_HISTORY_WINDOW", "LLM_CLASSIFY_TIMEOUT"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" shop.local, ,partner.example ")
	if len(got) != 2 || got[0] != "shop.local" || got[1] != "partner.example" {
		t.Fatalf("unexpected split result: %v", got)
	}
	if splitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
