package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LLMProvider != ProviderTogether {
		t.Fatalf("expected default provider together, got %q", cfg.LLMProvider)
	}
	if cfg.LLMBaseURL != "https://api.together.xyz/v1" {
		t.Fatalf("unexpected base URL %q", cfg.LLMBaseURL)
	}
	if cfg.QueryTimeout != 10*time.Second {
		t.Fatalf("unexpected query timeout %v", cfg.QueryTimeout)
	}
	if cfg.SessionBackend != SessionMemory {
		t.Fatalf("unexpected session backend %q", cfg.SessionBackend)
	}
}

func TestLoadRejectsMissingKey(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error when TOGETHER_API_KEY is unset")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")
	t.Setenv("FRAUDLENS_LLM_PROVIDER", "bedrock")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "").RequirePositive("b", 0).ValidateOneOf("c", "x", "y", "z")

	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(v.Errors()))
	}
	if v.Error() == nil {
		t.Fatal("expected combined error")
	}
}
