package config

import (
	"strings"
	"testing"
)

func TestCheckConfigEnvFields_AnthropicRequiresKey(t *testing.T) {
	cfg := &Config{EnvVars: EnvVars{Port: "8080", AIProvider: "anthropic"}}
	if err := cfg.CheckConfigEnvFields(); err == nil {
		t.Error("CheckConfigEnvFields() = nil, want error for missing ANTHROPIC_API_KEY")
	}

	cfg.EnvVars.AnthropicAPIKey = "sk-test"
	if err := cfg.CheckConfigEnvFields(); err != nil {
		t.Errorf("CheckConfigEnvFields() = %v, want nil", err)
	}
}

func TestCheckConfigEnvFields_OpenAIRequiresKey(t *testing.T) {
	cfg := &Config{EnvVars: EnvVars{Port: "8080", AIProvider: "openai"}}
	if err := cfg.CheckConfigEnvFields(); err == nil {
		t.Error("CheckConfigEnvFields() = nil, want error for missing OPENAI_API_KEY")
	}

	cfg.EnvVars.OpenAIAPIKey = "sk-test"
	if err := cfg.CheckConfigEnvFields(); err != nil {
		t.Errorf("CheckConfigEnvFields() = %v, want nil", err)
	}
}

func TestCheckConfigEnvFields_UnknownProvider(t *testing.T) {
	cfg := &Config{EnvVars: EnvVars{Port: "8080", AIProvider: "gemini"}}
	err := cfg.CheckConfigEnvFields()
	if err == nil || !strings.Contains(err.Error(), "AI_PROVIDER") {
		t.Errorf("CheckConfigEnvFields() = %v, want unknown provider error", err)
	}
}

func TestCheckConfigEnvFields_MissingRequired(t *testing.T) {
	cfg := &Config{EnvVars: EnvVars{AIProvider: "anthropic", AnthropicAPIKey: "sk-test"}}
	err := cfg.CheckConfigEnvFields()
	if err == nil || !strings.Contains(err.Error(), "Port") {
		t.Errorf("CheckConfigEnvFields() = %v, want missing Port error", err)
	}
}

func TestRenderPrompt(t *testing.T) {
	got, err := RenderPrompt("Find {{.Count}} recipes using {{.Ingredients}}.", map[string]interface{}{
		"Count":       3,
		"Ingredients": "masa, pork",
	})
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	if got != "Find 3 recipes using masa, pork." {
		t.Errorf("RenderPrompt() = %q", got)
	}
}

func TestRenderPrompt_TrimsWhitespace(t *testing.T) {
	got, err := RenderPrompt("\n  hello  \n", nil)
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("RenderPrompt() = %q, want %q", got, "hello")
	}
}
