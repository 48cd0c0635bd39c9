package config

import (
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	EnvVars EnvVars  `json:"env"`
	Prompts *Prompts `json:"-"`
}

// EnvVars holds environment variables required by the application.
// Fields tagged `optional:"true"` are skipped by CheckConfigEnvFields.
type EnvVars struct {
	Port string `env:"PORT" envDefault:"8080"`

	// AIProvider selects the grounded search backend: "anthropic" (web
	// search grounding + structured output) or "openai" (plain text
	// fallback).
	AIProvider      string `env:"AI_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" optional:"true"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" optional:"true"`

	// PreviewProxyURLs overrides the built-in CORS relay chain for link
	// previews. Each entry is a prefix the target URL is escaped onto.
	PreviewProxyURLs []string `env:"PREVIEW_PROXY_URLS" envSeparator:"," optional:"true"`
}

// LoadConfig parses environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config.EnvVars); err != nil {
		return nil, err
	}
	return &config, nil
}

// CheckConfigEnvFields validates that all required EnvVars fields are set,
// plus the cross-field rule that the selected AI provider has its API key.
func (c *Config) CheckConfigEnvFields() error {
	if err := checkFieldsRecursive(reflect.ValueOf(c.EnvVars)); err != nil {
		return err
	}

	switch c.EnvVars.AIProvider {
	case "anthropic":
		if c.EnvVars.AnthropicAPIKey == "" {
			return fmt.Errorf("$ANTHROPIC_API_KEY must be set when AI_PROVIDER=anthropic")
		}
	case "openai":
		if c.EnvVars.OpenAIAPIKey == "" {
			return fmt.Errorf("$OPENAI_API_KEY must be set when AI_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.EnvVars.AIProvider)
	}
	return nil
}

func checkFieldsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if fieldType.Tag.Get("optional") == "true" {
			continue
		}
		if isZeroValue(field) {
			return fmt.Errorf("$%s must be set", fieldType.Name)
		}
		if field.Kind() == reflect.Struct {
			if err := checkFieldsRecursive(field); err != nil {
				return err
			}
		}
	}
	return nil
}

func isZeroValue(v reflect.Value) bool {
	return v.IsZero()
}
