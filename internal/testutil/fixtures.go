package testutil

import (
	"github.com/kaiwsv/rootsrecipes-api/internal/ai"
	"github.com/kaiwsv/rootsrecipes-api/internal/config"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
)

// TestConfig returns a config with minimal prompt templates wired in, so
// services can render prompts without reading configs/prompts.yaml.
func TestConfig() *config.Config {
	return &config.Config{
		EnvVars: config.EnvVars{
			Port:       "8080",
			AIProvider: "anthropic",
		},
		Prompts: &config.Prompts{
			Search: config.SearchPrompts{
				Recipe: config.PromptPair{
					System: "You are a culinary heritage researcher.",
					User:   "Find {{.Count}} recipes {{.CultureClause}} using {{.Ingredients}} with {{.Appliances}} under {{.MaxTime}} minutes. {{.ExcludeClause}}",
				},
				Business: config.PromptPair{
					System: "You are a local food business researcher.",
					User:   "Find {{.Count}} businesses {{.CultureClause}} near {{.ZipCode}} related to {{.Ingredients}}. {{.ExcludeClause}}",
				},
			},
		},
	}
}

// RecipeCriteria returns criteria that pass recipe-mode validation.
func RecipeCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		Ingredients:    []string{"masa", "pork"},
		Appliances:     []string{"steamer"},
		Cultures:       []string{"Mexican"},
		MaxTimeMinutes: 60,
	}
}

// BusinessCriteria returns criteria that pass business-mode validation.
func BusinessCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		Ingredients:    []string{"masa"},
		Cultures:       []string{"Mexican"},
		MaxTimeMinutes: 60,
		ZipCode:        "94110",
	}
}

// TestRecipe returns a well-formed recipe record.
func TestRecipe(name string) models.RecipeRecord {
	return models.RecipeRecord{
		Name:         name,
		Heritage:     "Mexican",
		Summary:      "A steamed corn dough classic.",
		History:      "Dates back to Mesoamerican festival cooking.",
		Ingredients:  []string{"masa", "pork"},
		Appliances:   []string{"steamer"},
		TimeEstimate: "45 minutes",
		SourceURL:    "https://example.com/" + name,
		ThumbnailURL: "https://example.com/" + name + ".jpg",
	}
}

// TestBusiness returns a well-formed business record.
func TestBusiness(name string) models.BusinessRecord {
	return models.BusinessRecord{
		Name:         name,
		Heritage:     "Mexican",
		Summary:      "Family-run tortilleria.",
		Significance: "Three generations of nixtamal milling.",
		Address:      "123 Mission St, San Francisco, CA 94110",
		Website:      "https://example.com/" + name,
	}
}

// GroundedText wraps raw delimiter-format text in a provider result with no
// structured submission, forcing the text-parse path.
func GroundedText(text string, citations ...models.Source) *ai.GroundedResult {
	return &ai.GroundedResult{
		Text:      text,
		Citations: citations,
	}
}
