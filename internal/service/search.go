package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaiwsv/rootsrecipes-api/internal/ai"
	"github.com/kaiwsv/rootsrecipes-api/internal/config"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"github.com/kaiwsv/rootsrecipes-api/internal/parser"
	"github.com/kaiwsv/rootsrecipes-api/internal/sources"
	"go.uber.org/zap"
)

const (
	// initialRecordCount is requested on a first search; loadMoreRecordCount
	// on load-more, where the user has signalled they want more without
	// re-browsing.
	initialRecordCount  = 3
	loadMoreRecordCount = 6
)

// SearchService is the search orchestrator: it builds the prompt from the
// user's criteria, runs the grounded provider, and turns the raw response
// into a deduplicated result bundle. Provider failures never escape: they
// are logged and degrade to an empty bundle so callers keep whatever they
// were already displaying.
type SearchService struct {
	Cfg      *config.Config
	Provider ai.GroundedProvider
}

// NewSearchService creates a new SearchService.
func NewSearchService(cfg *config.Config, provider ai.GroundedProvider) *SearchService {
	return &SearchService{
		Cfg:      cfg,
		Provider: provider,
	}
}

// SearchRecipes runs an initial recipe search. The only returned errors are
// pre-flight validation failures; those are raised before any network call.
func (s *SearchService) SearchRecipes(ctx context.Context, criteria models.SearchCriteria) (*models.RecipeBundle, error) {
	if err := ValidateCriteria(criteria, ModeRecipe); err != nil {
		return nil, err
	}
	return s.recipeSearch(ctx, criteria, initialRecordCount), nil
}

// LoadMoreRecipes re-runs a recipe search with the already-shown names
// excluded, asking for a larger batch.
func (s *SearchService) LoadMoreRecipes(ctx context.Context, criteria models.SearchCriteria) (*models.RecipeBundle, error) {
	if err := ValidateCriteria(criteria, ModeRecipe); err != nil {
		return nil, err
	}
	return s.recipeSearch(ctx, criteria, loadMoreRecordCount), nil
}

// SearchBusinesses runs an initial business search. Business mode requires a
// 5-digit zip code; a search without one is rejected before dispatch.
func (s *SearchService) SearchBusinesses(ctx context.Context, criteria models.SearchCriteria) (*models.BusinessBundle, error) {
	if err := ValidateCriteria(criteria, ModeBusiness); err != nil {
		return nil, err
	}
	return s.businessSearch(ctx, criteria, initialRecordCount), nil
}

// LoadMoreBusinesses re-runs a business search excluding already-shown names.
func (s *SearchService) LoadMoreBusinesses(ctx context.Context, criteria models.SearchCriteria) (*models.BusinessBundle, error) {
	if err := ValidateCriteria(criteria, ModeBusiness); err != nil {
		return nil, err
	}
	return s.businessSearch(ctx, criteria, loadMoreRecordCount), nil
}

func (s *SearchService) recipeSearch(ctx context.Context, criteria models.SearchCriteria, count int) *models.RecipeBundle {
	empty := &models.RecipeBundle{Recipes: []models.RecipeRecord{}, Sources: []models.Source{}}

	result := s.generate(ctx, s.Cfg.Prompts.Search.Recipe, criteria, count, ai.RecordKindRecipe)
	if result == nil {
		return empty
	}

	// Sources surface even when no records parsed; the client still shows
	// what was consulted.
	bundle := &models.RecipeBundle{
		Recipes: []models.RecipeRecord{},
		Sources: sources.Dedup(result.Citations),
	}
	if recipes := s.recipesFromResult(result); len(recipes) > 0 {
		bundle.Recipes = recipes
	}
	return bundle
}

func (s *SearchService) businessSearch(ctx context.Context, criteria models.SearchCriteria, count int) *models.BusinessBundle {
	empty := &models.BusinessBundle{Businesses: []models.BusinessRecord{}, Sources: []models.Source{}}

	result := s.generate(ctx, s.Cfg.Prompts.Search.Business, criteria, count, ai.RecordKindBusiness)
	if result == nil {
		return empty
	}

	bundle := &models.BusinessBundle{
		Businesses: []models.BusinessRecord{},
		Sources:    sources.Dedup(result.Citations),
	}
	if businesses := s.businessesFromResult(result); len(businesses) > 0 {
		bundle.Businesses = businesses
	}
	return bundle
}

// generate renders the prompt pair and runs the provider. Any failure is
// logged and swallowed; nil means "treat as empty result".
func (s *SearchService) generate(ctx context.Context, pair config.PromptPair, criteria models.SearchCriteria, count int, kind ai.RecordKind) *ai.GroundedResult {
	prompt, err := renderSearchPrompt(pair.User, criteria, count)
	if err != nil {
		logger.Get().Error("failed to render search prompt", zap.Error(err))
		return nil
	}

	result, err := s.Provider.GenerateGrounded(ctx, ai.GroundedRequest{
		System: strings.TrimSpace(pair.System),
		Prompt: prompt,
		Kind:   kind,
	})
	if err != nil {
		logger.Get().Error("grounded search failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil
	}
	return result
}

// recipesFromResult prefers the provider's structured submission and falls
// back to the delimiter parser on the raw text.
func (s *SearchService) recipesFromResult(result *ai.GroundedResult) []models.RecipeRecord {
	if len(result.RecordsJSON) > 0 {
		var structured ai.StructuredRecipes
		if err := json.Unmarshal(result.RecordsJSON, &structured); err == nil {
			if recipes := sanitizeRecipes(structured.Recipes); len(recipes) > 0 {
				return recipes
			}
		} else {
			logger.Get().Warn("malformed structured recipe submission, falling back to text", zap.Error(err))
		}
	}
	return parser.ParseRecipes(result.Text)
}

func (s *SearchService) businessesFromResult(result *ai.GroundedResult) []models.BusinessRecord {
	if len(result.RecordsJSON) > 0 {
		var structured ai.StructuredBusinesses
		if err := json.Unmarshal(result.RecordsJSON, &structured); err == nil {
			if businesses := sanitizeBusinesses(structured.Businesses); len(businesses) > 0 {
				return businesses
			}
		} else {
			logger.Get().Warn("malformed structured business submission, falling back to text", zap.Error(err))
		}
	}
	return parser.ParseBusinesses(result.Text)
}

// sanitizeRecipes applies the same invariants the delimiter parser enforces:
// nameless records are dropped and thumbnails must be clean HTTP(S) URLs.
func sanitizeRecipes(in []models.RecipeRecord) []models.RecipeRecord {
	out := make([]models.RecipeRecord, 0, len(in))
	for _, r := range in {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		if cleaned, ok := parser.CleanRecordURL(r.ThumbnailURL); ok {
			r.ThumbnailURL = cleaned
		} else {
			r.ThumbnailURL = ""
		}
		out = append(out, r)
	}
	return out
}

func sanitizeBusinesses(in []models.BusinessRecord) []models.BusinessRecord {
	out := make([]models.BusinessRecord, 0, len(in))
	for _, b := range in {
		if strings.TrimSpace(b.Name) == "" {
			continue
		}
		if cleaned, ok := parser.CleanRecordURL(b.ThumbnailURL); ok {
			b.ThumbnailURL = cleaned
		} else {
			b.ThumbnailURL = ""
		}
		out = append(out, b)
	}
	return out
}

// renderSearchPrompt flattens criteria into the template data the YAML
// prompt pairs expect.
func renderSearchPrompt(tmpl string, criteria models.SearchCriteria, count int) (string, error) {
	cultureClause := "from diverse global heritage"
	if cultures := nonEmpty(criteria.Cultures); len(cultures) > 0 {
		cultureClause = fmt.Sprintf("specifically from %s heritage", strings.Join(cultures, " or "))
	}

	excludeClause := ""
	if excludes := nonEmpty(criteria.ExcludeNames); len(excludes) > 0 {
		excludeClause = fmt.Sprintf("DO NOT include any of the following: %s.", strings.Join(excludes, ", "))
	}

	return config.RenderPrompt(tmpl, map[string]interface{}{
		"Ingredients":   strings.Join(nonEmpty(criteria.Ingredients), ", "),
		"Appliances":    strings.Join(nonEmpty(criteria.Appliances), ", "),
		"CultureClause": cultureClause,
		"ExcludeClause": excludeClause,
		"MaxTime":       criteria.MaxTimeMinutes,
		"ZipCode":       strings.TrimSpace(criteria.ZipCode),
		"Count":         count,
	})
}
