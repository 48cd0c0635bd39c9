package ai

import (
	"context"
	"encoding/json"

	"github.com/kaiwsv/rootsrecipes-api/internal/models"
)

// GroundedProvider runs a web-search-grounded generation call. The response
// is untrusted: Text may be free-form chatter around the delimited records,
// RecordsJSON is only set by providers with structured-output support, and
// Citations may repeat URIs.
type GroundedProvider interface {
	GenerateGrounded(ctx context.Context, req GroundedRequest) (*GroundedResult, error)
}

// RecordKind discriminates the two record shapes a search can return.
type RecordKind string

const (
	RecordKindRecipe   RecordKind = "recipe"
	RecordKindBusiness RecordKind = "business"
)

// GroundedRequest holds one grounded generation call.
type GroundedRequest struct {
	System string
	Prompt string
	// Kind selects the record grammar the structured-output tool (when the
	// provider has one) should emit.
	Kind RecordKind
}

// GroundedResult is the raw outcome of a grounded generation call, before
// parsing and citation dedup.
type GroundedResult struct {
	// Text is the model's free text. When RecordsJSON is empty this is the
	// delimited record blob the parser consumes.
	Text string
	// RecordsJSON is the schema-constrained record list submitted through
	// the provider's structured-output tool; nil when the provider (or this
	// particular response) produced none.
	RecordsJSON json.RawMessage
	// Citations are the grounding citations in response order, possibly
	// with duplicate URIs.
	Citations []models.Source
}

// StructuredRecipes is the payload shape of the recipe submission tool.
type StructuredRecipes struct {
	Recipes []models.RecipeRecord `json:"recipes"`
}

// StructuredBusinesses is the payload shape of the business submission tool.
type StructuredBusinesses struct {
	Businesses []models.BusinessRecord `json:"businesses"`
}
