package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"go.uber.org/zap"
)

// submitResultsToolName is the client tool Claude calls to hand back the
// record list as schema-constrained JSON instead of delimited text.
const submitResultsToolName = "submit_results"

// AnthropicProvider implements GroundedProvider using Claude with the web
// search server tool. Structured output is requested through a submission
// tool; when Claude answers in plain text anyway, callers fall back to the
// delimiter parser.
type AnthropicProvider struct {
	client  anthropic.Client
	model   anthropic.Model
	maxUses int64
}

// NewAnthropicProvider creates a grounded provider with the given API key.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   anthropic.Model("claude-sonnet-4-5-20250929"),
		maxUses: 5,
	}
}

// GenerateGrounded runs one web-search-grounded call and collects the
// model's text, any structured tool submission, and grounding citations.
func (p *AnthropicProvider) GenerateGrounded(ctx context.Context, req GroundedRequest) (*GroundedResult, error) {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(req.Prompt),
				},
			},
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
					MaxUses: anthropic.Int(p.maxUses),
				},
			},
			submitResultsTool(req.Kind),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := p.createMessageWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &GroundedResult{}
	var text strings.Builder

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
			for _, citation := range block.Citations {
				if citation.Type == "web_search_result_location" && citation.URL != "" {
					result.Citations = append(result.Citations, models.Source{
						Title: citation.Title,
						URI:   citation.URL,
					})
				}
			}
		case "tool_use":
			if block.Name != submitResultsToolName {
				continue
			}
			raw, err := json.Marshal(block.Input)
			if err != nil {
				logger.Get().Warn("failed to marshal submit_results input", zap.Error(err))
				continue
			}
			result.RecordsJSON = raw
		}
	}

	result.Text = text.String()
	return result, nil
}

// submitResultsTool builds the structured-output tool definition for the
// requested record kind. Field names mirror the delimited grammar so prompts
// can describe both formats consistently.
func submitResultsTool(kind RecordKind) anthropic.ToolUnionParam {
	var properties map[string]interface{}

	switch kind {
	case RecordKindBusiness:
		properties = map[string]interface{}{
			"businesses": map[string]interface{}{
				"type":        "array",
				"description": "Every business found, one entry per business",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":                  map[string]interface{}{"type": "string", "description": "Business name"},
						"heritage":              map[string]interface{}{"type": "string", "description": "Community or culture the business represents"},
						"summary":               map[string]interface{}{"type": "string", "description": "2-3 complete sentences about the business"},
						"significance":          map[string]interface{}{"type": "string", "description": "Cultural significance to its community"},
						"address":               map[string]interface{}{"type": "string", "description": "Street address"},
						"website":               map[string]interface{}{"type": "string", "description": "Business website URL"},
						"thumbnail_url":         map[string]interface{}{"type": "string", "description": "Direct image URL for the business, or empty if none found"},
						"parking_spots":         map[string]interface{}{"type": "string", "description": "Parking availability if known"},
						"wheelchair_accessible": map[string]interface{}{"type": "string", "description": "yes/no/unknown"},
						"automatic_doors":       map[string]interface{}{"type": "string", "description": "yes/no/unknown"},
					},
					"required": []string{"name"},
				},
			},
		}
	default:
		properties = map[string]interface{}{
			"recipes": map[string]interface{}{
				"type":        "array",
				"description": "Every recipe found, one entry per recipe",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":          map[string]interface{}{"type": "string", "description": "Name of the dish"},
						"heritage":      map[string]interface{}{"type": "string", "description": "Specific community or culture the dish comes from"},
						"summary":       map[string]interface{}{"type": "string", "description": "2-3 complete sentences describing the dish"},
						"history":       map[string]interface{}{"type": "string", "description": "Cultural significance and history, complete sentences"},
						"ingredients":   map[string]interface{}{"type": "array", "description": "All required ingredients with measurements", "items": map[string]interface{}{"type": "string"}},
						"appliances":    map[string]interface{}{"type": "array", "description": "Kitchen tools and appliances used", "items": map[string]interface{}{"type": "string"}},
						"time_estimate": map[string]interface{}{"type": "string", "description": "Minutes only, as a number"},
						"source_url":    map[string]interface{}{"type": "string", "description": "Exact URL of the recipe found"},
						"thumbnail_url": map[string]interface{}{"type": "string", "description": "Direct image URL from the recipe article, or empty if none found"},
					},
					"required": []string{"name"},
				},
			},
		}
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        submitResultsToolName,
			Description: anthropic.String("Submit the final list of results found by the web search."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
			},
		},
	}
}

// createMessageWithRetry wraps the Claude API call with exponential backoff.
func (p *AnthropicProvider) createMessageWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.Messages.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyAnthropicError(err)
		if !shouldRetry {
			return nil, fmt.Errorf("claude API error: %w", err)
		}

		logger.Get().Warn("claude API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		backoff := waitTime * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("claude API: exhausted %d retries: %w", maxRetries, lastErr)
}

// classifyAnthropicError determines whether to retry and the base wait duration.
func classifyAnthropicError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return true, 2 * time.Second
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	return false, 0
}
