// Package sources handles the grounding citations returned alongside AI
// search responses.
package sources

import "github.com/kaiwsv/rootsrecipes-api/internal/models"

// FallbackTitle is substituted when a citation arrives without one.
const FallbackTitle = "Recipe Source"

// Dedup removes duplicate citations by URI, keeping the first occurrence and
// preserving first-seen order. Citations with an empty URI are dropped;
// missing titles get FallbackTitle. Order stability matters so repeated
// identical searches render their source list identically.
func Dedup(in []models.Source) []models.Source {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Source, 0, len(in))

	for _, s := range in {
		if s.URI == "" {
			continue
		}
		if _, dup := seen[s.URI]; dup {
			continue
		}
		seen[s.URI] = struct{}{}
		if s.Title == "" {
			s.Title = FallbackTitle
		}
		out = append(out, s)
	}
	return out
}

// Merge appends next onto prior, deduplicating across the combined list so a
// load-more call never re-introduces a URI the session has already shown.
func Merge(prior, next []models.Source) []models.Source {
	return Dedup(append(append(make([]models.Source, 0, len(prior)+len(next)), prior...), next...))
}
