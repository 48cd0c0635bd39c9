// Package parser extracts structured records out of the delimited free text
// returned by the AI search providers. The grammar is line oriented:
//
//	[RECIPE_START]
//	NAME: Tamales
//	INGREDIENTS_USED: masa; pork; chiles
//	[RECIPE_END]
//
// Field prefixes are case sensitive. The parser never returns an error:
// unknown lines are skipped and malformed blocks are dropped one at a time
// without affecting their neighbours.
package parser

import (
	"strings"

	"github.com/kaiwsv/rootsrecipes-api/internal/models"
)

// Kind selects which delimiter tokens and field grammar a parse expects.
type Kind string

const (
	KindRecipe   Kind = "RECIPE"
	KindBusiness Kind = "BUSINESS"
)

// StartMarker returns the literal token that opens a record block.
func (k Kind) StartMarker() string { return "[" + string(k) + "_START]" }

// EndMarker returns the literal token that closes a record block.
func (k Kind) EndMarker() string { return "[" + string(k) + "_END]" }

// recordBlocks splits text into record bodies, one slice of lines per block.
// Text before the first start marker is preamble (model commentary) and is
// discarded, as is anything after a block's end marker. A missing end marker
// means the rest of the segment is the body.
func recordBlocks(text string, kind Kind) [][]string {
	segments := strings.Split(text, kind.StartMarker())
	if len(segments) < 2 {
		return nil
	}

	blocks := make([][]string, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		body, _, _ := strings.Cut(segment, kind.EndMarker())
		blocks = append(blocks, strings.Split(strings.TrimSpace(body), "\n"))
	}
	return blocks
}

// fieldValue reports whether line carries the given field prefix, and if so
// returns the trimmed remainder.
func fieldValue(line, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// splitList splits a semicolon-delimited field value, trimming each element
// and dropping empties ("a;;b;" yields ["a" "b"]).
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// CleanRecordURL normalises a URL-valued field. Stray parenthesis characters
// are stripped first (models sometimes wrap links in markdown-style parens),
// then the value must carry an HTTP or HTTPS scheme to be accepted.
func CleanRecordURL(raw string) (string, bool) {
	cleaned := strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(raw))
	if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") {
		return cleaned, true
	}
	return "", false
}

// ParseRecipes extracts recipe records from raw response text. Blocks without
// a NAME are silently dropped. When the same field appears on multiple lines
// the last assignment wins.
func ParseRecipes(text string) []models.RecipeRecord {
	var recipes []models.RecipeRecord

	for _, lines := range recordBlocks(text, KindRecipe) {
		var r models.RecipeRecord
		for _, line := range lines {
			switch {
			case match(line, "NAME:", &r.Name):
			case match(line, "HERITAGE:", &r.Heritage):
			case match(line, "SUMMARY:", &r.Summary):
			case match(line, "HISTORY:", &r.History):
			case matchList(line, "INGREDIENTS_USED:", &r.Ingredients):
			case matchList(line, "APPLIANCES_USED:", &r.Appliances):
			case match(line, "TIME_ESTIMATE:", &r.TimeEstimate):
			case match(line, "SOURCE_URL:", &r.SourceURL):
			case matchURL(line, "THUMBNAIL_URL:", &r.ThumbnailURL):
			}
		}
		if r.Name != "" {
			recipes = append(recipes, r)
		}
	}
	return recipes
}

// ParseBusinesses extracts business records from raw response text under the
// same tolerance rules as ParseRecipes.
func ParseBusinesses(text string) []models.BusinessRecord {
	var businesses []models.BusinessRecord

	for _, lines := range recordBlocks(text, KindBusiness) {
		var b models.BusinessRecord
		for _, line := range lines {
			switch {
			case match(line, "NAME:", &b.Name):
			case match(line, "HERITAGE:", &b.Heritage):
			case match(line, "SUMMARY:", &b.Summary):
			case match(line, "SIGNIFICANCE:", &b.Significance):
			case match(line, "ADDRESS:", &b.Address):
			case match(line, "WEBSITE:", &b.Website):
			case matchURL(line, "THUMBNAIL_URL:", &b.ThumbnailURL):
			case match(line, "PARKING_SPOTS:", &b.ParkingSpots):
			case match(line, "WHEELCHAIR_ACCESSIBLE:", &b.WheelchairAccessible):
			case match(line, "AUTOMATIC_DOORS:", &b.AutomaticDoors):
			}
		}
		if b.Name != "" {
			businesses = append(businesses, b)
		}
	}
	return businesses
}

// match assigns the line's field value to dst when the prefix matches.
func match(line, prefix string, dst *string) bool {
	value, ok := fieldValue(line, prefix)
	if !ok {
		return false
	}
	*dst = value
	return true
}

// matchList is match for semicolon-delimited list fields.
func matchList(line, prefix string, dst *[]string) bool {
	value, ok := fieldValue(line, prefix)
	if !ok {
		return false
	}
	*dst = splitList(value)
	return true
}

// matchURL is match for URL fields: values that don't survive CleanRecordURL
// leave dst untouched, but the line still counts as consumed.
func matchURL(line, prefix string, dst *string) bool {
	value, ok := fieldValue(line, prefix)
	if !ok {
		return false
	}
	if cleaned, valid := CleanRecordURL(value); valid {
		*dst = cleaned
	}
	return true
}
