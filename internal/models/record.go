package models

// RecipeRecord is one recipe extracted from an AI search response. All fields
// are free text straight from the model; only Name is guaranteed non-empty
// (the parser drops nameless records).
type RecipeRecord struct {
	Name         string   `json:"name"`
	Heritage     string   `json:"heritage"`
	Summary      string   `json:"summary"`
	History      string   `json:"history"`
	Ingredients  []string `json:"ingredients"`
	Appliances   []string `json:"appliances"`
	TimeEstimate string   `json:"time_estimate"`
	SourceURL    string   `json:"source_url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
}

// BusinessRecord is one local small business extracted from an AI search
// response. The accessibility fields only appear in newer response shapes and
// may be empty.
type BusinessRecord struct {
	Name                 string `json:"name"`
	Heritage             string `json:"heritage"`
	Summary              string `json:"summary"`
	Significance         string `json:"significance"`
	Address              string `json:"address"`
	Website              string `json:"website"`
	ThumbnailURL         string `json:"thumbnail_url,omitempty"`
	ParkingSpots         string `json:"parking_spots,omitempty"`
	WheelchairAccessible string `json:"wheelchair_accessible,omitempty"`
	AutomaticDoors       string `json:"automatic_doors,omitempty"`
}

// Source is a grounding citation: a web page the AI consulted when answering.
// URI is the uniqueness key.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// RecipeBundle is the result of one recipe search or load-more call.
type RecipeBundle struct {
	Recipes []RecipeRecord `json:"recipes"`
	Sources []Source       `json:"sources"`
}

// BusinessBundle is the result of one business search or load-more call.
type BusinessBundle struct {
	Businesses []BusinessRecord `json:"businesses"`
	Sources    []Source         `json:"sources"`
}

// LinkMetadata holds page metadata scraped for a record's outbound link.
// A nil *LinkMetadata means the fetch found nothing usable; callers treat
// that as a normal outcome.
type LinkMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Favicons    []string `json:"favicons,omitempty"`
	URL         string   `json:"url"`
}
