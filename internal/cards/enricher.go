// Package cards resolves the display media for each search record: a live
// link preview when one can be scraped, the AI-supplied thumbnail otherwise,
// and a decorative placeholder as the floor. Rendering never waits on this;
// media arrives asynchronously over the session's card stream.
package cards

import (
	"context"
	"net/url"

	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"github.com/kaiwsv/rootsrecipes-api/internal/preview"
	"github.com/kaiwsv/rootsrecipes-api/internal/ws"
)

const (
	// PlaceholderImage is served from the app's own static assets; it is the
	// one image choice with no network dependency.
	PlaceholderImage = "/static/heritage-dish.svg"

	faviconService = "https://www.google.com/s2/favicons?sz=64&domain="

	// EventCardMedia is the ws event type carrying resolved media.
	EventCardMedia = "card_media"
)

// MediaSource says which rung of the fallback chain produced the image.
type MediaSource string

const (
	SourceLivePreview MediaSource = "live_preview"
	SourceThumbnail   MediaSource = "ai_thumbnail"
	SourcePlaceholder MediaSource = "placeholder"
)

// CardMedia is the resolved display media for one record.
type CardMedia struct {
	RecordName  string      `json:"record_name"`
	ImageURL    string      `json:"image_url"`
	ImageSource MediaSource `json:"image_source"`
	FaviconURL  string      `json:"favicon_url,omitempty"`
}

// Enricher resolves card media and streams it to session rooms.
type Enricher struct {
	Fetcher *preview.Fetcher
	Hub     *ws.Hub
}

// NewEnricher creates a new Enricher.
func NewEnricher(fetcher *preview.Fetcher, hub *ws.Hub) *Enricher {
	return &Enricher{Fetcher: fetcher, Hub: hub}
}

// Resolve picks the display media for one record synchronously. Priority:
// live-fetched preview image, then the AI thumbnail, then the placeholder.
// The favicon comes from the preview when present, else is synthesized from
// the link's host.
func (e *Enricher) Resolve(ctx context.Context, name, linkURL, thumbnailURL string) CardMedia {
	media := CardMedia{
		RecordName:  name,
		ImageURL:    PlaceholderImage,
		ImageSource: SourcePlaceholder,
	}

	if thumbnailURL != "" {
		media.ImageURL = thumbnailURL
		media.ImageSource = SourceThumbnail
	}

	meta := e.Fetcher.Fetch(ctx, linkURL)
	if meta != nil {
		if len(meta.Images) > 0 {
			media.ImageURL = meta.Images[0]
			media.ImageSource = SourceLivePreview
		}
		if len(meta.Favicons) > 0 {
			media.FaviconURL = meta.Favicons[0]
		}
	}

	if media.FaviconURL == "" {
		media.FaviconURL = synthesizeFavicon(linkURL)
	}

	return media
}

// EnrichRecipes resolves media for each recipe concurrently and publishes
// the results to the session's room as they arrive. A result for a session
// whose stream has closed finds no room and is dropped by the hub.
func (e *Enricher) EnrichRecipes(ctx context.Context, sessionID string, recipes []models.RecipeRecord) {
	for _, r := range recipes {
		go e.enrich(ctx, sessionID, r.Name, r.SourceURL, r.ThumbnailURL)
	}
}

// EnrichBusinesses is EnrichRecipes for business records; the business
// website is the canonical outbound link.
func (e *Enricher) EnrichBusinesses(ctx context.Context, sessionID string, businesses []models.BusinessRecord) {
	for _, b := range businesses {
		go e.enrich(ctx, sessionID, b.Name, b.Website, b.ThumbnailURL)
	}
}

func (e *Enricher) enrich(ctx context.Context, sessionID, name, linkURL, thumbnailURL string) {
	media := e.Resolve(ctx, name, linkURL, thumbnailURL)

	e.Hub.Publish(ws.Event{
		Type:      EventCardMedia,
		SessionID: sessionID,
		Payload:   media,
	})
}

// synthesizeFavicon derives a favicon URL from the link's host via a public
// favicon service. Returns empty for unparseable links.
func synthesizeFavicon(linkURL string) string {
	parsed, err := url.Parse(linkURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return faviconService + parsed.Hostname()
}
