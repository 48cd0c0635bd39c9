// Package preview fetches link-preview metadata (title, description, images,
// favicons) for the external pages that search records point at. Target pages
// sit behind a chain of public read-through proxies; each proxy attempt is
// bounded by its own timeout and total failure degrades to an absent result,
// never an error.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProxyFunc wraps a target URL into a proxied request URL.
type ProxyFunc func(target string) string

// DefaultProxies is the ordered relay chain: the faster proxy first, then
// AllOrigins as the fallback.
func DefaultProxies() []ProxyFunc {
	return []ProxyFunc{
		func(target string) string {
			return "https://corsproxy.io/?" + url.QueryEscape(target)
		},
		func(target string) string {
			return "https://api.allorigins.win/raw?url=" + url.QueryEscape(target)
		},
	}
}

// ProxiesFromURLs builds a proxy chain from configured endpoint prefixes.
// Each prefix is concatenated with the query-escaped target URL.
func ProxiesFromURLs(prefixes []string) []ProxyFunc {
	proxies := make([]ProxyFunc, 0, len(prefixes))
	for _, prefix := range prefixes {
		prefix := prefix
		proxies = append(proxies, func(target string) string {
			return prefix + url.QueryEscape(target)
		})
	}
	return proxies
}

const (
	defaultAttemptTimeout = 6 * time.Second
	maxBodyBytes          = 2 * 1024 * 1024
	fetchUserAgent        = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

// Fetcher retrieves page metadata through the proxy chain. Concurrent
// fetches for the same target URL are collapsed into one request.
type Fetcher struct {
	client         *http.Client
	proxies        []ProxyFunc
	attemptTimeout time.Duration
	group          singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProxies replaces the default proxy chain.
func WithProxies(proxies []ProxyFunc) Option {
	return func(f *Fetcher) { f.proxies = proxies }
}

// WithAttemptTimeout sets the per-proxy timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.attemptTimeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// NewFetcher creates a Fetcher with the default proxy chain and timeouts.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         &http.Client{},
		proxies:        DefaultProxies(),
		attemptTimeout: defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves metadata for target. It tries each proxy in order and
// returns the first well-formed result (one with a title). Every failure
// mode (transport error, timeout, unparseable body, empty page) moves on
// to the next proxy; exhausting the chain returns nil. Fetch never returns
// an error: absent metadata is a normal, expected outcome.
func (f *Fetcher) Fetch(ctx context.Context, target string) *models.LinkMetadata {
	if target == "" {
		return nil
	}

	result, _, _ := f.group.Do(target, func() (interface{}, error) {
		// The in-flight fetch may be shared with later callers, so the first
		// caller's cancellation must not decide the result for everyone; the
		// per-attempt timeout still bounds each request.
		return f.fetchUncached(context.WithoutCancel(ctx), target), nil
	})

	meta, _ := result.(*models.LinkMetadata)
	return meta
}

func (f *Fetcher) fetchUncached(ctx context.Context, target string) *models.LinkMetadata {
	log := logger.Get().With(zap.String("target_url", target))

	for i, proxy := range f.proxies {
		meta, err := f.attempt(ctx, proxy(target), target)
		if err != nil {
			log.Warn("link preview attempt failed",
				zap.Int("proxy_index", i),
				zap.Error(err),
			)
			continue
		}
		return meta
	}
	return nil
}

// attempt issues one proxied request bounded by the per-attempt timeout.
func (f *Fetcher) attempt(ctx context.Context, proxiedURL, target string) (*models.LinkMetadata, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, proxiedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preview request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse preview HTML: %w", err)
	}

	meta := extractMetadata(doc, target)
	if meta.Title == "" {
		return nil, fmt.Errorf("page has no usable title")
	}
	return meta, nil
}

// extractMetadata pulls preview fields out of a parsed document. OpenGraph
// tags win over plain HTML equivalents; relative URLs are resolved against
// the target page.
func extractMetadata(doc *goquery.Document, target string) *models.LinkMetadata {
	meta := &models.LinkMetadata{URL: target}
	base, _ := url.Parse(target)

	meta.Title = strings.TrimSpace(metaContent(doc, "og:title"))
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	meta.Description = strings.TrimSpace(metaContent(doc, "og:description"))
	if meta.Description == "" {
		doc.Find(`meta[name="description"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			meta.Description = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		})
	}

	for _, prop := range []string{"og:image", "og:image:secure_url", "twitter:image"} {
		if img := resolveRef(base, metaContent(doc, prop)); img != "" {
			meta.Images = appendUnique(meta.Images, img)
		}
	}
	doc.Find(`link[rel="image_src"]`).Each(func(_ int, s *goquery.Selection) {
		if img := resolveRef(base, s.AttrOr("href", "")); img != "" {
			meta.Images = appendUnique(meta.Images, img)
		}
	})

	doc.Find(`link[rel~="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).Each(func(_ int, s *goquery.Selection) {
		if icon := resolveRef(base, s.AttrOr("href", "")); icon != "" {
			meta.Favicons = appendUnique(meta.Favicons, icon)
		}
	})

	return meta
}

// metaContent returns the content of a <meta property=...> or <meta name=...>
// tag, whichever appears first.
func metaContent(doc *goquery.Document, prop string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)).First()
	return sel.AttrOr("content", "")
}

// resolveRef resolves ref against base and only keeps HTTP(S) results.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
