package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kaiwsv/rootsrecipes-api/internal/ai"
	"github.com/kaiwsv/rootsrecipes-api/internal/cards"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"github.com/kaiwsv/rootsrecipes-api/internal/preview"
	"github.com/kaiwsv/rootsrecipes-api/internal/service"
	"github.com/kaiwsv/rootsrecipes-api/internal/session"
	"github.com/kaiwsv/rootsrecipes-api/internal/testutil"
	"github.com/kaiwsv/rootsrecipes-api/internal/ws"
)

func newTestRouter(provider ai.GroundedProvider) (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	go hub.Run()

	// Dead-end proxy keeps enrichment goroutines fast and offline.
	deadProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	fetcher := preview.NewFetcher(
		preview.WithProxies(preview.ProxiesFromURLs([]string{deadProxy.URL + "/?"})),
		preview.WithAttemptTimeout(time.Second),
	)

	sessions := session.NewStore(time.Hour, time.Hour)
	handler := NewSearchHandler(
		service.NewSearchService(testutil.TestConfig(), provider),
		sessions,
		cards.NewEnricher(fetcher, hub),
	)

	r := gin.New()
	r.POST("/v1/search/recipes", handler.SearchRecipes)
	r.POST("/v1/search/recipes/more", handler.LoadMoreRecipes)
	r.POST("/v1/search/businesses", handler.SearchBusinesses)
	r.POST("/v1/search/businesses/more", handler.LoadMoreBusinesses)
	return r, sessions
}

func recipeProvider(names ...string) *testutil.MockGroundedProvider {
	return &testutil.MockGroundedProvider{
		GenerateGroundedFunc: func(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error) {
			recipes := make([]models.RecipeRecord, 0, len(names))
			for _, n := range names {
				recipes = append(recipes, testutil.TestRecipe(n))
			}
			raw, _ := json.Marshal(ai.StructuredRecipes{Recipes: recipes})
			return &ai.GroundedResult{
				RecordsJSON: raw,
				Citations:   []models.Source{{Title: "Example", URI: "https://example.com"}},
			}, nil
		},
	}
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchRecipes_CreatesSession(t *testing.T) {
	r, sessions := newTestRouter(recipeProvider("Tamales", "Pozole"))

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string                `json:"session_id"`
		Recipes   []models.RecipeRecord `json:"recipes"`
		Sources   []models.Source       `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("session_id missing from response")
	}
	if len(resp.Recipes) != 2 || len(resp.Sources) != 1 {
		t.Errorf("got %d recipes / %d sources, want 2 / 1", len(resp.Recipes), len(resp.Sources))
	}
	if _, err := sessions.Get(resp.SessionID); err != nil {
		t.Errorf("returned session %q not in store: %v", resp.SessionID, err)
	}
}

func TestSearchRecipes_InvalidBody(t *testing.T) {
	r, _ := newTestRouter(recipeProvider())

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients": "not-a-list"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchRecipes_ValidationError(t *testing.T) {
	provider := recipeProvider()
	r, _ := newTestRouter(provider)

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if provider.CallCount() != 0 {
		t.Errorf("provider called %d times, want 0", provider.CallCount())
	}
}

func TestSearchRecipes_UnknownSession(t *testing.T) {
	r, _ := newTestRouter(recipeProvider())

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"],"session_id":"nope"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearchRecipes_ConflictWhileSearching(t *testing.T) {
	r, sessions := newTestRouter(recipeProvider("Tamales"))

	sess := sessions.Create(testutil.RecipeCriteria())
	if err := sess.Begin(); err != nil {
		t.Fatalf("Begin() = %v", err)
	}
	defer sess.End()

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"],"session_id":"`+sess.ID+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 while a search is in flight", w.Code)
	}
}

func TestLoadMoreRecipes_AppendsAndExcludes(t *testing.T) {
	calls := 0
	provider := &testutil.MockGroundedProvider{}
	provider.GenerateGroundedFunc = func(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error) {
		calls++
		name := "Tamales"
		if calls > 1 {
			name = "Pozole"
		}
		raw, _ := json.Marshal(ai.StructuredRecipes{Recipes: []models.RecipeRecord{testutil.TestRecipe(name)}})
		return &ai.GroundedResult{RecordsJSON: raw}, nil
	}
	r, _ := newTestRouter(provider)

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"]}`)
	var first struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshal first response: %v", err)
	}

	w = postJSON(t, r, "/v1/search/recipes/more", `{"session_id":"`+first.SessionID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("load more status = %d: %s", w.Code, w.Body.String())
	}

	var second struct {
		Recipes []models.RecipeRecord `json:"recipes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("unmarshal second response: %v", err)
	}
	if len(second.Recipes) != 2 || second.Recipes[0].Name != "Tamales" || second.Recipes[1].Name != "Pozole" {
		t.Errorf("cumulative recipes = %+v, want [Tamales Pozole]", second.Recipes)
	}

	reqs := provider.Calls()
	if len(reqs) != 2 {
		t.Fatalf("provider called %d times, want 2", len(reqs))
	}
	if !strings.Contains(reqs[1].Prompt, "DO NOT include any of the following: Tamales.") {
		t.Errorf("load-more prompt missing exclusion of shown names:\n%s", reqs[1].Prompt)
	}
}

func TestLoadMoreRecipes_MissingSessionID(t *testing.T) {
	r, _ := newTestRouter(recipeProvider())

	w := postJSON(t, r, "/v1/search/recipes/more", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLoadMoreRecipes_UnknownSession(t *testing.T) {
	r, _ := newTestRouter(recipeProvider())

	w := postJSON(t, r, "/v1/search/recipes/more", `{"session_id":"nope"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearchBusinesses_RequiresZip(t *testing.T) {
	r, _ := newTestRouter(recipeProvider())

	w := postJSON(t, r, "/v1/search/businesses", `{"ingredients":["masa"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without a zip code", w.Code)
	}
}

func TestSearchBusinesses_ReturnsBundle(t *testing.T) {
	provider := &testutil.MockGroundedProvider{
		GenerateGroundedFunc: func(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error) {
			raw, _ := json.Marshal(ai.StructuredBusinesses{
				Businesses: []models.BusinessRecord{testutil.TestBusiness("La Palma")},
			})
			return &ai.GroundedResult{RecordsJSON: raw}, nil
		},
	}
	r, _ := newTestRouter(provider)

	w := postJSON(t, r, "/v1/search/businesses", `{"ingredients":["masa"],"zip_code":"94110"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Businesses []models.BusinessRecord `json:"businesses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Businesses) != 1 || resp.Businesses[0].Name != "La Palma" {
		t.Errorf("businesses = %+v", resp.Businesses)
	}
}

func TestSearchRecipes_ProviderFailureStillOK(t *testing.T) {
	provider := &testutil.MockGroundedProvider{
		GenerateGroundedFunc: func(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error) {
			return nil, context.DeadlineExceeded
		},
	}
	r, _ := newTestRouter(provider)

	w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (provider failures degrade to empty)", w.Code)
	}

	var resp struct {
		Recipes []models.RecipeRecord `json:"recipes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Recipes) != 0 {
		t.Errorf("recipes = %+v, want empty", resp.Recipes)
	}
}

func TestSearchRecipes_ConcurrentSessionReuse(t *testing.T) {
	r, sessions := newTestRouter(recipeProvider("Tamales"))
	sess := sessions.Create(testutil.RecipeCriteria())

	var wg sync.WaitGroup
	codes := make(chan int, 4*50)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				w := postJSON(t, r, "/v1/search/recipes", `{"ingredients":["masa"],"session_id":"`+sess.ID+`"}`)
				codes <- w.Code
			}
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		if code != http.StatusOK && code != http.StatusConflict {
			t.Fatalf("concurrent reuse status = %d, want 200 or 409", code)
		}
	}
}
