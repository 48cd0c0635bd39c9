package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kaiwsv/rootsrecipes-api/internal/cards"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"github.com/kaiwsv/rootsrecipes-api/internal/service"
	"github.com/kaiwsv/rootsrecipes-api/internal/session"
)

// SearchHandler exposes the recipe and business search endpoints.
type SearchHandler struct {
	Service  *service.SearchService
	Sessions *session.Store
	Enricher *cards.Enricher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService *service.SearchService, sessions *session.Store, enricher *cards.Enricher) *SearchHandler {
	return &SearchHandler{
		Service:  searchService,
		Sessions: sessions,
		Enricher: enricher,
	}
}

type searchRequest struct {
	models.SearchCriteria
	SessionID string `json:"session_id,omitempty"`
}

type loadMoreRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SearchRecipes handles POST /v1/search/recipes. A fresh session is created
// unless the client passes one to reuse. The response carries the session's
// cumulative record list; card media follows over the session's ws stream.
func (h *SearchHandler) SearchRecipes(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sess, ok := h.sessionFor(c, req)
	if !ok {
		return
	}
	if err := sess.Begin(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A search is already in progress"})
		return
	}
	defer sess.End()

	bundle, err := h.Service.SearchRecipes(c.Request.Context(), sess.Criteria())
	if err != nil {
		respondValidationError(c, err)
		return
	}

	recipes, srcs := sess.AppendRecipes(bundle)
	h.Enricher.EnrichRecipes(context.WithoutCancel(c.Request.Context()), sess.ID, bundle.Recipes)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"recipes":    recipes,
		"sources":    srcs,
	})
}

// LoadMoreRecipes handles POST /v1/search/recipes/more. The server replays
// the session's criteria with every already-shown name excluded and appends
// the new batch after the existing records.
func (h *SearchHandler) LoadMoreRecipes(c *gin.Context) {
	var req loadMoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	sess, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	if err := sess.Begin(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A search is already in progress"})
		return
	}
	defer sess.End()

	criteria := sess.Criteria().WithExclusions(sess.ShownNames())
	bundle, err := h.Service.LoadMoreRecipes(c.Request.Context(), criteria)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	recipes, srcs := sess.AppendRecipes(bundle)
	h.Enricher.EnrichRecipes(context.WithoutCancel(c.Request.Context()), sess.ID, bundle.Recipes)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"recipes":    recipes,
		"sources":    srcs,
	})
}

// SearchBusinesses handles POST /v1/search/businesses.
func (h *SearchHandler) SearchBusinesses(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sess, ok := h.sessionFor(c, req)
	if !ok {
		return
	}
	if err := sess.Begin(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A search is already in progress"})
		return
	}
	defer sess.End()

	bundle, err := h.Service.SearchBusinesses(c.Request.Context(), sess.Criteria())
	if err != nil {
		respondValidationError(c, err)
		return
	}

	businesses, srcs := sess.AppendBusinesses(bundle)
	h.Enricher.EnrichBusinesses(context.WithoutCancel(c.Request.Context()), sess.ID, bundle.Businesses)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"businesses": businesses,
		"sources":    srcs,
	})
}

// LoadMoreBusinesses handles POST /v1/search/businesses/more.
func (h *SearchHandler) LoadMoreBusinesses(c *gin.Context) {
	var req loadMoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	sess, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	if err := sess.Begin(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A search is already in progress"})
		return
	}
	defer sess.End()

	criteria := sess.Criteria().WithExclusions(sess.ShownNames())
	bundle, err := h.Service.LoadMoreBusinesses(c.Request.Context(), criteria)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	businesses, srcs := sess.AppendBusinesses(bundle)
	h.Enricher.EnrichBusinesses(context.WithoutCancel(c.Request.Context()), sess.ID, bundle.Businesses)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"businesses": businesses,
		"sources":    srcs,
	})
}

// sessionFor resolves the request's session: reuse when an ID was sent,
// otherwise create a fresh one for the submitted criteria.
func (h *SearchHandler) sessionFor(c *gin.Context, req searchRequest) (*session.Session, bool) {
	if req.SessionID == "" {
		return h.Sessions.Create(req.SearchCriteria), true
	}

	sess, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return nil, false
	}
	sess.SetCriteria(req.SearchCriteria)
	return sess, true
}

// respondValidationError maps the service's pre-flight validation sentinels
// to the blocking 400 the client shows the user. The orchestrator absorbs
// provider failures itself, so anything else here is a programming error.
func respondValidationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoIngredients),
		errors.Is(err, service.ErrInvalidZipCode),
		errors.Is(err, service.ErrProfaneCriteria):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
	}
}
