package handlers

import (
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
	"github.com/kaiwsv/rootsrecipes-api/internal/preview"
)

// PreviewHandler exposes the link-metadata fetch directly, for clients that
// poll for card media instead of holding a ws connection.
type PreviewHandler struct {
	Fetcher *preview.Fetcher
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(fetcher *preview.Fetcher) *PreviewHandler {
	return &PreviewHandler{Fetcher: fetcher}
}

// GetPreview handles GET /v1/preview?url=...
// Absent metadata is a normal outcome and comes back as 200 with a null
// metadata field, never an error status.
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	target := c.Query("url")
	if target == "" || !govalidator.IsRequestURL(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'url' must be a valid URL"})
		return
	}

	meta := h.Fetcher.Fetch(c.Request.Context(), target)
	c.JSON(http.StatusOK, gin.H{"metadata": meta})
}
