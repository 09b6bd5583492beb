package api

import (
	"fmt"
	"net/http"

	"balans/wellbeing-app/internal/service"
	"balans/wellbeing-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the content library: listing, refresh from the
// source, and presigned media downloads.
type CatalogHandler struct {
	catalogService service.CatalogService
	objectStorage  storage.ObjectStorage
}

// NewCatalogHandler creates a new CatalogHandler. objectStorage may be nil
// when the deployment has no media bucket.
func NewCatalogHandler(catalogService service.CatalogService, objectStorage storage.ObjectStorage) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		objectStorage:  objectStorage,
	}
}

// ListExercises returns the active content library entries.
func (h *CatalogHandler) ListExercises(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.ActiveExercises())
}

// GetExercise returns one catalog entry with its content payload.
func (h *CatalogHandler) GetExercise(c *gin.Context) {
	id := c.Param("id")
	exercise, ok := h.catalogService.ByID(id)
	if !ok {
		abortWithError(c, http.StatusNotFound, "Exercise not found")
		return
	}

	library, err := h.catalogService.Library()
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	payload, _ := library.Payload(id)

	c.JSON(http.StatusOK, gin.H{
		"exercise": exercise,
		"payload":  payload,
	})
}

// Refresh reloads the content library from its source.
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if err := h.catalogService.Refresh(c.Request.Context()); err != nil {
		abortWithError(c, http.StatusBadGateway, fmt.Sprintf("Catalog refresh failed: %v", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMediaURL hands out a presigned download URL for an exercise media
// object.
func (h *CatalogHandler) GetMediaURL(c *gin.Context) {
	if h.objectStorage == nil {
		abortWithError(c, http.StatusNotImplemented, "Media storage not configured")
		return
	}

	id := c.Param("id")
	if _, ok := h.catalogService.ByID(id); !ok {
		abortWithError(c, http.StatusNotFound, "Exercise not found")
		return
	}

	objectKey := fmt.Sprintf("media/%s", id)
	url, err := h.objectStorage.GeneratePresignedDownloadURL(c.Request.Context(), objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to generate download URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
