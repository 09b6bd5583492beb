package api

import (
	"errors"
	"fmt"
	"net/http"

	"balans/wellbeing-app/internal/adaptation"
	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdaptationHandler exposes plan adaptation operations.
type AdaptationHandler struct {
	adaptationService service.AdaptationService
}

// NewAdaptationHandler creates a new AdaptationHandler.
func NewAdaptationHandler(adaptationService service.AdaptationService) *AdaptationHandler {
	return &AdaptationHandler{adaptationService: adaptationService}
}

// --- Request/Response Structs ---

type ApplyAdaptationRequest struct {
	Intent       domain.AdaptationIntent `json:"intent" binding:"required"`
	SlotToRemove domain.TimeSlot         `json:"slotToRemove"`
	SlotToAdd    domain.TimeSlot         `json:"slotToAdd"`
	TargetDays   int                     `json:"targetDays"`
	NewFocus     domain.Focus            `json:"newFocus"`
}

type AdaptationResponse struct {
	Intent    domain.AdaptationIntent `json:"intent"`
	PlanID    string                  `json:"planId"`
	NewPlanID string                  `json:"newPlanId,omitempty"`
	Diff      domain.VersionDiff      `json:"diff"`
}

func mapOutcomeToResponse(outcome *service.AdaptationOutcome) AdaptationResponse {
	resp := AdaptationResponse{
		Intent: outcome.Intent,
		PlanID: outcome.Plan.ID.Hex(),
		Diff:   outcome.Diff,
	}
	if outcome.NewPlan != nil {
		resp.NewPlanID = outcome.NewPlan.ID.Hex()
	}
	return resp
}

// --- Handler Methods ---

// Apply runs one adaptation intent against the user's live plan. Policy
// rejections come back as 422 with the machine-readable reason so clients
// can tell rate limits from conflicts from state short-circuits.
func (h *AdaptationHandler) Apply(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ApplyAdaptationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	outcome, err := h.adaptationService.Apply(c.Request.Context(), userID, service.AdaptationRequest{
		Intent:       req.Intent,
		SlotToRemove: req.SlotToRemove,
		SlotToAdd:    req.SlotToAdd,
		TargetDays:   req.TargetDays,
		NewFocus:     req.NewFocus,
	})
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapOutcomeToResponse(outcome))
}

// Undo applies the inverse of the last reversible adaptation.
func (h *AdaptationHandler) Undo(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	outcome, err := h.adaptationService.Undo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToUndo) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapOutcomeToResponse(outcome))
}

// History lists the user's adaptation history, newest first.
func (h *AdaptationHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	history, err := h.adaptationService.History(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// Analytics returns adaptation quality metrics for one plan.
func (h *AdaptationHandler) Analytics(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan id")
		return
	}

	analytics, err := h.adaptationService.Analytics(c.Request.Context(), planID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *AdaptationHandler) mapError(c *gin.Context, err error) {
	var notEligible *adaptation.NotEligibleError
	switch {
	case errors.As(err, &notEligible):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "adaptation not eligible",
			"intent": notEligible.Intent,
			"reason": notEligible.Reason,
		})
	case errors.Is(err, service.ErrNoAdaptablePlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to apply adaptation")
	}
}
