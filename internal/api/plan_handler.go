package api

import (
	"errors"
	"fmt"
	"net/http"

	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/planner"
	"balans/wellbeing-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes the plan lifecycle: composition flow, finalization and
// schedule preferences.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type ComposeDraftRequest struct {
	Duration           domain.Duration   `json:"duration" binding:"required"`
	Focus              domain.Focus      `json:"focus" binding:"required"`
	Load               domain.Load       `json:"load" binding:"required"`
	PreferredTimeSlots []domain.TimeSlot `json:"preferredTimeSlots"`
}

type DraftResponse struct {
	ID               string             `json:"id"`
	Duration         domain.Duration    `json:"duration"`
	Focus            domain.Focus       `json:"focus"`
	Load             domain.Load        `json:"load"`
	TotalDays        int                `json:"totalDays"`
	Steps            []domain.DraftStep `json:"steps"`
	ValidationErrors []string           `json:"validationErrors,omitempty"`
	Valid            bool               `json:"valid"`
}

type UpdateTimeSlotsRequest struct {
	Slots map[domain.TimeSlot]string `json:"slots" binding:"required"`
}

func mapDraftToResponse(draft *domain.Draft) DraftResponse {
	return DraftResponse{
		ID:               draft.ID,
		Duration:         draft.Duration,
		Focus:            draft.Focus,
		Load:             draft.Load,
		TotalDays:        draft.TotalDays,
		Steps:            draft.Steps,
		ValidationErrors: draft.ValidationErrors,
		Valid:            draft.IsValid(),
	}
}

// --- Handler Methods ---

// StartPlanFlow enters the composition tunnel.
func (h *PlanHandler) StartPlanFlow(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.planService.StartPlanFlow(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrIllegalTransition) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to start plan flow")
		return
	}
	c.Status(http.StatusNoContent)
}

// ComposeDraft builds a draft from the three pillars.
func (h *PlanHandler) ComposeDraft(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ComposeDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	params := domain.PlanParameters{
		Duration: req.Duration,
		Focus:    req.Focus,
		Load:     req.Load,
		Policy: domain.UserPolicy{
			PreferredTimeSlots: req.PreferredTimeSlots,
		},
	}

	draft, err := h.planService.ComposeDraft(c.Request.Context(), userID, params)
	if err != nil {
		var pillars *planner.ThreePillarsError
		var slots *planner.SlotCountError
		var library *planner.InsufficientLibraryError
		switch {
		case errors.As(err, &pillars), errors.As(err, &slots):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &library):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrIllegalTransition):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to compose draft")
		}
		return
	}

	c.JSON(http.StatusCreated, mapDraftToResponse(draft))
}

// GetDraft returns the pending draft preview.
func (h *PlanHandler) GetDraft(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	draft, err := h.planService.GetPendingDraft(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "No pending draft")
		return
	}
	c.JSON(http.StatusOK, mapDraftToResponse(draft))
}

// AbortPlanFlow leaves the composition tunnel without a plan.
func (h *PlanHandler) AbortPlanFlow(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.planService.AbortPlanFlow(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrIllegalTransition) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to abort plan flow")
		return
	}
	c.Status(http.StatusNoContent)
}

// FinalizePlan activates the pending draft as the live plan.
func (h *PlanHandler) FinalizePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.FinalizePlan(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIllegalTransition):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNoPendingDraft):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDraftInvalid):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to finalize plan")
		}
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetActivePlan returns the user's active plan.
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// UpdateTimeSlots stores new per-slot delivery times and reschedules the
// active plan.
func (h *PlanHandler) UpdateTimeSlots(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req UpdateTimeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.planService.UpdateUserTimeSlots(c.Request.Context(), userID, req.Slots); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
