package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-service/internal/middleware"
	"wellness-service/internal/services"
)

// ContractorHandlers exposes the contractor calendar endpoints
type ContractorHandlers struct {
	scheduler *services.SchedulerService
}

// NewContractorHandlers creates new contractor handlers
func NewContractorHandlers(scheduler *services.SchedulerService) *ContractorHandlers {
	return &ContractorHandlers{scheduler: scheduler}
}

// Availability returns a contractor's busy slots. The optional week query
// parameter (RFC 3339) selects one week; otherwise all future slots.
func (h *ContractorHandlers) Availability(c *gin.Context) {
	contractorID, err := uuid.Parse(c.Param("contractor_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid contractor id", err)
		return
	}

	var weekStart *time.Time
	if week := c.Query("week"); week != "" {
		parsed, err := time.Parse(time.RFC3339, week)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid week parameter", err)
			return
		}
		weekStart = &parsed
	}

	slots, err := h.scheduler.WeeklyAvailability(c.Request.Context(), contractorID, weekStart)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", slots)
}

type unavailabilityRequest struct {
	Begin time.Time `json:"unavailable_begin_date" binding:"required"`
	End   time.Time `json:"unavailable_end_date" binding:"required"`
}

// AddUnavailability declares a blackout window on the caller's calendar
func (h *ContractorHandlers) AddUnavailability(c *gin.Context) {
	var req unavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contractor := middleware.CurrentUser(c)
	window, err := h.scheduler.AddUnavailability(c.Request.Context(), contractor.ID, req.Begin, req.End)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Unavailability added", window)
}

// RemoveUnavailability deletes one of the caller's blackout windows
func (h *ContractorHandlers) RemoveUnavailability(c *gin.Context) {
	windowID, err := uuid.Parse(c.Param("calendar_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid calendar id", err)
		return
	}

	contractor := middleware.CurrentUser(c)
	if err := h.scheduler.RemoveUnavailability(c.Request.Context(), contractor.ID, windowID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Unavailability removed", nil)
}

// Calendar returns the caller's own busy slots
func (h *ContractorHandlers) Calendar(c *gin.Context) {
	contractor := middleware.CurrentUser(c)
	slots, err := h.scheduler.WeeklyAvailability(c.Request.Context(), contractor.ID, nil)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", slots)
}
