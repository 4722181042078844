package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-service/internal/middleware"
	"wellness-service/internal/services"
)

// CollaboratorHandlers exposes booking and quota endpoints
type CollaboratorHandlers struct {
	scheduler *services.SchedulerService
	quota     *services.QuotaService
}

// NewCollaboratorHandlers creates new collaborator handlers
func NewCollaboratorHandlers(scheduler *services.SchedulerService, quota *services.QuotaService) *CollaboratorHandlers {
	return &CollaboratorHandlers{scheduler: scheduler, quota: quota}
}

type bookRequest struct {
	ContractorID uuid.UUID `json:"contractor_id" binding:"required"`
	Date         time.Time `json:"medical_appointment_date" binding:"required"`
	Place        string    `json:"place" binding:"required,oneof=incall outcall"`
}

// Book reserves a consultation slot, free on quota or through checkout
func (h *CollaboratorHandlers) Book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	collaborator := middleware.CurrentUser(c)
	result, err := h.scheduler.Book(c.Request.Context(), collaborator.ID, req.ContractorID, req.Date, req.Place)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if result.Appointment != nil {
		SuccessResponse(c, http.StatusCreated, "Appointment booked", result)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment required", result)
}

// ListAppointments returns the caller's appointments
func (h *CollaboratorHandlers) ListAppointments(c *gin.Context) {
	collaborator := middleware.CurrentUser(c)
	appointments, err := h.scheduler.ListForCollaborator(c.Request.Context(), collaborator.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", appointments)
}

// Cancel voids a future appointment of the caller
func (h *CollaboratorHandlers) Cancel(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("appointment_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid appointment id", err)
		return
	}

	collaborator := middleware.CurrentUser(c)
	if err := h.scheduler.Cancel(c.Request.Context(), collaborator.ID, appointmentID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Appointment canceled", nil)
}

type noteRequest struct {
	Note *int `json:"note" binding:"required"`
}

// AddNote rates a past consultation
func (h *CollaboratorHandlers) AddNote(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("appointment_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid appointment id", err)
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	collaborator := middleware.CurrentUser(c)
	if err := h.scheduler.AddNote(c.Request.Context(), collaborator.ID, appointmentID, *req.Note); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Note recorded", nil)
}

// FreeConsultations returns the caller's remaining quota in the current window
func (h *CollaboratorHandlers) FreeConsultations(c *gin.Context) {
	collaborator := middleware.CurrentUser(c)
	left, err := h.quota.FreeConsultationsLeft(c.Request.Context(), collaborator.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", gin.H{"free_consultations": left})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat forwards a message to the wellbeing assistant, subject to quota
func (h *CollaboratorHandlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	collaborator := middleware.CurrentUser(c)
	reply, err := h.quota.Ask(c.Request.Context(), collaborator.ID, req.Message)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", gin.H{"reply": reply})
}
