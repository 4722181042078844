package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-service/internal/middleware"
	"wellness-service/internal/repository"
	"wellness-service/internal/services"
)

// CompanyHandlers exposes the company-facing subscription endpoints
type CompanyHandlers struct {
	subscriptions *services.SubscriptionService
	users         *repository.UserRepository
}

// NewCompanyHandlers creates new company handlers
func NewCompanyHandlers(subscriptions *services.SubscriptionService, users *repository.UserRepository) *CompanyHandlers {
	return &CompanyHandlers{subscriptions: subscriptions, users: users}
}

type estimateRequest struct {
	Employees int `json:"employees" binding:"required"`
}

// CreateEstimate opens a PENDING subscription and prices it
func (h *CompanyHandlers) CreateEstimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	company := middleware.CurrentUser(c)
	estimate, sub, err := h.subscriptions.CreateEstimate(c.Request.Context(), company.ID, req.Employees)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Estimate created", gin.H{
		"estimate":     estimate,
		"subscription": sub,
	})
}

// ListContracts returns the company's contracts, expiring stale ones first
func (h *CompanyHandlers) ListContracts(c *gin.Context) {
	company := middleware.CurrentUser(c)
	contracts, err := h.subscriptions.ListContracts(c.Request.Context(), company.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", contracts)
}

type signRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// SignContract records the company's signature on a contract
func (h *CompanyHandlers) SignContract(c *gin.Context) {
	subscriptionID, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subscription id", err)
		return
	}
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	company := middleware.CurrentUser(c)
	if err := h.subscriptions.CompanySignContract(c.Request.Context(), company.ID, subscriptionID, req.Signature); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Contract signed", nil)
}

// Resiliate terminates a fully signed subscription
func (h *CompanyHandlers) Resiliate(c *gin.Context) {
	subscriptionID, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subscription id", err)
		return
	}

	company := middleware.CurrentUser(c)
	if err := h.subscriptions.Resiliate(c.Request.Context(), company.ID, subscriptionID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Subscription resiliated", nil)
}

// CreateBillCheckout opens a payment session for an unpaid bill
func (h *CompanyHandlers) CreateBillCheckout(c *gin.Context) {
	subscriptionID, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subscription id", err)
		return
	}

	company := middleware.CurrentUser(c)
	session, err := h.subscriptions.CreateBillCheckout(c.Request.Context(), company.ID, subscriptionID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Checkout session created", gin.H{"checkout_url": session.URL})
}

// ListCollaborators returns the company's collaborator profiles
func (h *CompanyHandlers) ListCollaborators(c *gin.Context) {
	company := middleware.CurrentUser(c)
	profiles, err := h.users.ListCollaboratorsByCompany(c.Request.Context(), company.ID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", profiles)
}

// DeleteCollaborator removes a collaborator of the company
func (h *CompanyHandlers) DeleteCollaborator(c *gin.Context) {
	collaboratorID, err := uuid.Parse(c.Param("collaborator_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid collaborator id", err)
		return
	}

	company := middleware.CurrentUser(c)
	collaborator, err := h.users.GetCollaboratorByUserID(c.Request.Context(), collaboratorID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	if collaborator == nil || collaborator.CompanyID != company.ID {
		ErrorResponse(c, http.StatusNotFound, "Collaborator not found", nil)
		return
	}

	if err := h.users.DeleteCollaborator(c.Request.Context(), collaboratorID); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Collaborator removed", nil)
}
