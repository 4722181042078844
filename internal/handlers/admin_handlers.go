package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-service/internal/models"
	"wellness-service/internal/repository"
	"wellness-service/internal/services"
)

// AdminHandlers exposes the back-office endpoints: operator accounts,
// pack management, contract countersigning and platform listings.
type AdminHandlers struct {
	auth          *services.AuthService
	subscriptions *services.SubscriptionService
	support       *services.SupportService
	subs          *repository.SubscriptionRepository
	users         *repository.UserRepository
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(auth *services.AuthService, subscriptions *services.SubscriptionService, support *services.SupportService, subs *repository.SubscriptionRepository, users *repository.UserRepository) *AdminHandlers {
	return &AdminHandlers{
		auth:          auth,
		subscriptions: subscriptions,
		support:       support,
		subs:          subs,
		users:         users,
	}
}

// RegisterAdministrator creates a new operator account
func (h *AdminHandlers) RegisterAdministrator(c *gin.Context) {
	var req signupPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid date format", err)
		return
	}

	user, err := h.auth.RegisterAdministrator(c.Request.Context(), input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Administrator created", user)
}

type packRequest struct {
	Name                      string `json:"name" binding:"required,max=50"`
	ActivityNumber            int    `json:"activity_number" binding:"required,min=1"`
	AnnualCollaboratorPrice   int64  `json:"annual_collaborator_price" binding:"required,min=1"`
	BonusConsultationPrice    int64  `json:"bonus_consultation_price" binding:"min=0"`
	DefaultConsultationNumber int    `json:"default_consultation_number" binding:"min=0"`
	StaffSize                 int    `json:"staff_size" binding:"required,min=1"`
	ChatbotMessageQuota       *int   `json:"chatbot_message_quota"`
}

// CreatePack adds a subscription pack to the catalog
func (h *AdminHandlers) CreatePack(c *gin.Context) {
	var req packRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pack := &models.Pack{
		ID:                        uuid.New(),
		Name:                      req.Name,
		CreationDate:              time.Now(),
		ActivityNumber:            req.ActivityNumber,
		AnnualCollaboratorPrice:   req.AnnualCollaboratorPrice,
		BonusConsultationPrice:    req.BonusConsultationPrice,
		DefaultConsultationNumber: req.DefaultConsultationNumber,
		StaffSize:                 req.StaffSize,
		ChatbotMessageQuota:       req.ChatbotMessageQuota,
	}
	if err := h.subs.CreatePack(c.Request.Context(), pack); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Pack created", pack)
}

// UpdatePack edits an existing pack
func (h *AdminHandlers) UpdatePack(c *gin.Context) {
	packID, err := uuid.Parse(c.Param("pack_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid pack id", err)
		return
	}
	var req packRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pack, err := h.subs.GetPackByID(c.Request.Context(), packID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	if pack == nil {
		ServiceErrorResponse(c, services.NewNotFoundError("pack", "pack not found"))
		return
	}

	pack.Name = req.Name
	pack.ActivityNumber = req.ActivityNumber
	pack.AnnualCollaboratorPrice = req.AnnualCollaboratorPrice
	pack.BonusConsultationPrice = req.BonusConsultationPrice
	pack.DefaultConsultationNumber = req.DefaultConsultationNumber
	pack.StaffSize = req.StaffSize
	pack.ChatbotMessageQuota = req.ChatbotMessageQuota
	if err := h.subs.UpdatePack(c.Request.Context(), pack); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Pack updated", pack)
}

// ListPacks returns the pack catalog
func (h *AdminHandlers) ListPacks(c *gin.Context) {
	packs, err := h.subs.ListPacks(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", packs)
}

// CounterSignContract records the operator's signature on a
// company-signed contract and issues the first bill.
func (h *AdminHandlers) CounterSignContract(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid company id", err)
		return
	}
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

	bill, err := h.subscriptions.AdminSignContract(c.Request.Context(), companyID, subscriptionID, req.Signature)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Contract countersigned", bill)
}

// ListContracts returns every contract with its company name,
// expiring stale subscriptions first.
func (h *AdminHandlers) ListContracts(c *gin.Context) {
	if err := h.subscriptions.SweepExpirations(c.Request.Context()); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	contracts, err := h.subs.ListAllContractsWithCompany(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", contracts)
}

// ListEstimates returns every estimate with its company name
func (h *AdminHandlers) ListEstimates(c *gin.Context) {
	estimates, err := h.subs.ListAllEstimatesWithCompany(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", estimates)
}

// ListBills returns every bill with its company name
func (h *AdminHandlers) ListBills(c *gin.Context) {
	bills, err := h.subs.ListAllBillsWithCompany(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", bills)
}

// ListCompanies returns every registered company profile
func (h *AdminHandlers) ListCompanies(c *gin.Context) {
	companies, err := h.users.ListCompanies(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", companies)
}

// ListContractors returns every registered contractor profile
func (h *AdminHandlers) ListContractors(c *gin.Context) {
	contractors, err := h.users.ListContractors(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", contractors)
}

// PlatformStats returns the back-office dashboard counters
func (h *AdminHandlers) PlatformStats(c *gin.Context) {
	stats, err := h.support.PlatformStats(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", stats)
}
