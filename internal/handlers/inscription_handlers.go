package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-service/internal/middleware"
	"wellness-service/internal/services"
)

// InscriptionHandlers exposes the public sign-up endpoints
type InscriptionHandlers struct {
	auth *services.AuthService
}

// NewInscriptionHandlers creates new inscription handlers
func NewInscriptionHandlers(auth *services.AuthService) *InscriptionHandlers {
	return &InscriptionHandlers{auth: auth}
}

const dateLayout = "2006-01-02"

type signupPayload struct {
	FirstName   string `json:"firstname" binding:"required,max=50"`
	LastName    string `json:"lastname" binding:"required,max=50"`
	DateOfBirth string `json:"dob" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Country     string `json:"country" binding:"required"`
	City        string `json:"city" binding:"required"`
	Street      string `json:"street" binding:"required"`
	PostalCode  string `json:"pc" binding:"required"`
}

func (p *signupPayload) toInput() (services.SignupInput, error) {
	dob, err := time.Parse(dateLayout, p.DateOfBirth)
	if err != nil {
		return services.SignupInput{}, fmt.Errorf("invalid dob: %w", err)
	}
	return services.SignupInput{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: dob,
		Phone:       p.Phone,
		Email:       p.Email,
		Password:    p.Password,
		Country:     p.Country,
		City:        p.City,
		Street:      p.Street,
		PostalCode:  p.PostalCode,
	}, nil
}

type companySignupRequest struct {
	signupPayload
	CompanyName        string  `json:"name" binding:"required"`
	Website            *string `json:"website"`
	RegistrationNumber string  `json:"registration_number" binding:"required"`
	RegistrationDate   string  `json:"registration_date" binding:"required"`
	Industry           string  `json:"industry"`
	Revenue            int64   `json:"revenue"`
	Size               int     `json:"size"`
}

// RegisterCompany creates a company account
func (h *InscriptionHandlers) RegisterCompany(c *gin.Context) {
	var req companySignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid date format", err)
		return
	}
	regDate, err := time.Parse(dateLayout, req.RegistrationDate)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid registration date", err)
		return
	}

	user, err := h.auth.RegisterCompany(c.Request.Context(), services.CompanySignup{
		SignupInput:        input,
		CompanyName:        req.CompanyName,
		Website:            req.Website,
		RegistrationNumber: req.RegistrationNumber,
		RegistrationDate:   regDate,
		Industry:           req.Industry,
		Revenue:            req.Revenue,
		Size:               req.Size,
	})
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Company registered", gin.H{"user_id": user.ID})
}

type contractorSignupRequest struct {
	signupPayload
	RegistrationNumber string  `json:"registration_number" binding:"required"`
	RegistrationDate   string  `json:"registration_date" binding:"required"`
	Service            string  `json:"service" binding:"required"`
	ServicePrice       int64   `json:"service_price" binding:"required"`
	Website            *string `json:"website"`
	Intervention       string  `json:"intervention" binding:"required,oneof=incall outcall both"`
	Type               string  `json:"type" binding:"required"`
}

// RegisterContractor creates a contractor account
func (h *InscriptionHandlers) RegisterContractor(c *gin.Context) {
	var req contractorSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid date format", err)
		return
	}
	regDate, err := time.Parse(dateLayout, req.RegistrationDate)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid registration date", err)
		return
	}

	user, err := h.auth.RegisterContractor(c.Request.Context(), services.ContractorSignup{
		SignupInput:        input,
		RegistrationNumber: req.RegistrationNumber,
		RegistrationDate:   regDate,
		Service:            req.Service,
		ServicePrice:       req.ServicePrice,
		Website:            req.Website,
		Intervention:       req.Intervention,
		Type:               req.Type,
	})
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Contractor registered", gin.H{"user_id": user.ID})
}

// RegisterCollaborator creates a collaborator account under the calling company
func (h *InscriptionHandlers) RegisterCollaborator(c *gin.Context) {
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

	company := middleware.CurrentUser(c)
	user, err := h.auth.RegisterCollaborator(c.Request.Context(), company.ID, input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Collaborator registered", gin.H{"user_id": user.ID})
}
