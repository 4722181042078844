package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-service/internal/middleware"
	"wellness-service/internal/models"
	"wellness-service/internal/services"
)

// SupportHandlers exposes tickets, the forum and the solidarity
// endpoints (NGOs, events and donations).
type SupportHandlers struct {
	support *services.SupportService
}

// NewSupportHandlers creates new support handlers
func NewSupportHandlers(support *services.SupportService) *SupportHandlers {
	return &SupportHandlers{support: support}
}

func isAdmin(c *gin.Context) bool {
	user := middleware.CurrentUser(c)
	return user != nil && user.Role == models.RoleAdministrator
}

type ticketRequest struct {
	Title    string `json:"title" binding:"required,max=100"`
	Category string `json:"category" binding:"required,max=50"`
	Content  string `json:"content" binding:"required"`
}

// OpenTicket opens a support ticket with its first message
func (h *SupportHandlers) OpenTicket(c *gin.Context) {
	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	ticket, err := h.support.OpenTicket(c.Request.Context(), user.ID, req.Title, req.Category, req.Content)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Ticket opened", ticket)
}

type ticketReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

// ReplyTicket appends a message to an open ticket
func (h *SupportHandlers) ReplyTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid ticket id", err)
		return
	}
	var req ticketReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	message, err := h.support.ReplyTicket(c.Request.Context(), user.ID, ticketID, req.Content, isAdmin(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Reply posted", message)
}

// CloseTicket closes a ticket; closing twice is a conflict
func (h *SupportHandlers) CloseTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid ticket id", err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.support.CloseTicket(c.Request.Context(), user.ID, ticketID, isAdmin(c)); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Ticket closed", nil)
}

// GetTicket returns a ticket and its message thread
func (h *SupportHandlers) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid ticket id", err)
		return
	}

	user := middleware.CurrentUser(c)
	ticket, messages, err := h.support.GetTicketThread(c.Request.Context(), user.ID, ticketID, isAdmin(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", gin.H{
		"ticket":   ticket,
		"messages": messages,
	})
}

// ListTickets returns the caller's tickets, or all tickets for operators
func (h *SupportHandlers) ListTickets(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tickets, err := h.support.ListTickets(c.Request.Context(), user.ID, isAdmin(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", tickets)
}

type forumCategoryRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// CreateForumCategory adds a forum category
func (h *SupportHandlers) CreateForumCategory(c *gin.Context) {
	var req forumCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.support.CreateForumCategory(c.Request.Context(), req.Title)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Category created", category)
}

// ListForumCategories returns all forum categories
func (h *SupportHandlers) ListForumCategories(c *gin.Context) {
	categories, err := h.support.ListForumCategories(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", categories)
}

type forumSubjectRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"required"`
}

// CreateForumSubject opens a discussion thread in a category
func (h *SupportHandlers) CreateForumSubject(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid category id", err)
		return
	}
	var req forumSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	subject, err := h.support.CreateForumSubject(c.Request.Context(), user.ID, categoryID, req.Title, req.Description)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Subject created", subject)
}

// ListForumSubjects returns the threads of a category
func (h *SupportHandlers) ListForumSubjects(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid category id", err)
		return
	}

	subjects, err := h.support.ListForumSubjects(c.Request.Context(), categoryID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", subjects)
}

type forumPostRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateForumPost replies to a thread
func (h *SupportHandlers) CreateForumPost(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subject id", err)
		return
	}
	var req forumPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	post, err := h.support.CreateForumPost(c.Request.Context(), user.ID, subjectID, req.Content)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Post created", post)
}

// GetForumThread returns a subject and its posts
func (h *SupportHandlers) GetForumThread(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subject id", err)
		return
	}

	subject, posts, err := h.support.GetForumThread(c.Request.Context(), subjectID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", gin.H{
		"subject": subject,
		"posts":   posts,
	})
}

type ngoRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Website     string `json:"website"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// CreateNGO registers a partner organization
func (h *SupportHandlers) CreateNGO(c *gin.Context) {
	var req ngoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ngo, err := h.support.CreateNGO(c.Request.Context(), req.Name, req.Description, req.Website, req.Email)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "NGO created", ngo)
}

// ListNGOs returns all partner organizations
func (h *SupportHandlers) ListNGOs(c *gin.Context) {
	ngos, err := h.support.ListNGOs(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", ngos)
}

type eventRequest struct {
	Title       string    `json:"title" binding:"required,max=100"`
	Description string    `json:"description"`
	Place       string    `json:"place" binding:"required"`
	Date        time.Time `json:"event_date" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
}

// CreateEvent schedules a solidarity event for an NGO
func (h *SupportHandlers) CreateEvent(c *gin.Context) {
	ngoID, err := uuid.Parse(c.Param("ngo_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid ngo id", err)
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := h.support.CreateEvent(c.Request.Context(), ngoID, req.Title, req.Description, req.Place, req.Date, req.Capacity)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Event created", event)
}

// ListEvents returns upcoming events
func (h *SupportHandlers) ListEvents(c *gin.Context) {
	events, err := h.support.ListUpcomingEvents(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", events)
}

// JoinEvent books the caller a seat at an event
func (h *SupportHandlers) JoinEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.support.JoinEvent(c.Request.Context(), user.ID, eventID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Event joined", nil)
}

// LeaveEvent releases the caller's seat at a future event
func (h *SupportHandlers) LeaveEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.support.LeaveEvent(c.Request.Context(), user.ID, eventID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Event left", nil)
}

type donationRequest struct {
	NGOID        uuid.UUID `json:"ngo_id" binding:"required"`
	Type         string    `json:"type" binding:"required,oneof=physique argent"`
	Description  string    `json:"description"`
	Amount       *float64  `json:"amount"`
	BillingName  *string   `json:"billing_name"`
	BillingEmail *string   `json:"billing_email"`
}

// Donate records a contribution to an NGO
func (h *SupportHandlers) Donate(c *gin.Context) {
	var req donationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := middleware.CurrentUser(c)
	donorName := user.FirstName + " " + user.LastName
	donation, err := h.support.Donate(c.Request.Context(), user.ID, donorName, services.DonationInput{
		NGOID:        req.NGOID,
		Type:         req.Type,
		Description:  req.Description,
		Amount:       req.Amount,
		BillingName:  req.BillingName,
		BillingEmail: req.BillingEmail,
	})
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Donation recorded", donation)
}

// ListDonations returns the caller's donations
func (h *SupportHandlers) ListDonations(c *gin.Context) {
	user := middleware.CurrentUser(c)
	donations, err := h.support.ListDonations(c.Request.Context(), user.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", donations)
}
