package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/models"
	"wellness-service/internal/repository"
)

// EngagementStore is the persistence surface the support service needs
type EngagementStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket, message *models.TicketMessage) error
	GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	ListAllTickets(ctx context.Context) ([]models.Ticket, error)
	AddTicketMessage(ctx context.Context, message *models.TicketMessage) error
	ListTicketMessages(ctx context.Context, ticketID uuid.UUID) ([]models.TicketMessage, error)
	UpdateTicketStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateForumCategory(ctx context.Context, category *models.ForumCategory) error
	ListForumCategories(ctx context.Context) ([]models.ForumCategory, error)
	GetForumCategory(ctx context.Context, id uuid.UUID) (*models.ForumCategory, error)
	CreateForumSubject(ctx context.Context, subject *models.ForumSubject) error
	GetForumSubject(ctx context.Context, id uuid.UUID) (*models.ForumSubject, error)
	ListForumSubjects(ctx context.Context, categoryID uuid.UUID) ([]models.ForumSubject, error)
	CreateForumPost(ctx context.Context, post *models.ForumPost) error
	ListForumPosts(ctx context.Context, subjectID uuid.UUID) ([]models.ForumPost, error)

	CreateNGO(ctx context.Context, ngo *models.NGO) error
	GetNGO(ctx context.Context, id uuid.UUID) (*models.NGO, error)
	ListNGOs(ctx context.Context) ([]models.NGO, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]models.Event, error)
	CountEventBookings(ctx context.Context, eventID uuid.UUID) (int64, error)
	HasEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	CreateEventBooking(ctx context.Context, booking *models.EventBooking) error
	DeleteEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListEventBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.EventBooking, error)
	CreateDonation(ctx context.Context, donation *models.Donation) error
	ListDonationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error)

	GetPlatformStats(ctx context.Context) (*repository.PlatformStats, error)
}

// SupportService covers tickets, the forum, NGO engagement and stats
type SupportService struct {
	store     EngagementStore
	documents *DocumentService
	logger    *logrus.Logger
}

// NewSupportService creates a new support service
func NewSupportService(store EngagementStore, documents *DocumentService, logger *logrus.Logger) *SupportService {
	return &SupportService{store: store, documents: documents, logger: logger}
}

// ============================================================================
// Tickets
// ============================================================================

// OpenTicket creates a ticket with its opening message
func (s *SupportService) OpenTicket(ctx context.Context, userID uuid.UUID, title, category, content string) (*models.Ticket, error) {
	if title == "" || content == "" {
		return nil, NewValidationError("ticket", "title and content are required")
	}

	now := time.Now()
	ticket := &models.Ticket{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Category:     category,
		Status:       models.TicketOpen,
		CreationDate: now,
	}
	message := &models.TicketMessage{
		ID:           uuid.New(),
		TicketID:     ticket.ID,
		UserID:       userID,
		Content:      content,
		CreationDate: now,
	}
	if err := s.store.CreateTicket(ctx, ticket, message); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ticketAccess loads a ticket and enforces owner-or-admin access
func (s *SupportService) ticketAccess(ctx context.Context, userID uuid.UUID, ticketID uuid.UUID, isAdmin bool) (*models.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, NewNotFoundError("ticket", ticketID.String())
	}
	if !isAdmin && ticket.UserID != userID {
		return nil, NewForbiddenError("ticket belongs to another user")
	}
	return ticket, nil
}

// ReplyTicket appends a message to an open ticket
func (s *SupportService) ReplyTicket(ctx context.Context, userID, ticketID uuid.UUID, content string, isAdmin bool) (*models.TicketMessage, error) {
	if content == "" {
		return nil, NewValidationError("content", "is required")
	}
	ticket, err := s.ticketAccess(ctx, userID, ticketID, isAdmin)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return nil, NewConflictError("ticket", "is closed")
	}

	message := &models.TicketMessage{
		ID:           uuid.New(),
		TicketID:     ticketID,
		UserID:       userID,
		Content:      content,
		CreationDate: time.Now(),
	}
	if err := s.store.AddTicketMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// CloseTicket closes an open ticket
func (s *SupportService) CloseTicket(ctx context.Context, userID, ticketID uuid.UUID, isAdmin bool) error {
	ticket, err := s.ticketAccess(ctx, userID, ticketID, isAdmin)
	if err != nil {
		return err
	}
	if ticket.Status == models.TicketClosed {
		return NewConflictError("ticket", "already closed")
	}
	return s.store.UpdateTicketStatus(ctx, ticketID, models.TicketClosed)
}

// GetTicketThread returns a ticket and its messages
func (s *SupportService) GetTicketThread(ctx context.Context, userID, ticketID uuid.UUID, isAdmin bool) (*models.Ticket, []models.TicketMessage, error) {
	ticket, err := s.ticketAccess(ctx, userID, ticketID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.ListTicketMessages(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

// ListTickets returns the caller's tickets, or every ticket for admins
func (s *SupportService) ListTickets(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]models.Ticket, error) {
	if isAdmin {
		return s.store.ListAllTickets(ctx)
	}
	return s.store.ListTicketsByUser(ctx, userID)
}

// ============================================================================
// Forum
// ============================================================================

// CreateForumCategory adds a category
func (s *SupportService) CreateForumCategory(ctx context.Context, title string) (*models.ForumCategory, error) {
	if title == "" {
		return nil, NewValidationError("title", "is required")
	}
	category := &models.ForumCategory{ID: uuid.New(), Title: title}
	if err := s.store.CreateForumCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListForumCategories returns every category
func (s *SupportService) ListForumCategories(ctx context.Context) ([]models.ForumCategory, error) {
	return s.store.ListForumCategories(ctx)
}

// CreateForumSubject opens a thread in a category
func (s *SupportService) CreateForumSubject(ctx context.Context, userID, categoryID uuid.UUID, title, description string) (*models.ForumSubject, error) {
	if title == "" {
		return nil, NewValidationError("title", "is required")
	}
	category, err := s.store.GetForumCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, NewNotFoundError("category", categoryID.String())
	}

	subject := &models.ForumSubject{
		ID:           uuid.New(),
		CategoryID:   categoryID,
		UserID:       userID,
		Title:        title,
		Description:  description,
		CreationDate: time.Now(),
	}
	if err := s.store.CreateForumSubject(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// ListForumSubjects returns the threads of a category
func (s *SupportService) ListForumSubjects(ctx context.Context, categoryID uuid.UUID) ([]models.ForumSubject, error) {
	category, err := s.store.GetForumCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, NewNotFoundError("category", categoryID.String())
	}
	return s.store.ListForumSubjects(ctx, categoryID)
}

// CreateForumPost replies to a thread
func (s *SupportService) CreateForumPost(ctx context.Context, userID, subjectID uuid.UUID, content string) (*models.ForumPost, error) {
	if content == "" {
		return nil, NewValidationError("content", "is required")
	}
	subject, err := s.store.GetForumSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, NewNotFoundError("subject", subjectID.String())
	}

	post := &models.ForumPost{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		UserID:       userID,
		Content:      content,
		CreationDate: time.Now(),
	}
	if err := s.store.CreateForumPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetForumThread returns a subject and its posts
func (s *SupportService) GetForumThread(ctx context.Context, subjectID uuid.UUID) (*models.ForumSubject, []models.ForumPost, error) {
	subject, err := s.store.GetForumSubject(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}
	if subject == nil {
		return nil, nil, NewNotFoundError("subject", subjectID.String())
	}
	posts, err := s.store.ListForumPosts(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}
	return subject, posts, nil
}

// ============================================================================
// NGOs, Events, Donations
// ============================================================================

// CreateNGO registers a partner NGO
func (s *SupportService) CreateNGO(ctx context.Context, name, description, website, email string) (*models.NGO, error) {
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	ngo := &models.NGO{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Website:     website,
		Email:       email,
	}
	if err := s.store.CreateNGO(ctx, ngo); err != nil {
		return nil, err
	}
	return ngo, nil
}

// ListNGOs returns every NGO
func (s *SupportService) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	return s.store.ListNGOs(ctx)
}

// CreateEvent schedules an NGO activity
func (s *SupportService) CreateEvent(ctx context.Context, ngoID uuid.UUID, title, description, place string, date time.Time, capacity int) (*models.Event, error) {
	if title == "" {
		return nil, NewValidationError("title", "is required")
	}
	if capacity < 1 {
		return nil, NewValidationError("capacity", "must be at least 1")
	}
	if date.Before(time.Now()) {
		return nil, NewValidationError("date", "cannot be in the past")
	}
	ngo, err := s.store.GetNGO(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	if ngo == nil {
		return nil, NewNotFoundError("ngo", ngoID.String())
	}

	event := &models.Event{
		ID:           uuid.New(),
		NGOID:        ngoID,
		Title:        title,
		Description:  description,
		Date:         date,
		Place:        place,
		Capacity:     capacity,
		CreationDate: time.Now(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ListUpcomingEvents returns future events
func (s *SupportService) ListUpcomingEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListUpcomingEvents(ctx, time.Now())
}

// JoinEvent books a seat. A user joins once; full events reject joins.
func (s *SupportService) JoinEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return NewNotFoundError("event", eventID.String())
	}

	joined, err := s.store.HasEventBooking(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if joined {
		return NewConflictError("event", "already joined")
	}

	taken, err := s.store.CountEventBookings(ctx, eventID)
	if err != nil {
		return err
	}
	if taken >= int64(event.Capacity) {
		return NewConflictError("event", "is full")
	}

	return s.store.CreateEventBooking(ctx, &models.EventBooking{
		EventID:      eventID,
		UserID:       userID,
		CreationDate: time.Now(),
	})
}

// LeaveEvent gives the seat back. Only future events can be left.
func (s *SupportService) LeaveEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return NewNotFoundError("event", eventID.String())
	}
	if !event.Date.After(time.Now()) {
		return NewValidationError("event", "cannot leave a past event")
	}

	deleted, err := s.store.DeleteEventBooking(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return NewNotFoundError("event", "not joined")
	}
	return nil
}

// DonationInput is a donation request
type DonationInput struct {
	NGOID        uuid.UUID
	Type         string
	Description  string
	Amount       *float64
	BillingName  *string
	BillingEmail *string
}

// Donate records a contribution. Money donations need an amount and
// billing details and produce a receipt artifact.
func (s *SupportService) Donate(ctx context.Context, userID uuid.UUID, donorName string, in DonationInput) (*models.Donation, error) {
	ngo, err := s.store.GetNGO(ctx, in.NGOID)
	if err != nil {
		return nil, err
	}
	if ngo == nil {
		return nil, NewNotFoundError("ngo", in.NGOID.String())
	}

	donation := &models.Donation{
		ID:           uuid.New(),
		NGOID:        in.NGOID,
		UserID:       userID,
		Type:         in.Type,
		Description:  in.Description,
		CreationDate: time.Now(),
	}

	switch in.Type {
	case models.DonationPhysical:
	case models.DonationMoney:
		if in.Amount == nil || *in.Amount <= 0 {
			return nil, NewValidationError("amount", "is required for money donations")
		}
		if in.BillingName == nil || *in.BillingName == "" || in.BillingEmail == nil || *in.BillingEmail == "" {
			return nil, NewValidationError("billing", "name and email are required for money donations")
		}
		donation.Amount = in.Amount
		donation.BillingName = in.BillingName
		donation.BillingEmail = in.BillingEmail
		receipt := fmt.Sprintf("receipts/%s.html", donation.ID)
		donation.ReceiptFile = &receipt
	default:
		return nil, NewValidationError("type", "must be physique or argent")
	}

	if err := s.store.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}

	if donation.ReceiptFile != nil {
		if err := s.documents.GenerateReceipt(ctx, *donation.ReceiptFile, ReceiptDocument{
			NGOName:     ngo.Name,
			DonorName:   donorName,
			Amount:      *donation.Amount,
			Description: donation.Description,
			Date:        donation.CreationDate,
		}); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"ngo_id":      in.NGOID,
		"type":        in.Type,
	}).Info("donation recorded")
	return donation, nil
}

// ListDonations returns a user's donations
func (s *SupportService) ListDonations(ctx context.Context, userID uuid.UUID) ([]models.Donation, error) {
	return s.store.ListDonationsByUser(ctx, userID)
}

// PlatformStats returns the admin dashboard counters
func (s *SupportService) PlatformStats(ctx context.Context) (*repository.PlatformStats, error) {
	return s.store.GetPlatformStats(ctx)
}
