package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness-service/internal/models"
)

// EngagementRepository handles ticket, forum, NGO and chatbot usage
// database operations
type EngagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// ============================================================================
// Ticket Operations
// ============================================================================

// CreateTicket inserts a ticket and its opening message in one transaction
func (r *EngagementRepository) CreateTicket(ctx context.Context, ticket *models.Ticket, message *models.TicketMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create ticket message: %w", err)
		}
		return nil
	})
}

// GetTicket retrieves a ticket by id
func (r *EngagementRepository) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "ticket_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

// ListTicketsByUser returns a user's tickets, newest first
func (r *EngagementRepository) ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("creation_date DESC").
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// ListAllTickets returns every ticket, newest first
func (r *EngagementRepository) ListAllTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := r.db.WithContext(ctx).Order("creation_date DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// AddTicketMessage appends a message to a ticket thread
func (r *EngagementRepository) AddTicketMessage(ctx context.Context, message *models.TicketMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to add ticket message: %w", err)
	}
	return nil
}

// ListTicketMessages returns a ticket's thread in chronological order
func (r *EngagementRepository) ListTicketMessages(ctx context.Context, ticketID uuid.UUID) ([]models.TicketMessage, error) {
	var messages []models.TicketMessage
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("creation_date ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list ticket messages: %w", err)
	}
	return messages, nil
}

// UpdateTicketStatus transitions one ticket
func (r *EngagementRepository) UpdateTicketStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("ticket_id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	return nil
}

// ============================================================================
// Forum Operations
// ============================================================================

// CreateForumCategory inserts a forum category
func (r *EngagementRepository) CreateForumCategory(ctx context.Context, category *models.ForumCategory) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create forum category: %w", err)
	}
	return nil
}

// ListForumCategories returns every forum category
func (r *EngagementRepository) ListForumCategories(ctx context.Context) ([]models.ForumCategory, error) {
	var categories []models.ForumCategory
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list forum categories: %w", err)
	}
	return categories, nil
}

// GetForumCategory retrieves a category by id
func (r *EngagementRepository) GetForumCategory(ctx context.Context, id uuid.UUID) (*models.ForumCategory, error) {
	var category models.ForumCategory
	if err := r.db.WithContext(ctx).First(&category, "category_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get forum category: %w", err)
	}
	return &category, nil
}

// CreateForumSubject inserts a subject
func (r *EngagementRepository) CreateForumSubject(ctx context.Context, subject *models.ForumSubject) error {
	if err := r.db.WithContext(ctx).Create(subject).Error; err != nil {
		return fmt.Errorf("failed to create forum subject: %w", err)
	}
	return nil
}

// GetForumSubject retrieves a subject by id
func (r *EngagementRepository) GetForumSubject(ctx context.Context, id uuid.UUID) (*models.ForumSubject, error) {
	var subject models.ForumSubject
	if err := r.db.WithContext(ctx).First(&subject, "subject_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get forum subject: %w", err)
	}
	return &subject, nil
}

// ListForumSubjects returns the subjects of a category, newest first
func (r *EngagementRepository) ListForumSubjects(ctx context.Context, categoryID uuid.UUID) ([]models.ForumSubject, error) {
	var subjects []models.ForumSubject
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("creation_date DESC").
		Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to list forum subjects: %w", err)
	}
	return subjects, nil
}

// CreateForumPost inserts a post
func (r *EngagementRepository) CreateForumPost(ctx context.Context, post *models.ForumPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create forum post: %w", err)
	}
	return nil
}

// ListForumPosts returns the posts of a subject in chronological order
func (r *EngagementRepository) ListForumPosts(ctx context.Context, subjectID uuid.UUID) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("creation_date ASC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}
	return posts, nil
}

// ============================================================================
// NGO And Event Operations
// ============================================================================

// CreateNGO inserts an NGO row
func (r *EngagementRepository) CreateNGO(ctx context.Context, ngo *models.NGO) error {
	if err := r.db.WithContext(ctx).Create(ngo).Error; err != nil {
		return fmt.Errorf("failed to create ngo: %w", err)
	}
	return nil
}

// GetNGO retrieves an NGO by id
func (r *EngagementRepository) GetNGO(ctx context.Context, id uuid.UUID) (*models.NGO, error) {
	var ngo models.NGO
	if err := r.db.WithContext(ctx).First(&ngo, "ngo_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ngo: %w", err)
	}
	return &ngo, nil
}

// ListNGOs returns every NGO
func (r *EngagementRepository) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	var ngos []models.NGO
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&ngos).Error; err != nil {
		return nil, fmt.Errorf("failed to list ngos: %w", err)
	}
	return ngos, nil
}

// CreateEvent inserts an event row
func (r *EngagementRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by id
func (r *EngagementRepository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "event_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// ListUpcomingEvents returns events dated at or after the given instant
func (r *EngagementRepository) ListUpcomingEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).
		Where("event_date >= ?", from).
		Order("event_date ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CountEventBookings counts the participants of an event
func (r *EngagementRepository) CountEventBookings(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EventBooking{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count event bookings: %w", err)
	}
	return count, nil
}

// HasEventBooking reports whether a user already joined an event
func (r *EngagementRepository) HasEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EventBooking{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check event booking: %w", err)
	}
	return count > 0, nil
}

// CreateEventBooking inserts an event participation row
func (r *EngagementRepository) CreateEventBooking(ctx context.Context, booking *models.EventBooking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create event booking: %w", err)
	}
	return nil
}

// DeleteEventBooking removes a user's participation row, reporting
// whether one existed.
func (r *EngagementRepository) DeleteEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventBooking{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete event booking: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListEventBookingsByUser returns the events a user joined
func (r *EngagementRepository) ListEventBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.EventBooking, error) {
	var bookings []models.EventBooking
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("creation_date DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list event bookings: %w", err)
	}
	return bookings, nil
}

// CreateDonation inserts a donation row
func (r *EngagementRepository) CreateDonation(ctx context.Context, donation *models.Donation) error {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// ListDonationsByUser returns a user's donations, newest first
func (r *EngagementRepository) ListDonationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error) {
	var donations []models.Donation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("creation_date DESC").
		Find(&donations).Error; err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return donations, nil
}

// ============================================================================
// Chatbot Usage Operations
// ============================================================================

// CreateChatbotUsage records one assistant exchange
func (r *EngagementRepository) CreateChatbotUsage(ctx context.Context, usage *models.ChatbotUsage) error {
	if err := r.db.WithContext(ctx).Create(usage).Error; err != nil {
		return fmt.Errorf("failed to create chatbot usage: %w", err)
	}
	return nil
}

// CountChatbotUsageBetween counts a collaborator's exchanges within [from, to)
func (r *EngagementRepository) CountChatbotUsageBetween(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChatbotUsage{}).
		Where("collaborator_id = ? AND creation_date >= ? AND creation_date < ?", collaboratorID, from, to).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count chatbot usage: %w", err)
	}
	return count, nil
}

// ============================================================================
// Stats Operations
// ============================================================================

// PlatformStats is an aggregate snapshot used by the admin dashboard.
type PlatformStats struct {
	Companies         int64 `json:"companies"`
	Collaborators     int64 `json:"collaborators"`
	Contractors       int64 `json:"contractors"`
	ActiveSubs        int64 `json:"active_subscriptions"`
	BookedAppointment int64 `json:"booked_appointments"`
	OpenTickets       int64 `json:"open_tickets"`
}

// GetPlatformStats counts the main platform entities
func (r *EngagementRepository) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.Companies, &models.Company{}, "", nil},
		{&stats.Collaborators, &models.Collaborator{}, "", nil},
		{&stats.Contractors, &models.Contractor{}, "", nil},
		{&stats.ActiveSubs, &models.CompanySubscription{}, "status = ?", []interface{}{models.SubscriptionActive}},
		{&stats.BookedAppointment, &models.MedicalAppointment{}, "status = ?", []interface{}{models.AppointmentPayed}},
		{&stats.OpenTickets, &models.Ticket{}, "status = ?", []interface{}{models.TicketOpen}},
	}
	for _, c := range counts {
		q := r.db.WithContext(ctx).Model(c.model)
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute platform stats: %w", err)
		}
	}
	return &stats, nil
}
