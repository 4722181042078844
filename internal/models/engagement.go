package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses.
const (
	TicketOpen   = "OPEN"
	TicketClosed = "CLOSED"
)

// Ticket is a support request raised by any authenticated user.
type Ticket struct {
	ID           uuid.UUID `json:"ticket_id" gorm:"column:ticket_id;type:uuid;primary_key"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Title        string    `json:"title" gorm:"not null" validate:"required,max=255"`
	Category     string    `json:"category" gorm:"not null"`
	Status       string    `json:"status" gorm:"not null"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (Ticket) TableName() string { return "tickets" }

// TicketMessage is one entry in a ticket's conversation thread.
type TicketMessage struct {
	ID           uuid.UUID `json:"message_id" gorm:"column:message_id;type:uuid;primary_key"`
	TicketID     uuid.UUID `json:"ticket_id" gorm:"type:uuid;index;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Content      string    `json:"content" gorm:"type:text;not null" validate:"required"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (TicketMessage) TableName() string { return "ticket_messages" }

// ForumCategory groups subjects by theme.
type ForumCategory struct {
	ID    uuid.UUID `json:"category_id" gorm:"column:category_id;type:uuid;primary_key"`
	Title string    `json:"title" gorm:"uniqueIndex;not null" validate:"required,max=255"`
}

func (ForumCategory) TableName() string { return "forum_categories" }

// ForumSubject is a discussion thread within a category.
type ForumSubject struct {
	ID           uuid.UUID `json:"subject_id" gorm:"column:subject_id;type:uuid;primary_key"`
	CategoryID   uuid.UUID `json:"category_id" gorm:"type:uuid;index;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Title        string    `json:"title" gorm:"not null" validate:"required,max=255"`
	Description  string    `json:"description" gorm:"type:text"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (ForumSubject) TableName() string { return "forum_subjects" }

// ForumPost is a message inside a subject.
type ForumPost struct {
	ID           uuid.UUID `json:"post_id" gorm:"column:post_id;type:uuid;primary_key"`
	SubjectID    uuid.UUID `json:"subject_id" gorm:"type:uuid;index;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Content      string    `json:"content" gorm:"type:text;not null" validate:"required"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (ForumPost) TableName() string { return "forum_posts" }

// NGO is a partner non-profit organization.
type NGO struct {
	ID          uuid.UUID `json:"ngo_id" gorm:"column:ngo_id;type:uuid;primary_key"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null" validate:"required,max=255"`
	Description string    `json:"description" gorm:"type:text"`
	Website     string    `json:"website"`
	Email       string    `json:"email" validate:"omitempty,email"`
}

func (NGO) TableName() string { return "ngos" }

// Event is an NGO activity that collaborators can join.
type Event struct {
	ID           uuid.UUID `json:"event_id" gorm:"column:event_id;type:uuid;primary_key"`
	NGOID        uuid.UUID `json:"ngo_id" gorm:"type:uuid;index;not null"`
	Title        string    `json:"title" gorm:"not null" validate:"required,max=255"`
	Description  string    `json:"description" gorm:"type:text"`
	Date         time.Time `json:"event_date" gorm:"column:event_date;index;not null"`
	Place        string    `json:"place"`
	Capacity     int       `json:"capacity" gorm:"not null" validate:"min=1"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (Event) TableName() string { return "events" }

// EventBooking records that a user joined an event. A user joins an
// event at most once.
type EventBooking struct {
	EventID      uuid.UUID `json:"event_id" gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;primary_key"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (EventBooking) TableName() string { return "event_bookings" }

// Donation types.
const (
	DonationPhysical = "physique"
	DonationMoney    = "argent"
)

// Donation is a contribution from a user to an NGO. Money donations
// carry an amount and billing details and produce a receipt artifact.
type Donation struct {
	ID           uuid.UUID `json:"donation_id" gorm:"column:donation_id;type:uuid;primary_key"`
	NGOID        uuid.UUID `json:"ngo_id" gorm:"type:uuid;index;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Type         string    `json:"type" gorm:"not null" validate:"oneof=physique argent"`
	Description  string    `json:"description" gorm:"type:text"`
	Amount       *float64  `json:"amount" validate:"omitempty,gt=0"`
	BillingName  *string   `json:"billing_name"`
	BillingEmail *string   `json:"billing_email" validate:"omitempty,email"`
	ReceiptFile  *string   `json:"receipt_file" gorm:"uniqueIndex"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (Donation) TableName() string { return "donations" }

// ChatbotUsage records one assistant exchange for quota accounting.
type ChatbotUsage struct {
	ID             uuid.UUID `json:"usage_id" gorm:"column:usage_id;type:uuid;primary_key"`
	CollaboratorID uuid.UUID `json:"collaborator_id" gorm:"type:uuid;index;not null"`
	CompanyID      uuid.UUID `json:"company_id" gorm:"type:uuid;index;not null"`
	CreationDate   time.Time `json:"creation_date" gorm:"index;not null"`
}

func (ChatbotUsage) TableName() string { return "chatbot_usages" }
