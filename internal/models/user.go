package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored on the identity row. Resolved with a single indexed
// lookup instead of probing the profile tables one by one.
const (
	RoleCompany       = "company"
	RoleContractor    = "contractor"
	RoleCollaborator  = "collaborator"
	RoleAdministrator = "administrator"
)

// User is the shared identity record. Each user owns at most one of the
// role profiles below, keyed by the same UUID.
type User struct {
	ID              uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid;primary_key"`
	FirstName       string    `json:"firstname" gorm:"not null" validate:"required,max=50"`
	LastName        string    `json:"lastname" gorm:"not null" validate:"required,max=50"`
	DateOfBirth     time.Time `json:"dob" gorm:"not null"`
	Phone           string    `json:"phone" gorm:"uniqueIndex;not null"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash    string    `json:"-" gorm:"column:password;not null"`
	Role            string    `json:"role" gorm:"index;not null"`
	Country         string    `json:"country" gorm:"not null"`
	City            string    `json:"city" gorm:"not null"`
	Street          string    `json:"street" gorm:"not null"`
	PostalCode      string    `json:"pc" gorm:"not null"`
	Verified        bool      `json:"verified" gorm:"not null;default:false"`
	InscriptionDate time.Time `json:"inscription_date" gorm:"not null"`
	PaymentID       *string   `json:"-" gorm:"uniqueIndex"`
}

func (User) TableName() string { return "users" }

// Session is one login. Several non-revoked sessions may coexist for the
// same user (multi-device); creation is throttled to one per 10 seconds.
type Session struct {
	ID           uuid.UUID `json:"session_id" gorm:"column:session_id;type:uuid;primary_key"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
	ExpiryDate   time.Time `json:"exp_date" gorm:"not null"`
	Revoked      bool      `json:"revoked" gorm:"not null;default:false"`
}

func (Session) TableName() string { return "sessions" }

// EmailVerification holds the current 6-digit verification code for a
// user. One row per user, replaced on re-issue.
type EmailVerification struct {
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;primary_key"`
	Code         string    `json:"-" gorm:"type:char(6);not null"`
	CreationDate time.Time `json:"creation_date" gorm:"not null"`
}

func (EmailVerification) TableName() string { return "email_verifications" }

// Company profile. Companies subscribe to packs on behalf of their
// collaborators.
type Company struct {
	ID                 uuid.UUID  `json:"company_id" gorm:"column:company_id;type:uuid;primary_key"`
	Name               string     `json:"name" gorm:"not null"`
	Website            *string    `json:"website"`
	RegistrationNumber string     `json:"registration_number" gorm:"uniqueIndex;not null"`
	RegistrationDate   time.Time  `json:"registration_date" gorm:"not null"`
	Industry           string     `json:"industry"`
	Revenue            int64      `json:"revenue"`
	Size               int        `json:"size"`
	AdminID            *uuid.UUID `json:"admin_id" gorm:"type:uuid"`
}

func (Company) TableName() string { return "companies" }

// Intervention modes a contractor supports.
const (
	InterventionIncall  = "incall"
	InterventionOutcall = "outcall"
	InterventionBoth    = "both"
)

// Contractor profile: an independent provider offering consultations.
type Contractor struct {
	ID                 uuid.UUID  `json:"contractor_id" gorm:"column:contractor_id;type:uuid;primary_key"`
	RegistrationNumber string     `json:"registration_number" gorm:"uniqueIndex;not null"`
	RegistrationDate   time.Time  `json:"registration_date" gorm:"not null"`
	ContractFile       *string    `json:"contract_file"`
	SignDate           *time.Time `json:"sign_date"`
	Service            string     `json:"service" gorm:"index;not null"`
	ServicePrice       int64      `json:"service_price" gorm:"not null"`
	Website            *string    `json:"website"`
	Intervention       string     `json:"intervention" gorm:"not null" validate:"oneof=incall outcall both"`
	Type               string     `json:"type" gorm:"not null"`
	AdminID            *uuid.UUID `json:"admin_id" gorm:"type:uuid"`
}

func (Contractor) TableName() string { return "contractors" }

// Collaborator profile: an employee of a subscribing company.
type Collaborator struct {
	ID        uuid.UUID `json:"collaborator_id" gorm:"column:collaborator_id;type:uuid;primary_key"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;index;not null"`
}

func (Collaborator) TableName() string { return "collaborators" }

// Administrator profile.
type Administrator struct {
	ID uuid.UUID `json:"admin_id" gorm:"column:administrator_id;type:uuid;primary_key"`
}

func (Administrator) TableName() string { return "administrators" }

// Profile DTOs returned by joined reads. The identity row and the role
// profile are mapped into one flat struct with named fields rather than
// merged ad hoc.

// CompanyProfile is the join of User and Company.
type CompanyProfile struct {
	User
	Name               string     `json:"name"`
	Website            *string    `json:"website"`
	RegistrationNumber string     `json:"registration_number"`
	RegistrationDate   time.Time  `json:"registration_date"`
	Industry           string     `json:"industry"`
	Revenue            int64      `json:"revenue"`
	Size               int        `json:"size"`
	AdminID            *uuid.UUID `json:"admin_id"`
}

// ContractorProfile is the join of User and Contractor.
type ContractorProfile struct {
	User
	RegistrationNumber string     `json:"registration_number"`
	RegistrationDate   time.Time  `json:"registration_date"`
	ContractFile       *string    `json:"contract_file"`
	SignDate           *time.Time `json:"sign_date"`
	Service            string     `json:"service"`
	ServicePrice       int64      `json:"service_price"`
	Website            *string    `json:"website"`
	Intervention       string     `json:"intervention"`
	Type               string     `json:"type"`
}

// CollaboratorProfile is the join of User and Collaborator.
type CollaboratorProfile struct {
	User
	CompanyID uuid.UUID `json:"company_id"`
}
