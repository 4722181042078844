package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription lifecycle states.
//
//	PENDING -> ACTIVE -> RESILIATED | EXPIRED
//
// RESILIATED requires a fully signed contract; EXPIRED is applied by the
// lazy sweep once a fully signed contract is older than a year.
const (
	SubscriptionPending    = "PENDING"
	SubscriptionActive     = "ACTIVE"
	SubscriptionResiliated = "RESILIATED"
	SubscriptionExpired    = "EXPIRED"
)

// Pack is a subscription tier. Selection picks the cheapest pack whose
// StaffSize ceiling covers the requested employee count.
type Pack struct {
	ID                        uuid.UUID `json:"pack_id" gorm:"column:pack_id;type:uuid;primary_key"`
	Name                      string    `json:"name" gorm:"not null" validate:"required,max=50"`
	CreationDate              time.Time `json:"creation_date" gorm:"not null"`
	ActivityNumber            int       `json:"activity_number" gorm:"not null"`
	AnnualCollaboratorPrice   int64     `json:"annual_collaborator_price" gorm:"not null"`
	BonusConsultationPrice    int64     `json:"bonus_consultation_price" gorm:"not null"`
	DefaultConsultationNumber int       `json:"default_consultation_number" gorm:"not null"`
	StaffSize                 int       `json:"staff_size" gorm:"index;not null"`
	ChatbotMessageQuota       *int      `json:"chatbot_message_quota"`
}

func (Pack) TableName() string { return "packs" }

// CompanySubscription ties a company to a pack. Estimate, contract and
// bill rows hang off the same (company_id, subscription_id) key.
type CompanySubscription struct {
	CompanyID                uuid.UUID `json:"company_id" gorm:"type:uuid;primary_key"`
	ID                       uuid.UUID `json:"subscription_id" gorm:"type:uuid;primary_key;column:subscription_id"`
	PackID                   uuid.UUID `json:"pack_id" gorm:"type:uuid;not null"`
	Status                   string    `json:"status" gorm:"index;not null" validate:"oneof=PENDING ACTIVE RESILIATED EXPIRED"`
	BonusConsultationNumber  int       `json:"bonus_consultation_number" gorm:"not null"`
	CreationDate             time.Time `json:"creation_date" gorm:"not null"`
}

func (CompanySubscription) TableName() string { return "company_subscriptions" }

// Estimate is the pre-contract pricing proposal. Amount already includes
// the 20% tax and is rounded to cents at computation time.
type Estimate struct {
	ID             uuid.UUID  `json:"estimate_id" gorm:"column:estimate_id;type:uuid;uniqueIndex;not null"`
	CompanyID      uuid.UUID  `json:"company_id" gorm:"type:uuid;primary_key"`
	SubscriptionID uuid.UUID  `json:"subscription_id" gorm:"type:uuid;primary_key"`
	File           string     `json:"file" gorm:"uniqueIndex;not null"`
	Employees      int        `json:"employees" gorm:"not null"`
	Amount         float64    `json:"amount" gorm:"not null"`
	SignatureDate  *time.Time `json:"signature_date"`
	CreationDate   time.Time  `json:"creation_date" gorm:"not null"`
}

func (Estimate) TableName() string { return "estimates" }

// Contract is fully signed once both parties have signed. SignatureDate
// is set when the admin countersigns and anchors the one-year expiry.
type Contract struct {
	CompanyID        uuid.UUID  `json:"company_id" gorm:"type:uuid;primary_key"`
	SubscriptionID   uuid.UUID  `json:"subscription_id" gorm:"type:uuid;primary_key"`
	File             string     `json:"file" gorm:"uniqueIndex;not null"`
	CreationDate     time.Time  `json:"creation_date" gorm:"not null"`
	SignatureDate    *time.Time `json:"signature_date"`
	CompanySigned    bool       `json:"company_signed" gorm:"not null;default:false"`
	AdminSigned      bool       `json:"admin_signed" gorm:"not null;default:false"`
	CompanySignature *string    `json:"-"`
	AdminSignature   *string    `json:"-"`
}

func (Contract) TableName() string { return "contracts" }

// FullySigned reports whether both parties have signed.
func (c *Contract) FullySigned() bool {
	return c.CompanySigned && c.AdminSigned
}

// Bill is the invoice for a subscription. Payment confirmation flips
// Payed and activates the subscription.
type Bill struct {
	CompanyID      uuid.UUID  `json:"company_id" gorm:"type:uuid;primary_key"`
	SubscriptionID uuid.UUID  `json:"subscription_id" gorm:"type:uuid;primary_key"`
	File           string     `json:"file" gorm:"uniqueIndex;not null"`
	Amount         float64    `json:"amount" gorm:"not null"`
	Payed          bool       `json:"payed" gorm:"not null;default:false"`
	PayedDate      *time.Time `json:"payed_date"`
}

func (Bill) TableName() string { return "bills" }
