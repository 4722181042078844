package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/models"
)

// BillCoverage is how long a paid bill keeps granting free consultations.
const BillCoverage = 365 * 24 * time.Hour

// QuotaStore is the persistence surface the quota service needs
type QuotaStore interface {
	GetCollaboratorByUserID(ctx context.Context, userID uuid.UUID) (*models.Collaborator, error)
	LatestPaidBill(ctx context.Context, companyID uuid.UUID) (*models.Bill, error)
	GetSubscription(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.CompanySubscription, error)
	GetPackByID(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	CountByCollaboratorSince(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error)
	CountChatbotUsageBetween(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error)
	CreateChatbotUsage(ctx context.Context, usage *models.ChatbotUsage) error
}

// Assistant produces chatbot replies
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

// QuotaService tracks free consultation and chatbot allowances
type QuotaService struct {
	store     QuotaStore
	assistant Assistant
	logger    *logrus.Logger
}

// NewQuotaService creates a new quota service
func NewQuotaService(store QuotaStore, assistant Assistant, logger *logrus.Logger) *QuotaService {
	return &QuotaService{store: store, assistant: assistant, logger: logger}
}

// addMonthsClamped shifts the anchor by n months, clamping the day to the
// target month's length so a Jan 31 anchor lands on Feb 28/29, not Mar 3.
func addMonthsClamped(anchor time.Time, n int) time.Time {
	year, month, _ := anchor.Date()
	target := time.Date(year, month+time.Month(n), 1,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	day := anchor.Day()
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthlyWindow returns the rolling monthly window [start, end) containing
// now, anchored to the payment date's day-of-month.
func MonthlyWindow(anchor, now time.Time) (time.Time, time.Time) {
	months := (now.Year()-anchor.Year())*12 + int(now.Month()) - int(anchor.Month())
	start := addMonthsClamped(anchor, months)
	if start.After(now) {
		months--
		start = addMonthsClamped(anchor, months)
	}
	return start, addMonthsClamped(anchor, months+1)
}

// FreeConsultationsLeft computes how many quota-covered consultations a
// collaborator can still book in the current window. Zero when the company
// has no paid bill, no ACTIVE subscription, no consultation allowance, or
// the paid bill is older than a year.
func (s *QuotaService) FreeConsultationsLeft(ctx context.Context, collaboratorID uuid.UUID) (int, error) {
	collaborator, err := s.store.GetCollaboratorByUserID(ctx, collaboratorID)
	if err != nil {
		return 0, err
	}
	if collaborator == nil {
		return 0, NewNotFoundError("collaborator", collaboratorID.String())
	}

	bill, err := s.store.LatestPaidBill(ctx, collaborator.CompanyID)
	if err != nil {
		return 0, err
	}
	if bill == nil || bill.PayedDate == nil {
		return 0, nil
	}

	sub, err := s.store.GetSubscription(ctx, collaborator.CompanyID, bill.SubscriptionID)
	if err != nil {
		return 0, err
	}
	if sub == nil || sub.Status != models.SubscriptionActive {
		return 0, nil
	}

	pack, err := s.store.GetPackByID(ctx, sub.PackID)
	if err != nil {
		return 0, err
	}
	if pack == nil || pack.DefaultConsultationNumber <= 0 {
		return 0, nil
	}

	now := time.Now()
	payed := *bill.PayedDate
	if now.Sub(payed) > BillCoverage {
		return 0, nil
	}

	start, end := MonthlyWindow(payed, now)
	if start.Before(payed) {
		start = payed
	}
	used, err := s.store.CountByCollaboratorSince(ctx, collaboratorID, start, end)
	if err != nil {
		return 0, err
	}

	left := pack.DefaultConsultationNumber - int(used)
	if left < 0 {
		left = 0
	}
	return left, nil
}

// activePack resolves the pack behind a collaborator's company subscription
func (s *QuotaService) activePack(ctx context.Context, collaborator *models.Collaborator) (*models.Pack, error) {
	bill, err := s.store.LatestPaidBill(ctx, collaborator.CompanyID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, nil
	}
	sub, err := s.store.GetSubscription(ctx, collaborator.CompanyID, bill.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.Status != models.SubscriptionActive {
		return nil, nil
	}
	return s.store.GetPackByID(ctx, sub.PackID)
}

// Ask checks the calendar-month chatbot quota, records the exchange and
// returns the assistant's reply.
func (s *QuotaService) Ask(ctx context.Context, collaboratorID uuid.UUID, message string) (string, error) {
	if message == "" {
		return "", NewValidationError("message", "is required")
	}

	collaborator, err := s.store.GetCollaboratorByUserID(ctx, collaboratorID)
	if err != nil {
		return "", err
	}
	if collaborator == nil {
		return "", NewNotFoundError("collaborator", collaboratorID.String())
	}

	pack, err := s.activePack(ctx, collaborator)
	if err != nil {
		return "", err
	}
	if pack == nil {
		return "", NewForbiddenError("no active subscription covers the chatbot")
	}

	if pack.ChatbotMessageQuota != nil {
		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		monthEnd := monthStart.AddDate(0, 1, 0)
		used, err := s.store.CountChatbotUsageBetween(ctx, collaboratorID, monthStart, monthEnd)
		if err != nil {
			return "", err
		}
		if used >= int64(*pack.ChatbotMessageQuota) {
			return "", NewForbiddenError("monthly chatbot quota reached")
		}
	}

	reply, err := s.assistant.Reply(ctx, message)
	if err != nil {
		return "", err
	}

	if err := s.store.CreateChatbotUsage(ctx, &models.ChatbotUsage{
		ID:             uuid.New(),
		CollaboratorID: collaboratorID,
		CompanyID:      collaborator.CompanyID,
		CreationDate:   time.Now(),
	}); err != nil {
		return "", err
	}

	s.logger.WithField("collaborator_id", collaboratorID).Debug("chatbot exchange recorded")
	return reply, nil
}
