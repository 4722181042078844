package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/clients"
	"wellness-service/internal/models"
)

// VATRate is the tax multiplier applied to estimates and bills.
const VATRate = 1.2

// DefaultBonusConsultations seeds every new subscription.
const DefaultBonusConsultations = 10

// ContractLifetime is how long a fully signed contract stays valid.
const ContractLifetime = 365 * 24 * time.Hour

// SubscriptionStore is the persistence surface the subscription service needs
type SubscriptionStore interface {
	GetPackByID(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	SelectPackForStaff(ctx context.Context, employees int) (*models.Pack, error)

	GetActiveSubscription(ctx context.Context, companyID uuid.UUID) (*models.CompanySubscription, error)
	GetSubscription(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.CompanySubscription, error)
	ListSubscriptionsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.CompanySubscription, error)
	UpdateSubscriptionStatus(ctx context.Context, companyID, subscriptionID uuid.UUID, status string) error
	CreateSubscriptionWithEstimate(ctx context.Context, sub *models.CompanySubscription, estimate *models.Estimate, contract *models.Contract) error

	GetEstimate(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Estimate, error)
	SignEstimate(ctx context.Context, companyID, subscriptionID uuid.UUID, at time.Time) error

	GetContract(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Contract, error)
	ListContractsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Contract, error)
	ListAllContracts(ctx context.Context) ([]models.Contract, error)
	CompanySignContract(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string) error
	AdminSignContractWithBill(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string, at time.Time, bill *models.Bill) error
	ExpireStaleSubscriptions(ctx context.Context, cutoff time.Time) error

	GetBill(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Bill, error)
	ListBillsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Bill, error)
	MarkBillPaidAndActivate(ctx context.Context, companyID, subscriptionID uuid.UUID, at time.Time) error
}

// CompanyDirectory resolves company profiles and their identity rows
type CompanyDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error)
}

// CheckoutProvider creates hosted payment sessions
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req clients.CheckoutRequest) (*clients.CheckoutSession, error)
}

// SubscriptionService drives the estimate, contract and bill lifecycle
type SubscriptionService struct {
	store     SubscriptionStore
	directory CompanyDirectory
	documents *DocumentService
	mailer    Mailer
	checkout  CheckoutProvider
	baseURL   string
	logger    *logrus.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(store SubscriptionStore, directory CompanyDirectory, documents *DocumentService, mailer Mailer, checkout CheckoutProvider, baseURL string, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:     store,
		directory: directory,
		documents: documents,
		mailer:    mailer,
		checkout:  checkout,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// round2 rounds to two decimals, away from zero on .5
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EstimateAmount computes the annual price for a pack and headcount,
// VAT included, rounded to two decimals.
func EstimateAmount(annualCollaboratorPrice int64, employees int) float64 {
	return round2(float64(annualCollaboratorPrice) * float64(employees) * VATRate)
}

// SplitVAT derives the pre-tax and tax parts of a VAT-inclusive total
func SplitVAT(totalTTC float64) (ht, tva float64) {
	ht = round2(totalTTC / VATRate)
	tva = round2(totalTTC - ht)
	return ht, tva
}

// CreateEstimate opens a PENDING subscription for a company: selects the
// smallest pack covering the headcount, prices it, and generates the
// estimate and unsigned contract artifacts.
func (s *SubscriptionService) CreateEstimate(ctx context.Context, companyID uuid.UUID, employees int) (*models.Estimate, *models.CompanySubscription, error) {
	if employees <= 0 {
		return nil, nil, NewValidationError("employees", "must be positive")
	}

	company, err := s.directory.GetCompanyByUserID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, NewNotFoundError("company", companyID.String())
	}

	active, err := s.store.GetActiveSubscription(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		return nil, nil, NewConflictError("subscription", "an active subscription already exists")
	}

	pack, err := s.store.SelectPackForStaff(ctx, employees)
	if err != nil {
		return nil, nil, err
	}
	if pack == nil {
		return nil, nil, NewValidationError("employees", "no pack covers this headcount")
	}

	now := time.Now()
	sub := &models.CompanySubscription{
		CompanyID:               companyID,
		ID:                      uuid.New(),
		PackID:                  pack.ID,
		Status:                  models.SubscriptionPending,
		BonusConsultationNumber: DefaultBonusConsultations,
		CreationDate:            now,
	}
	estimate := &models.Estimate{
		ID:             uuid.New(),
		CompanyID:      companyID,
		SubscriptionID: sub.ID,
		Employees:      employees,
		Amount:         EstimateAmount(pack.AnnualCollaboratorPrice, employees),
		CreationDate:   now,
	}
	estimate.File = fmt.Sprintf("estimates/%s.html", estimate.ID)
	contract := &models.Contract{
		CompanyID:      companyID,
		SubscriptionID: sub.ID,
		File:           fmt.Sprintf("contracts/%s.html", sub.ID),
		CreationDate:   now,
	}

	if err := s.store.CreateSubscriptionWithEstimate(ctx, sub, estimate, contract); err != nil {
		return nil, nil, err
	}

	if err := s.documents.GenerateEstimate(ctx, estimate.File, EstimateDocument{
		EstimateID:  estimate.ID,
		CompanyName: company.Name,
		PackName:    pack.Name,
		Employees:   employees,
		Amount:      estimate.Amount,
		Date:        now,
	}); err != nil {
		return nil, nil, err
	}
	if err := s.documents.GenerateContract(ctx, contract.File, ContractDocument{
		CompanyName: company.Name,
		PackName:    pack.Name,
		Date:        now,
	}); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"company_id":      companyID,
		"subscription_id": sub.ID,
		"pack_id":         pack.ID,
		"amount":          estimate.Amount,
	}).Info("estimate created")

	return estimate, sub, nil
}

// contractContext loads the rows shared by the signing paths
func (s *SubscriptionService) contractContext(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Contract, *models.CompanySubscription, *models.Company, *models.Pack, error) {
	contract, err := s.store.GetContract(ctx, companyID, subscriptionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if contract == nil {
		return nil, nil, nil, nil, NewNotFoundError("contract", subscriptionID.String())
	}
	sub, err := s.store.GetSubscription(ctx, companyID, subscriptionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if sub == nil {
		return nil, nil, nil, nil, NewNotFoundError("subscription", subscriptionID.String())
	}
	company, err := s.directory.GetCompanyByUserID(ctx, companyID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if company == nil {
		return nil, nil, nil, nil, NewNotFoundError("company", companyID.String())
	}
	pack, err := s.store.GetPackByID(ctx, sub.PackID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if pack == nil {
		return nil, nil, nil, nil, NewNotFoundError("pack", sub.PackID.String())
	}
	return contract, sub, company, pack, nil
}

// CompanySignContract records the company's signature, stamps the estimate
// and regenerates the contract artifact.
func (s *SubscriptionService) CompanySignContract(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string) error {
	if signature == "" {
		return NewValidationError("signature", "is required")
	}
	contract, _, company, pack, err := s.contractContext(ctx, companyID, subscriptionID)
	if err != nil {
		return err
	}
	if contract.CompanySigned {
		return NewConflictError("contract", "already signed by the company")
	}

	now := time.Now()
	if err := s.store.CompanySignContract(ctx, companyID, subscriptionID, signature); err != nil {
		return err
	}
	if err := s.store.SignEstimate(ctx, companyID, subscriptionID, now); err != nil {
		return err
	}

	return s.documents.GenerateContract(ctx, contract.File, ContractDocument{
		CompanyName:      company.Name,
		PackName:         pack.Name,
		Date:             contract.CreationDate,
		CompanySignature: &signature,
		AdminSignature:   contract.AdminSignature,
	})
}

// AdminSignContract countersigns a company-signed contract, stamps the
// signature date and issues the unpaid bill with its invoice artifact.
func (s *SubscriptionService) AdminSignContract(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string) (*models.Bill, error) {
	if signature == "" {
		return nil, NewValidationError("signature", "is required")
	}
	contract, _, company, pack, err := s.contractContext(ctx, companyID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !contract.CompanySigned {
		return nil, NewValidationError("contract", "the company has not signed yet")
	}
	if contract.AdminSigned {
		return nil, NewConflictError("contract", "already countersigned")
	}

	estimate, err := s.store.GetEstimate(ctx, companyID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, NewNotFoundError("estimate", subscriptionID.String())
	}

	now := time.Now()
	bill := &models.Bill{
		CompanyID:      companyID,
		SubscriptionID: subscriptionID,
		File:           fmt.Sprintf("bills/%s.html", uuid.New()),
		Amount:         estimate.Amount,
	}
	if err := s.store.AdminSignContractWithBill(ctx, companyID, subscriptionID, signature, now, bill); err != nil {
		return nil, err
	}

	if err := s.documents.GenerateContract(ctx, contract.File, ContractDocument{
		CompanyName:      company.Name,
		PackName:         pack.Name,
		Date:             contract.CreationDate,
		CompanySignature: contract.CompanySignature,
		AdminSignature:   &signature,
		SignatureDate:    &now,
	}); err != nil {
		return nil, err
	}

	ht, tva := SplitVAT(bill.Amount)
	if err := s.documents.GenerateInvoice(ctx, bill.File, InvoiceDocument{
		Reference:   subscriptionID.String(),
		BilledTo:    company.Name,
		Description: fmt.Sprintf("Annual subscription, pack %s", pack.Name),
		TotalTTC:    bill.Amount,
		TotalHT:     ht,
		TVA:         tva,
		Date:        now,
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"company_id":      companyID,
		"subscription_id": subscriptionID,
		"bill_amount":     bill.Amount,
	}).Info("contract countersigned, bill issued")

	return bill, nil
}

// CreateBillCheckout opens a hosted payment session for an unpaid
// subscription bill
func (s *SubscriptionService) CreateBillCheckout(ctx context.Context, companyID, subscriptionID uuid.UUID) (*clients.CheckoutSession, error) {
	bill, err := s.store.GetBill(ctx, companyID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, NewNotFoundError("bill", subscriptionID.String())
	}
	if bill.Payed {
		return nil, NewConflictError("bill", "already paid")
	}

	user, err := s.directory.GetUserByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFoundError("user", companyID.String())
	}

	session, err := s.checkout.CreateSession(ctx, clients.CheckoutRequest{
		AmountCents:   int64(math.Round(bill.Amount * 100)),
		Currency:      "eur",
		CustomerEmail: user.Email,
		SuccessURL:    s.baseURL + "/company/subscription/success",
		CancelURL:     s.baseURL + "/company/subscription/cancel",
		Metadata: map[string]string{
			"origin":          "company-subscription",
			"company_id":      companyID.String(),
			"subscription_id": subscriptionID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session, nil
}

// ConfirmBillPayment marks the bill paid, activates the subscription and
// emails the invoice. Called from the payment webhook.
func (s *SubscriptionService) ConfirmBillPayment(ctx context.Context, companyID, subscriptionID uuid.UUID) error {
	bill, err := s.store.GetBill(ctx, companyID, subscriptionID)
	if err != nil {
		return err
	}
	if bill == nil {
		return NewNotFoundError("bill", subscriptionID.String())
	}
	if bill.Payed {
		return nil
	}

	if err := s.store.MarkBillPaidAndActivate(ctx, companyID, subscriptionID, time.Now()); err != nil {
		return err
	}

	user, err := s.directory.GetUserByID(ctx, companyID)
	if err != nil {
		return err
	}
	if user != nil {
		var attachment *EmailAttachment
		if data, docErr := s.documents.Fetch(ctx, bill.File); docErr == nil {
			attachment = &EmailAttachment{Filename: "invoice.html", ContentType: "text/html", Data: data}
		}
		body := fmt.Sprintf("<p>Hello %s,</p><p>Your payment of %.2f EUR was received. Your subscription is now active.</p>", user.FirstName, bill.Amount)
		if mailErr := s.mailer.Send(ctx, user.Email, "Payment received", body, attachment); mailErr != nil {
			s.logger.WithError(mailErr).WithField("company_id", companyID).Error("failed to send invoice email")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"company_id":      companyID,
		"subscription_id": subscriptionID,
	}).Info("bill paid, subscription active")
	return nil
}

// SweepExpirations expires subscriptions whose fully signed contract is
// older than a year. Safe to run repeatedly.
func (s *SubscriptionService) SweepExpirations(ctx context.Context) error {
	return s.store.ExpireStaleSubscriptions(ctx, time.Now().Add(-ContractLifetime))
}

// ListContracts returns a company's contracts after sweeping expirations
func (s *SubscriptionService) ListContracts(ctx context.Context, companyID uuid.UUID) ([]models.Contract, error) {
	if err := s.SweepExpirations(ctx); err != nil {
		return nil, err
	}
	return s.store.ListContractsByCompany(ctx, companyID)
}

// ListAllContracts returns every contract after sweeping expirations
func (s *SubscriptionService) ListAllContracts(ctx context.Context) ([]models.Contract, error) {
	if err := s.SweepExpirations(ctx); err != nil {
		return nil, err
	}
	return s.store.ListAllContracts(ctx)
}

// Resiliate terminates a fully signed subscription
func (s *SubscriptionService) Resiliate(ctx context.Context, companyID, subscriptionID uuid.UUID) error {
	contract, err := s.store.GetContract(ctx, companyID, subscriptionID)
	if err != nil {
		return err
	}
	if contract == nil {
		return NewNotFoundError("contract", subscriptionID.String())
	}
	if !contract.FullySigned() {
		return NewValidationError("contract", "cannot resiliate before both parties sign")
	}
	if err := s.store.UpdateSubscriptionStatus(ctx, companyID, subscriptionID, models.SubscriptionResiliated); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"company_id":      companyID,
		"subscription_id": subscriptionID,
	}).Info("subscription resiliated")
	return nil
}
