package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness-service/internal/models"
)

// SubscriptionRepository handles pack, subscription, estimate, contract and
// bill database operations
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ============================================================================
// Pack Operations
// ============================================================================

// CreatePack inserts a pack row
func (r *SubscriptionRepository) CreatePack(ctx context.Context, pack *models.Pack) error {
	if err := r.db.WithContext(ctx).Create(pack).Error; err != nil {
		return fmt.Errorf("failed to create pack: %w", err)
	}
	return nil
}

// GetPackByID retrieves a pack by id
func (r *SubscriptionRepository) GetPackByID(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	if err := r.db.WithContext(ctx).First(&pack, "pack_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	return &pack, nil
}

// ListPacks returns all packs ordered by staff size
func (r *SubscriptionRepository) ListPacks(ctx context.Context) ([]models.Pack, error) {
	var packs []models.Pack
	if err := r.db.WithContext(ctx).Order("staff_size ASC").Find(&packs).Error; err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}
	return packs, nil
}

// SelectPackForStaff returns the smallest pack whose staff size covers the
// given headcount, or nil when no pack is large enough.
func (r *SubscriptionRepository) SelectPackForStaff(ctx context.Context, employees int) (*models.Pack, error) {
	var pack models.Pack
	if err := r.db.WithContext(ctx).
		Where("staff_size >= ?", employees).
		Order("staff_size ASC").
		First(&pack).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select pack: %w", err)
	}
	return &pack, nil
}

// UpdatePack saves pack changes
func (r *SubscriptionRepository) UpdatePack(ctx context.Context, pack *models.Pack) error {
	if err := r.db.WithContext(ctx).Save(pack).Error; err != nil {
		return fmt.Errorf("failed to update pack: %w", err)
	}
	return nil
}

// ============================================================================
// Subscription Operations
// ============================================================================

// GetActiveSubscription returns the company's ACTIVE subscription, if any
func (r *SubscriptionRepository) GetActiveSubscription(ctx context.Context, companyID uuid.UUID) (*models.CompanySubscription, error) {
	var sub models.CompanySubscription
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, models.SubscriptionActive).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return &sub, nil
}

// GetSubscription retrieves one subscription of a company
func (r *SubscriptionRepository) GetSubscription(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.CompanySubscription, error) {
	var sub models.CompanySubscription
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscriptionsByCompany returns every subscription of a company, newest first
func (r *SubscriptionRepository) ListSubscriptionsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.CompanySubscription, error) {
	var subs []models.CompanySubscription
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("creation_date DESC").
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscriptionStatus transitions one subscription
func (r *SubscriptionRepository) UpdateSubscriptionStatus(ctx context.Context, companyID, subscriptionID uuid.UUID, status string) error {
	if err := r.db.WithContext(ctx).Model(&models.CompanySubscription{}).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// CreateSubscriptionWithEstimate inserts the PENDING subscription, its
// estimate and its unsigned contract in one transaction. A partial
// subscription never becomes visible.
func (r *SubscriptionRepository) CreateSubscriptionWithEstimate(ctx context.Context, sub *models.CompanySubscription, estimate *models.Estimate, contract *models.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		if err := tx.Create(estimate).Error; err != nil {
			return fmt.Errorf("failed to create estimate: %w", err)
		}
		if err := tx.Create(contract).Error; err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Estimate Operations
// ============================================================================

// GetEstimate retrieves the estimate of a subscription
func (r *SubscriptionRepository) GetEstimate(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Estimate, error) {
	var estimate models.Estimate
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		First(&estimate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &estimate, nil
}

// SignEstimate stamps the estimate's signature date
func (r *SubscriptionRepository) SignEstimate(ctx context.Context, companyID, subscriptionID uuid.UUID, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Estimate{}).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		Update("signature_date", at).Error; err != nil {
		return fmt.Errorf("failed to sign estimate: %w", err)
	}
	return nil
}

// ============================================================================
// Contract Operations
// ============================================================================

// GetContract retrieves the contract of a subscription
func (r *SubscriptionRepository) GetContract(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		First(&contract).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &contract, nil
}

// ListContractsByCompany returns the contracts of a company, newest first
func (r *SubscriptionRepository) ListContractsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("creation_date DESC").
		Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// ListAllContracts returns every contract, newest first
func (r *SubscriptionRepository) ListAllContracts(ctx context.Context) ([]models.Contract, error) {
	var contracts []models.Contract
	if err := r.db.WithContext(ctx).
		Order("creation_date DESC").
		Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// CompanySignContract stores the company signature
func (r *SubscriptionRepository) CompanySignContract(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string) error {
	if err := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		Updates(map[string]interface{}{
			"company_signed":    true,
			"company_signature": signature,
		}).Error; err != nil {
		return fmt.Errorf("failed to sign contract: %w", err)
	}
	return nil
}

// AdminSignContractWithBill countersigns the contract, stamps its signature
// date and creates the unpaid bill in one transaction. The subscription
// stays PENDING until the bill is paid.
func (r *SubscriptionRepository) AdminSignContractWithBill(ctx context.Context, companyID, subscriptionID uuid.UUID, signature string, at time.Time, bill *models.Bill) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Contract{}).
			Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
			Updates(map[string]interface{}{
				"admin_signed":    true,
				"admin_signature": signature,
				"signature_date":  at,
			}).Error; err != nil {
			return fmt.Errorf("failed to countersign contract: %w", err)
		}
		if err := tx.Create(bill).Error; err != nil {
			return fmt.Errorf("failed to create bill: %w", err)
		}
		return nil
	})
}

// ExpireStaleSubscriptions moves subscriptions whose fully signed contract
// is older than the cutoff to EXPIRED. Idempotent; covers PENDING
// subscriptions whose bill was never paid as well as ACTIVE ones.
func (r *SubscriptionRepository) ExpireStaleSubscriptions(ctx context.Context, cutoff time.Time) error {
	if err := r.db.WithContext(ctx).Exec(`
		UPDATE company_subscriptions SET status = ?
		WHERE status <> ?
		  AND (company_id, subscription_id) IN (
			SELECT company_id, subscription_id FROM contracts
			WHERE company_signed AND admin_signed AND signature_date <= ?
		  )`,
		models.SubscriptionExpired, models.SubscriptionExpired, cutoff,
	).Error; err != nil {
		return fmt.Errorf("failed to expire stale subscriptions: %w", err)
	}
	return nil
}

// ContractWithCompany is a contract joined with its company name for the
// admin dashboard
type ContractWithCompany struct {
	models.Contract
	CompanyName string `json:"company_name"`
}

// EstimateWithCompany is an estimate joined with its company name
type EstimateWithCompany struct {
	models.Estimate
	CompanyName string `json:"company_name"`
}

// BillWithCompany is a bill joined with its company name
type BillWithCompany struct {
	models.Bill
	CompanyName string `json:"company_name"`
}

// ListAllContractsWithCompany returns every contract with its company name
func (r *SubscriptionRepository) ListAllContractsWithCompany(ctx context.Context) ([]ContractWithCompany, error) {
	var rows []ContractWithCompany
	if err := r.db.WithContext(ctx).Model(&models.Contract{}).
		Select("contracts.*, companies.name AS company_name").
		Joins("JOIN companies ON companies.company_id = contracts.company_id").
		Order("contracts.creation_date DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list contracts with company: %w", err)
	}
	return rows, nil
}

// ListAllEstimatesWithCompany returns every estimate with its company name
func (r *SubscriptionRepository) ListAllEstimatesWithCompany(ctx context.Context) ([]EstimateWithCompany, error) {
	var rows []EstimateWithCompany
	if err := r.db.WithContext(ctx).Model(&models.Estimate{}).
		Select("estimates.*, companies.name AS company_name").
		Joins("JOIN companies ON companies.company_id = estimates.company_id").
		Order("estimates.creation_date DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list estimates with company: %w", err)
	}
	return rows, nil
}

// ListAllBillsWithCompany returns every bill with its company name
func (r *SubscriptionRepository) ListAllBillsWithCompany(ctx context.Context) ([]BillWithCompany, error) {
	var rows []BillWithCompany
	if err := r.db.WithContext(ctx).Model(&models.Bill{}).
		Select("bills.*, companies.name AS company_name").
		Joins("JOIN companies ON companies.company_id = bills.company_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list bills with company: %w", err)
	}
	return rows, nil
}

// ============================================================================
// Bill Operations
// ============================================================================

// GetBill retrieves the bill of a subscription
func (r *SubscriptionRepository) GetBill(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
		First(&bill).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return &bill, nil
}

// ListBillsByCompany returns the bills of a company
func (r *SubscriptionRepository) ListBillsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Bill, error) {
	var bills []models.Bill
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

// LatestPaidBill returns the most recently paid bill of a company, if any
func (r *SubscriptionRepository) LatestPaidBill(ctx context.Context, companyID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND payed = ?", companyID, true).
		Order("payed_date DESC").
		First(&bill).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest paid bill: %w", err)
	}
	return &bill, nil
}

// MarkBillPaidAndActivate flags the bill paid and moves the subscription
// from PENDING to ACTIVE in one transaction
func (r *SubscriptionRepository) MarkBillPaidAndActivate(ctx context.Context, companyID, subscriptionID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Bill{}).
			Where("company_id = ? AND subscription_id = ?", companyID, subscriptionID).
			Updates(map[string]interface{}{
				"payed":      true,
				"payed_date": at,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark bill paid: %w", err)
		}
		if err := tx.Model(&models.CompanySubscription{}).
			Where("company_id = ? AND subscription_id = ? AND status = ?", companyID, subscriptionID, models.SubscriptionPending).
			Update("status", models.SubscriptionActive).Error; err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}
		return nil
	})
}
