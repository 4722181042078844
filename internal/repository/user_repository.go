package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness-service/internal/models"
)

// UserRepository handles user, session and profile database operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ============================================================================
// User Operations
// ============================================================================

// CreateUser inserts a new user row
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// EmailOrPhoneExists reports whether a user already uses the given email or phone
func (r *UserRepository) EmailOrPhoneExists(ctx context.Context, email, phone string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR phone = ?", email, phone).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email or phone: %w", err)
	}
	return count > 0, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("password", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetVerified marks a user's email as verified
func (r *UserRepository) SetVerified(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("verified", true).Error; err != nil {
		return fmt.Errorf("failed to set verified: %w", err)
	}
	return nil
}

// SetPaymentID stores the external payment customer reference on a user
func (r *UserRepository) SetPaymentID(ctx context.Context, userID uuid.UUID, paymentID string) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("payment_id", paymentID).Error; err != nil {
		return fmt.Errorf("failed to set payment id: %w", err)
	}
	return nil
}

// ============================================================================
// Session Operations
// ============================================================================

// CreateSession inserts a new session row
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id
func (r *UserRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "session_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// LatestSessionForUser returns the most recently created session for a user,
// revoked or not. Used for the session creation throttle.
func (r *UserRepository) LatestSessionForUser(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("creation_date DESC").
		First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return &session, nil
}

// RevokeSession marks one session revoked. Revoking an already revoked
// session is a no-op.
func (r *UserRepository) RevokeSession(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("session_id = ?", id).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser marks every session of a user revoked
func (r *UserRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// RevokeExpired marks every session past its expiry revoked. Runs lazily
// before auth decisions so stale sessions never authenticate.
func (r *UserRepository) RevokeExpired(ctx context.Context, now time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("expiry_date <= ? AND revoked = ?", now, false).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke expired sessions: %w", err)
	}
	return nil
}

// ============================================================================
// Email Verification Operations
// ============================================================================

// UpsertEmailVerification replaces the pending verification code for a user
func (r *UserRepository) UpsertEmailVerification(ctx context.Context, ev *models.EmailVerification) error {
	if err := r.db.WithContext(ctx).Save(ev).Error; err != nil {
		return fmt.Errorf("failed to save email verification: %w", err)
	}
	return nil
}

// GetEmailVerification retrieves the pending verification code for a user
func (r *UserRepository) GetEmailVerification(ctx context.Context, userID uuid.UUID) (*models.EmailVerification, error) {
	var ev models.EmailVerification
	if err := r.db.WithContext(ctx).First(&ev, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get email verification: %w", err)
	}
	return &ev, nil
}

// DeleteEmailVerification removes a consumed verification code
func (r *UserRepository) DeleteEmailVerification(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.EmailVerification{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete email verification: %w", err)
	}
	return nil
}

// ============================================================================
// Profile Operations
// ============================================================================

// CreateCompany inserts a company profile row
func (r *UserRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetCompanyByUserID retrieves a company profile by its user id
func (r *UserRepository) GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "company_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// ListCompanies returns all company profiles joined with their user rows
func (r *UserRepository) ListCompanies(ctx context.Context) ([]models.CompanyProfile, error) {
	var profiles []models.CompanyProfile
	if err := r.db.WithContext(ctx).Model(&models.Company{}).
		Select("companies.*, users.*").
		Joins("JOIN users ON users.user_id = companies.company_id").
		Scan(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return profiles, nil
}

// CreateContractor inserts a contractor profile row
func (r *UserRepository) CreateContractor(ctx context.Context, contractor *models.Contractor) error {
	if err := r.db.WithContext(ctx).Create(contractor).Error; err != nil {
		return fmt.Errorf("failed to create contractor: %w", err)
	}
	return nil
}

// GetContractorByUserID retrieves a contractor profile by its user id
func (r *UserRepository) GetContractorByUserID(ctx context.Context, userID uuid.UUID) (*models.Contractor, error) {
	var contractor models.Contractor
	if err := r.db.WithContext(ctx).First(&contractor, "contractor_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}
	return &contractor, nil
}

// ListContractors returns all contractor profiles joined with their user rows
func (r *UserRepository) ListContractors(ctx context.Context) ([]models.ContractorProfile, error) {
	var profiles []models.ContractorProfile
	if err := r.db.WithContext(ctx).Model(&models.Contractor{}).
		Select("contractors.*, users.*").
		Joins("JOIN users ON users.user_id = contractors.contractor_id").
		Scan(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	return profiles, nil
}

// CreateCollaborator inserts a collaborator profile row
func (r *UserRepository) CreateCollaborator(ctx context.Context, collaborator *models.Collaborator) error {
	if err := r.db.WithContext(ctx).Create(collaborator).Error; err != nil {
		return fmt.Errorf("failed to create collaborator: %w", err)
	}
	return nil
}

// GetCollaboratorByUserID retrieves a collaborator profile by its user id
func (r *UserRepository) GetCollaboratorByUserID(ctx context.Context, userID uuid.UUID) (*models.Collaborator, error) {
	var collaborator models.Collaborator
	if err := r.db.WithContext(ctx).First(&collaborator, "collaborator_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collaborator: %w", err)
	}
	return &collaborator, nil
}

// ListCollaboratorsByCompany returns the collaborator profiles of a company
func (r *UserRepository) ListCollaboratorsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.CollaboratorProfile, error) {
	var profiles []models.CollaboratorProfile
	if err := r.db.WithContext(ctx).Model(&models.Collaborator{}).
		Select("collaborators.*, users.*").
		Joins("JOIN users ON users.user_id = collaborators.collaborator_id").
		Where("collaborators.company_id = ?", companyID).
		Scan(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	return profiles, nil
}

// CountCollaboratorsByCompany counts the collaborators of a company
func (r *UserRepository) CountCollaboratorsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Collaborator{}).
		Where("company_id = ?", companyID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count collaborators: %w", err)
	}
	return count, nil
}

// DeleteCollaborator removes a collaborator profile and its user row
func (r *UserRepository) DeleteCollaborator(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Collaborator{}, "collaborator_id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to delete collaborator: %w", err)
		}
		if err := tx.Delete(&models.User{}, "user_id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to delete collaborator user: %w", err)
		}
		return nil
	})
}

// CreateAdministrator inserts an administrator profile row
func (r *UserRepository) CreateAdministrator(ctx context.Context, admin *models.Administrator) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}
	return nil
}

// CompanyRegistrationNumberExists reports whether a company already uses
// the given registration number
func (r *UserRepository) CompanyRegistrationNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("registration_number = ?", number).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check company registration number: %w", err)
	}
	return count > 0, nil
}

// ContractorRegistrationNumberExists reports whether a contractor already
// uses the given registration number
func (r *UserRepository) ContractorRegistrationNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Contractor{}).
		Where("registration_number = ?", number).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check contractor registration number: %w", err)
	}
	return count > 0, nil
}

// GetRandomAdministrator picks an administrator to assign to a new account
func (r *UserRepository) GetRandomAdministrator(ctx context.Context) (*models.Administrator, error) {
	var admin models.Administrator
	if err := r.db.WithContext(ctx).Order("RANDOM()").First(&admin).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick administrator: %w", err)
	}
	return &admin, nil
}

// GetAdministratorByUserID retrieves an administrator profile by its user id
func (r *UserRepository) GetAdministratorByUserID(ctx context.Context, userID uuid.UUID) (*models.Administrator, error) {
	var admin models.Administrator
	if err := r.db.WithContext(ctx).First(&admin, "administrator_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get administrator: %w", err)
	}
	return &admin, nil
}
