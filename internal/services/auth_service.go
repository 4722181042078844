package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/models"
)

// SessionThrottle is the minimum delay between two session creations for
// the same user.
const SessionThrottle = 10 * time.Second

// MinPasswordLength applies to sign-up and password changes.
const MinPasswordLength = 6

// VerificationCodeTTL bounds how long an email verification code stays valid.
const VerificationCodeTTL = 24 * time.Hour

// VerificationReissueDelay bounds how often a fresh code can be requested.
const VerificationReissueDelay = time.Minute

// AuthStore is the persistence surface the auth service needs
type AuthStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailOrPhoneExists(ctx context.Context, email, phone string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
	SetVerified(ctx context.Context, userID uuid.UUID) error

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	LatestSessionForUser(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	RevokeExpired(ctx context.Context, now time.Time) error

	UpsertEmailVerification(ctx context.Context, ev *models.EmailVerification) error
	GetEmailVerification(ctx context.Context, userID uuid.UUID) (*models.EmailVerification, error)
	DeleteEmailVerification(ctx context.Context, userID uuid.UUID) error

	CreateCompany(ctx context.Context, company *models.Company) error
	CreateContractor(ctx context.Context, contractor *models.Contractor) error
	CreateCollaborator(ctx context.Context, collaborator *models.Collaborator) error
	CreateAdministrator(ctx context.Context, admin *models.Administrator) error
	CompanyRegistrationNumberExists(ctx context.Context, number string) (bool, error)
	ContractorRegistrationNumberExists(ctx context.Context, number string) (bool, error)
	GetRandomAdministrator(ctx context.Context) (*models.Administrator, error)
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachment *EmailAttachment) error
}

// AuthService implements login, session management and account creation
type AuthService struct {
	store  AuthStore
	jwt    *JWTService
	mailer Mailer
	logger *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store AuthStore, jwtService *JWTService, mailer Mailer, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:  store,
		jwt:    jwtService,
		mailer: mailer,
		logger: logger,
	}
}

// Login authenticates a user by email and password and opens a session.
// A user may open at most one session per SessionThrottle.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	now := time.Now()
	if err := s.store.RevokeExpired(ctx, now); err != nil {
		return "", nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return "", nil, NewUnauthorizedError("invalid credentials")
	}
	if user.Role == "" {
		return "", nil, NewUnauthorizedError("account has no role")
	}

	latest, err := s.store.LatestSessionForUser(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	if latest != nil && now.Sub(latest.CreationDate) < SessionThrottle {
		return "", nil, NewForbiddenError("a session was opened too recently")
	}

	session := &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		CreationDate: now,
		ExpiryDate:   now.Add(s.jwt.TokenExpiry()),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}

	token, err := s.jwt.GenerateToken(user, session.ID, now)
	if err != nil {
		return "", nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"session_id": session.ID,
		"role":       user.Role,
	}).Info("session opened")

	return token, user, nil
}

// Authenticate resolves a token to its user. Expired sessions are swept
// before the check so a stale session never authenticates.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, *Claims, error) {
	if err := s.store.RevokeExpired(ctx, time.Now()); err != nil {
		return nil, nil, err
	}

	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, NewUnauthorizedError("invalid token")
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.Revoked || session.UserID != claims.UserID {
		return nil, nil, NewUnauthorizedError("session is not active")
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, NewUnauthorizedError("account no longer exists")
	}

	return user, claims, nil
}

// Logout revokes the presenting session. Revoking twice is harmless.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.RevokeSession(ctx, sessionID)
}

// ChangePassword re-hashes the password and revokes every session of the user
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return NewNotFoundError("user", userID.String())
	}
	if !CheckPassword(user.PasswordHash, oldPassword) {
		return NewUnauthorizedError("wrong password")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.store.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("password changed, sessions revoked")
	return nil
}

// RequestEmailVerification issues a fresh 6-digit code and mails it.
// At most one code per minute; the new code replaces the previous one.
func (s *AuthService) RequestEmailVerification(ctx context.Context, user *models.User) error {
	if user.Verified {
		return NewConflictError("verification", "email is already verified")
	}

	now := time.Now()
	existing, err := s.store.GetEmailVerification(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing != nil && now.Sub(existing.CreationDate) < VerificationReissueDelay {
		return NewForbiddenError("a code was issued less than a minute ago")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return err
	}
	ev := &models.EmailVerification{
		UserID:       user.ID,
		Code:         code,
		CreationDate: now,
	}
	if err := s.store.UpsertEmailVerification(ctx, ev); err != nil {
		return err
	}

	body := fmt.Sprintf("<p>Hello %s,</p><p>Your verification code is <b>%s</b>. It stays valid for 24 hours.</p>", user.FirstName, code)
	if err := s.mailer.Send(ctx, user.Email, "Verify your email", body, nil); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to send verification email")
		return err
	}
	return nil
}

// VerifyEmail checks the code, marks the user verified and revokes the
// presenting session so its stale verified claim cannot be replayed.
func (s *AuthService) VerifyEmail(ctx context.Context, user *models.User, sessionID uuid.UUID, code string) error {
	ev, err := s.store.GetEmailVerification(ctx, user.ID)
	if err != nil {
		return err
	}
	if ev == nil {
		return NewNotFoundError("verification", "no pending code")
	}
	if time.Since(ev.CreationDate) > VerificationCodeTTL {
		return NewValidationError("code", "code has expired")
	}
	if ev.Code != code {
		return NewValidationError("code", "wrong code")
	}

	if err := s.store.SetVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := s.store.DeleteEmailVerification(ctx, user.ID); err != nil {
		return err
	}
	return s.store.RevokeSession(ctx, sessionID)
}

// SignupInput carries the identity fields shared by every account type
type SignupInput struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Phone       string
	Email       string
	Password    string
	Country     string
	City        string
	Street      string
	PostalCode  string
}

// CompanySignup is the company registration payload
type CompanySignup struct {
	SignupInput
	CompanyName        string
	Website            *string
	RegistrationNumber string
	RegistrationDate   time.Time
	Industry           string
	Revenue            int64
	Size               int
}

// ContractorSignup is the contractor registration payload
type ContractorSignup struct {
	SignupInput
	RegistrationNumber string
	RegistrationDate   time.Time
	Service            string
	ServicePrice       int64
	Website            *string
	Intervention       string
	Type               string
}

func (s *AuthService) newUser(ctx context.Context, in SignupInput, role string) (*models.User, error) {
	if len(in.Password) < MinPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	taken, err := s.store.EmailOrPhoneExists(ctx, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewConflictError("user", "email or phone already registered")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:              uuid.New(),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		DateOfBirth:     in.DateOfBirth,
		Phone:           in.Phone,
		Email:           in.Email,
		PasswordHash:    hash,
		Role:            role,
		Country:         in.Country,
		City:            in.City,
		Street:          in.Street,
		PostalCode:      in.PostalCode,
		InscriptionDate: time.Now(),
	}, nil
}

// RegisterCompany creates a company account and assigns it an administrator
func (s *AuthService) RegisterCompany(ctx context.Context, in CompanySignup) (*models.User, error) {
	taken, err := s.store.CompanyRegistrationNumberExists(ctx, in.RegistrationNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewConflictError("company", "registration number already registered")
	}

	user, err := s.newUser(ctx, in.SignupInput, models.RoleCompany)
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		ID:                 user.ID,
		Name:               in.CompanyName,
		Website:            in.Website,
		RegistrationNumber: in.RegistrationNumber,
		RegistrationDate:   in.RegistrationDate,
		Industry:           in.Industry,
		Revenue:            in.Revenue,
		Size:               in.Size,
	}
	if admin, err := s.store.GetRandomAdministrator(ctx); err != nil {
		return nil, err
	} else if admin != nil {
		company.AdminID = &admin.ID
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, err
	}

	s.logger.WithField("company_id", user.ID).Info("company registered")
	return user, nil
}

// RegisterContractor creates a contractor account
func (s *AuthService) RegisterContractor(ctx context.Context, in ContractorSignup) (*models.User, error) {
	switch in.Intervention {
	case models.InterventionIncall, models.InterventionOutcall, models.InterventionBoth:
	default:
		return nil, NewValidationError("intervention", "must be incall, outcall or both")
	}

	taken, err := s.store.ContractorRegistrationNumberExists(ctx, in.RegistrationNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewConflictError("contractor", "registration number already registered")
	}

	user, err := s.newUser(ctx, in.SignupInput, models.RoleContractor)
	if err != nil {
		return nil, err
	}

	contractor := &models.Contractor{
		ID:                 user.ID,
		RegistrationNumber: in.RegistrationNumber,
		RegistrationDate:   in.RegistrationDate,
		Service:            in.Service,
		ServicePrice:       in.ServicePrice,
		Website:            in.Website,
		Intervention:       in.Intervention,
		Type:               in.Type,
	}
	if admin, err := s.store.GetRandomAdministrator(ctx); err != nil {
		return nil, err
	} else if admin != nil {
		contractor.AdminID = &admin.ID
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.CreateContractor(ctx, contractor); err != nil {
		return nil, err
	}

	s.logger.WithField("contractor_id", user.ID).Info("contractor registered")
	return user, nil
}

// RegisterCollaborator creates a collaborator account attached to a company
func (s *AuthService) RegisterCollaborator(ctx context.Context, companyID uuid.UUID, in SignupInput) (*models.User, error) {
	user, err := s.newUser(ctx, in, models.RoleCollaborator)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.CreateCollaborator(ctx, &models.Collaborator{ID: user.ID, CompanyID: companyID}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"collaborator_id": user.ID,
		"company_id":      companyID,
	}).Info("collaborator registered")
	return user, nil
}

// RegisterAdministrator creates an administrator account
func (s *AuthService) RegisterAdministrator(ctx context.Context, in SignupInput) (*models.User, error) {
	user, err := s.newUser(ctx, in, models.RoleAdministrator)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.CreateAdministrator(ctx, &models.Administrator{ID: user.ID}); err != nil {
		return nil, err
	}
	return user, nil
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
