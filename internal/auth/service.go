package auth

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice-crm/backoffice-crm/internal"
)

// UserRepository is the slice of the principal store the token authority
// needs. Implemented by the gorm repository in the postgres sub-package.
type UserRepository interface {
	GetByEmail(email string) (*Account, error)
	GetByID(userID int64) (*Account, error)
	EmailExists(email string) (bool, error)
	CreateAccount(account *Account) error
	RoleIDByName(name string) (int64, error)
	RolePermissions(roleName string) ([]string, error)
}

// Service converts credentials into tokens and tokens back into principals.
type Service struct {
	repo       UserRepository
	tokens     TokenGenerator
	bcryptCost int
	logger     *slog.Logger
}

// NewService creates a new auth service
func NewService(repo UserRepository, tokens TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new account with the default least-privileged role.
func (s *Service) Register(dto RegisterDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailExists(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if taken {
		return nil, internal.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	roleID, err := s.repo.RoleIDByName(RoleUser)
	if err != nil {
		return nil, internal.NewInternalError("default role missing", err)
	}

	account := &Account{
		EmployeeID:   dto.EmployeeID,
		Email:        dto.Email,
		PasswordHash: string(hash),
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		RoleID:       roleID,
		RoleName:     RoleUser,
		Status:       StatusActive,
	}

	if err := s.repo.CreateAccount(account); err != nil {
		s.logger.Error("failed to create account", "error", err, "email", dto.Email)
		return nil, internal.NewInternalError("failed to create account", err)
	}

	s.logger.Info("account registered", "user_id", account.ID, "employee_id", account.EmployeeID)

	return account.ToProfile(), nil
}

// Login validates credentials and issues a token pair. Unknown email, bad
// password and inactive account all collapse to the same error so the
// response cannot be used for account enumeration.
func (s *Service) Login(dto LoginDTO) (TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return TokenPair{}, err
	}

	account, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return TokenPair{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		return TokenPair{}, internal.ErrInvalidCredentials
	}

	if account.Status != StatusActive {
		return TokenPair{}, internal.ErrInvalidCredentials
	}

	pair, err := s.tokens.GeneratePair(account)
	if err != nil {
		s.logger.Error("token generation failed", "error", err, "user_id", account.ID)
		return TokenPair{}, internal.NewInternalError("failed to issue tokens", err)
	}

	s.logger.Info("login succeeded", "user_id", account.ID, "role", account.RoleName)

	return pair, nil
}

// Refresh verifies a refresh token and reissues a pair from the current
// account state, so role changes take effect here rather than mid-session.
func (s *Service) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, internal.ErrInvalidToken
	}

	account, err := s.repo.GetByID(claims.UserID)
	if err != nil {
		return TokenPair{}, internal.ErrInvalidToken
	}

	if account.Status != StatusActive {
		return TokenPair{}, internal.ErrInvalidToken
	}

	pair, err := s.tokens.GeneratePair(account)
	if err != nil {
		s.logger.Error("token generation failed on refresh", "error", err, "user_id", account.ID)
		return TokenPair{}, internal.NewInternalError("failed to issue tokens", err)
	}

	return pair, nil
}

// Authenticate decodes an access token into the request principal. Pure
// signature and expiry verification, no store round trip.
func (s *Service) Authenticate(accessToken string) (*Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	return &Principal{
		ID:          claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		AccountType: claims.AccountType,
	}, nil
}

// GetProfile fetches the full principal with role and permissions, with
// the credential field stripped.
func (s *Service) GetProfile(principalID int64) (*Profile, error) {
	account, err := s.repo.GetByID(principalID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	permissions, err := s.repo.RolePermissions(account.RoleName)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}

	profile := account.ToProfile()
	profile.Permissions = permissions
	return profile, nil
}

// RolePermissions exposes the permission lookup to the guard middleware.
func (s *Service) RolePermissions(roleName string) ([]string, error) {
	return s.repo.RolePermissions(roleName)
}
