package user

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

// Repository defines the data access methods for principals. ChangeRole
// and Delete enforce the last-administrator invariant inside a single
// store transaction; a plain read-then-write would let two concurrent
// demotions both observe a safe count.
type Repository interface {
	GetByID(id int64) (*User, error)
	List(limit, offset int) ([]*User, error)
	Create(u *User) error
	UpdateProfile(id int64, firstName, lastName string, department *string) error
	UpdateStatus(id int64, status string) error
	EmailExists(email string) (bool, error)
	EmployeeIDExists(employeeID string) (bool, error)
	ChangeRole(userID, newRoleID, adminRoleID int64) error
	Delete(userID, adminRoleID int64) error
	RoleIDByName(name string) (int64, error)
}

// Service handles principal administration.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(limit, offset int) ([]*User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

// Create adds a principal with an explicit role, used by administrators.
func (s *Service) Create(dto CreateUserDTO) (*User, error) {
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

	taken, err = s.repo.EmployeeIDExists(dto.EmployeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check employee id", err)
	}
	if taken {
		return nil, internal.NewConflictError("Employee id is already registered", internal.ErrCodeEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		EmployeeID:   dto.EmployeeID,
		Email:        dto.Email,
		PasswordHash: string(hash),
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		RoleID:       dto.RoleID,
		Department:   dto.Department,
		Status:       StatusActive,
		AccountType:  dto.AccountType,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "employee_id", u.EmployeeID)
	return s.repo.GetByID(u.ID)
}

func (s *Service) UpdateProfile(id int64, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrUserNotFound
	}

	if err := s.repo.UpdateProfile(id, dto.FirstName, dto.LastName, dto.Department); err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update profile", err)
	}

	return s.repo.GetByID(id)
}

func (s *Service) UpdateStatus(id int64, dto UpdateStatusDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrUserNotFound
	}

	if err := s.repo.UpdateStatus(id, dto.Status); err != nil {
		s.logger.Error("failed to update status", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update status", err)
	}

	return s.repo.GetByID(id)
}

// ChangeRole reassigns a principal's role. Demoting the last holder of the
// full-access role is rejected; the count check and the write run inside
// the repository's transaction.
func (s *Service) ChangeRole(userID int64, dto ChangeRoleDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	adminRoleID, err := s.repo.RoleIDByName(auth.RoleAdmin)
	if err != nil {
		return nil, internal.NewInternalError("full-access role missing", err)
	}

	if err := s.repo.ChangeRole(userID, dto.RoleID, adminRoleID); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to change role", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to change role", err)
	}

	s.logger.Info("role changed", "user_id", userID, "role_id", dto.RoleID)
	return s.repo.GetByID(userID)
}

// Delete removes a principal. A principal may never delete their own
// account, and removing the last full-access holder is rejected.
func (s *Service) Delete(actor *auth.Principal, userID int64) error {
	if actor != nil && actor.ID == userID {
		return internal.ErrSelfDelete
	}

	adminRoleID, err := s.repo.RoleIDByName(auth.RoleAdmin)
	if err != nil {
		return internal.NewInternalError("full-access role missing", err)
	}

	if err := s.repo.Delete(userID, adminRoleID); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		s.logger.Error("failed to delete user", "error", err, "user_id", userID)
		return internal.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}

// GetDepartment reports a principal's current department for ownership
// scoping. Implements activity.Directory.
func (s *Service) GetDepartment(userID int64) (*string, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u.Department, nil
}
