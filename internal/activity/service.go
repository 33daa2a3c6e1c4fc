package activity

import (
	"log/slog"
	"time"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

// Tier is the visibility classification applied to a requester per
// resource lookup.
type Tier int

const (
	// TierSelf limits access to rows owned by the requester.
	TierSelf Tier = iota
	// TierDepartmental limits access to rows whose stored department
	// equals the requester's current department.
	TierDepartmental
	// TierUnrestricted bypasses ownership filtering entirely.
	TierUnrestricted
)

// Repository interface defines the data access methods for activities
type Repository interface {
	Create(activity *Activity) error
	GetByID(id int64) (*Activity, error)
	GetAll(limit, offset int) ([]*Activity, error)
	GetByDepartment(department string, limit, offset int) ([]*Activity, error)
	GetByOwner(ownerID int64, limit, offset int) ([]*Activity, error)
	Update(activity *Activity) error
	Delete(id int64) error
}

// Directory resolves a principal's current department. Implemented by the
// user service.
type Directory interface {
	GetDepartment(userID int64) (*string, error)
}

// Service applies ownership scoping on top of the coarse permission check
// that already ran in the route guards.
type Service struct {
	repo      Repository
	directory Directory
	logger    *slog.Logger
}

func NewService(repo Repository, directory Directory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
	}
}

// TierFor classifies the requester by role name.
func TierFor(p *auth.Principal) Tier {
	switch p.Role {
	case auth.RoleAdmin:
		return TierUnrestricted
	case auth.RoleManager:
		return TierDepartmental
	default:
		return TierSelf
	}
}

// Create stamps the requester as owner and snapshots their current
// department.
func (s *Service) Create(p *auth.Principal, dto CreateActivityDTO) (*Activity, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	department, err := s.directory.GetDepartment(p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve department", err)
	}

	activity := &Activity{
		OwnerID:     p.ID,
		Department:  department,
		Title:       dto.Title,
		Description: dto.Description,
		ContactName: dto.ContactName,
		DueDate:     dto.DueDate,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Create(activity); err != nil {
		s.logger.Error("failed to create activity", "error", err, "owner_id", p.ID)
		return nil, internal.NewInternalError("failed to create activity", err)
	}

	s.logger.Info("activity created", "activity_id", activity.ID, "owner_id", p.ID)
	return activity, nil
}

// List returns the collection visible to the requester's tier. A manager
// without a department matches nothing; absence is never a wildcard.
func (s *Service) List(p *auth.Principal, limit, offset int) ([]*Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	switch TierFor(p) {
	case TierUnrestricted:
		return s.listOrError(s.repo.GetAll(limit, offset))
	case TierDepartmental:
		department, err := s.directory.GetDepartment(p.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to resolve department", err)
		}
		if department == nil {
			return []*Activity{}, nil
		}
		return s.listOrError(s.repo.GetByDepartment(*department, limit, offset))
	default:
		return s.listOrError(s.repo.GetByOwner(p.ID, limit, offset))
	}
}

func (s *Service) listOrError(activities []*Activity, err error) ([]*Activity, error) {
	if err != nil {
		s.logger.Error("failed to list activities", "error", err)
		return nil, internal.NewInternalError("failed to list activities", err)
	}
	return activities, nil
}

// CanAccess applies the tier rule as a membership test against a single
// resource.
func (s *Service) CanAccess(activity *Activity, p *auth.Principal) (bool, error) {
	switch TierFor(p) {
	case TierUnrestricted:
		return true, nil
	case TierDepartmental:
		department, err := s.directory.GetDepartment(p.ID)
		if err != nil {
			return false, internal.NewInternalError("failed to resolve department", err)
		}
		if department == nil || activity.Department == nil {
			return false, nil
		}
		return *activity.Department == *department, nil
	default:
		return activity.OwnerID == p.ID, nil
	}
}

// Get fetches one activity. A missing id is 404 before any scope check;
// a present but out-of-scope row is 403.
func (s *Service) Get(p *auth.Principal, id int64) (*Activity, error) {
	activity, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrActivityNotFound
	}

	allowed, err := s.CanAccess(activity, p)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("activity access denied", "activity_id", id, "user_id", p.ID, "role", p.Role)
		return nil, internal.ErrAccessDenied
	}

	return activity, nil
}

func (s *Service) Update(p *auth.Principal, id int64, dto UpdateActivityDTO) (*Activity, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	activity, err := s.Get(p, id)
	if err != nil {
		return nil, err
	}

	activity.Title = dto.Title
	activity.Description = dto.Description
	activity.ContactName = dto.ContactName
	activity.DueDate = dto.DueDate
	activity.UpdatedAt = time.Now()

	if err := s.repo.Update(activity); err != nil {
		s.logger.Error("failed to update activity", "error", err, "activity_id", id)
		return nil, internal.NewInternalError("failed to update activity", err)
	}

	return activity, nil
}

func (s *Service) Delete(p *auth.Principal, id int64) error {
	if _, err := s.Get(p, id); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete activity", "error", err, "activity_id", id)
		return internal.NewInternalError("failed to delete activity", err)
	}

	s.logger.Info("activity deleted", "activity_id", id, "user_id", p.ID)
	return nil
}
