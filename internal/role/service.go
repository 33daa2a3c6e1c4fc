package role

import (
	"log/slog"

	"github.com/backoffice-crm/backoffice-crm/internal"
)

// Repository defines the data access methods for roles and the permission
// catalog. The reference-count guards are enforced inside the repository so
// the check and the write happen in one atomic store operation.
type Repository interface {
	CreateRole(role *Role) error
	GetRoleByID(id int64) (*Role, error)
	GetRoleByName(name string) (*Role, error)
	ListRoles() ([]*Role, error)
	UpdateRole(role *Role, permissionIDs []int64) error
	// DeleteRole fails with internal.ErrRoleInUse while any user still
	// references the role.
	DeleteRole(id int64) error
	RoleNameExists(name string) (bool, error)

	CreatePermission(permission *Permission) error
	ListPermissions() ([]*Permission, error)
	PermissionsByIDs(ids []int64) ([]Permission, error)
	PermissionExists(action, subject string) (bool, error)
	// DeletePermission fails with internal.ErrPermissionInUse while any
	// role still references the permission.
	DeletePermission(id int64) error
}

// Service handles role and permission catalog administration.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateRole(dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.RoleNameExists(dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check role name", err)
	}
	if taken {
		return nil, internal.ErrRoleNameTaken
	}

	permissions, err := s.repo.PermissionsByIDs(dto.PermissionIDs)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}
	if len(permissions) != len(dto.PermissionIDs) {
		return nil, internal.ErrPermissionNotFound
	}

	role := &Role{
		Name:        dto.Name,
		Permissions: permissions,
	}

	if err := s.repo.CreateRole(role); err != nil {
		s.logger.Error("failed to create role", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "role_id", role.ID, "name", role.Name)
	return role, nil
}

func (s *Service) GetRole(id int64) (*Role, error) {
	role, err := s.repo.GetRoleByID(id)
	if err != nil {
		return nil, internal.ErrRoleNotFound
	}
	return role, nil
}

func (s *Service) ListRoles() ([]*Role, error) {
	roles, err := s.repo.ListRoles()
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

// UpdateRole renames a role and replaces its permission set.
func (s *Service) UpdateRole(id int64, dto UpdateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := s.repo.GetRoleByID(id)
	if err != nil {
		return nil, internal.ErrRoleNotFound
	}

	if dto.Name != role.Name {
		taken, err := s.repo.RoleNameExists(dto.Name)
		if err != nil {
			return nil, internal.NewInternalError("failed to check role name", err)
		}
		if taken {
			return nil, internal.ErrRoleNameTaken
		}
	}

	permissions, err := s.repo.PermissionsByIDs(dto.PermissionIDs)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}
	if len(permissions) != len(dto.PermissionIDs) {
		return nil, internal.ErrPermissionNotFound
	}

	role.Name = dto.Name
	if err := s.repo.UpdateRole(role, dto.PermissionIDs); err != nil {
		s.logger.Error("failed to update role", "error", err, "role_id", id)
		return nil, internal.NewInternalError("failed to update role", err)
	}

	return s.repo.GetRoleByID(id)
}

// DeleteRole removes an unreferenced role. The referenced-by-users guard
// lives in the repository's atomic delete.
func (s *Service) DeleteRole(id int64) error {
	err := s.repo.DeleteRole(id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		s.logger.Error("failed to delete role", "error", err, "role_id", id)
		return internal.NewInternalError("failed to delete role", err)
	}

	s.logger.Info("role deleted", "role_id", id)
	return nil
}

func (s *Service) CreatePermission(dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.PermissionExists(dto.Action, dto.Subject)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permission", err)
	}
	if exists {
		return nil, internal.ErrPermissionTaken
	}

	permission := &Permission{
		Action:  dto.Action,
		Subject: dto.Subject,
	}

	if err := s.repo.CreatePermission(permission); err != nil {
		s.logger.Error("failed to create permission", "error", err,
			"action", dto.Action, "subject", dto.Subject)
		return nil, internal.NewInternalError("failed to create permission", err)
	}

	return permission, nil
}

func (s *Service) ListPermissions() ([]*Permission, error) {
	permissions, err := s.repo.ListPermissions()
	if err != nil {
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return permissions, nil
}

func (s *Service) DeletePermission(id int64) error {
	err := s.repo.DeletePermission(id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		s.logger.Error("failed to delete permission", "error", err, "permission_id", id)
		return internal.NewInternalError("failed to delete permission", err)
	}
	return nil
}
