package postgres

import (
	"gorm.io/gorm"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/role"
)

// RoleRepository implements the role.Repository interface using GORM
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.Repository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) CreateRole(rl *role.Role) error {
	return r.db.Create(rl).Error
}

func (r *RoleRepository) GetRoleByID(id int64) (*role.Role, error) {
	var rl role.Role
	err := r.db.Preload("Permissions").Where("id = ?", id).First(&rl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrRoleNotFound
		}
		return nil, err
	}
	return &rl, nil
}

func (r *RoleRepository) GetRoleByName(name string) (*role.Role, error) {
	var rl role.Role
	err := r.db.Preload("Permissions").Where("name = ?", name).First(&rl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrRoleNotFound
		}
		return nil, err
	}
	return &rl, nil
}

func (r *RoleRepository) ListRoles() ([]*role.Role, error) {
	var roles []*role.Role
	err := r.db.Preload("Permissions").Order("name ASC").Find(&roles).Error
	return roles, err
}

// UpdateRole renames the role and replaces its permission set in one
// transaction.
func (r *RoleRepository) UpdateRole(rl *role.Role, permissionIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&role.Role{}).Where("id = ?", rl.ID).
			Update("name", rl.Name).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", rl.ID).Error; err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if err := tx.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
				rl.ID, pid).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRole deletes the role only while no user references it. The guard
// and the delete run as a single statement so two concurrent requests
// cannot both observe an unreferenced role and race past the check.
func (r *RoleRepository) DeleteRole(id int64) error {
	result := r.db.Exec(`DELETE FROM roles
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM users WHERE users.role_id = ?)`, id, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Raw(`SELECT COUNT(*) FROM roles WHERE id = ?`, id).Scan(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrRoleNotFound
		}
		return internal.ErrRoleInUse
	}

	return r.db.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, id).Error
}

func (r *RoleRepository) RoleNameExists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&role.Role{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *RoleRepository) CreatePermission(p *role.Permission) error {
	return r.db.Create(p).Error
}

func (r *RoleRepository) ListPermissions() ([]*role.Permission, error) {
	var permissions []*role.Permission
	err := r.db.Order("subject ASC, action ASC").Find(&permissions).Error
	return permissions, err
}

func (r *RoleRepository) PermissionsByIDs(ids []int64) ([]role.Permission, error) {
	if len(ids) == 0 {
		return []role.Permission{}, nil
	}
	var permissions []role.Permission
	err := r.db.Where("id IN ?", ids).Find(&permissions).Error
	return permissions, err
}

func (r *RoleRepository) PermissionExists(action, subject string) (bool, error) {
	var count int64
	err := r.db.Model(&role.Permission{}).
		Where("action = ? AND subject = ?", action, subject).
		Count(&count).Error
	return count > 0, err
}

// DeletePermission deletes a permission only while no role references it,
// using the same single-statement guard as DeleteRole.
func (r *RoleRepository) DeletePermission(id int64) error {
	result := r.db.Exec(`DELETE FROM permissions
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM role_permissions WHERE permission_id = ?)`, id, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Raw(`SELECT COUNT(*) FROM permissions WHERE id = ?`, id).Scan(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrPermissionNotFound
		}
		return internal.ErrPermissionInUse
	}
	return nil
}
