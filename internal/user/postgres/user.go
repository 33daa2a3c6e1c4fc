package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/user"
)

// UserRepository implements the user.Repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Preload("Role").Preload("Role.Permissions").Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(limit, offset int) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Preload("Role").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *UserRepository) Create(u *user.User) error {
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	return r.db.Omit("Role").Create(u).Error
}

func (r *UserRepository) UpdateProfile(id int64, firstName, lastName string, department *string) error {
	return r.db.Model(&user.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"department": department,
			"updated_at": time.Now(),
		}).Error
}

func (r *UserRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&user.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmployeeIDExists(employeeID string) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).Where("employee_id = ?", employeeID).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) RoleIDByName(name string) (int64, error) {
	var id int64
	err := r.db.Raw(`SELECT id FROM roles WHERE name = ?`, name).Scan(&id).Error
	return id, err
}

// lockAdminRows serializes invariant checks: touching the full-access rows
// takes their locks, so a concurrent demotion blocks until this
// transaction commits and then re-reads a current count.
func lockAdminRows(tx *gorm.DB, adminRoleID int64) error {
	return tx.Exec(`UPDATE users SET updated_at = updated_at WHERE role_id = ?`, adminRoleID).Error
}

// ChangeRole reassigns the role, rejecting a demotion that would leave the
// full-access role without a holder.
func (r *UserRepository) ChangeRole(userID, newRoleID, adminRoleID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockAdminRows(tx, adminRoleID); err != nil {
			return err
		}

		var u user.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return internal.ErrUserNotFound
			}
			return err
		}

		if u.RoleID == adminRoleID && newRoleID != adminRoleID {
			var admins int64
			if err := tx.Model(&user.User{}).Where("role_id = ?", adminRoleID).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return internal.ErrLastAdmin
			}
		}

		return tx.Model(&user.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"role_id":    newRoleID,
				"updated_at": time.Now(),
			}).Error
	})
}

// Delete removes the row, rejecting removal of the last full-access holder.
func (r *UserRepository) Delete(userID, adminRoleID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockAdminRows(tx, adminRoleID); err != nil {
			return err
		}

		var u user.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return internal.ErrUserNotFound
			}
			return err
		}

		if u.RoleID == adminRoleID {
			var admins int64
			if err := tx.Model(&user.User{}).Where("role_id = ?", adminRoleID).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return internal.ErrLastAdmin
			}
		}

		return tx.Exec(`DELETE FROM users WHERE id = ?`, userID).Error
	})
}
