package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const accountColumns = `u.id, u.employee_id, u.email, u.password_hash, u.first_name, u.last_name,
	u.role_id, r.name, u.department, u.status, u.account_type`

func (r *Repository) scanAccount(row *sql.Row) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.EmployeeID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.RoleID, &a.RoleName, &a.Department, &a.Status, &a.AccountType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found")
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByEmail(email string) (*auth.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.email = ?`
	return r.scanAccount(r.db.Raw(query, email).Row())
}

func (r *Repository) GetByID(userID int64) (*auth.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.id = ?`
	return r.scanAccount(r.db.Raw(query, userID).Row())
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Raw(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateAccount(account *auth.Account) error {
	now := time.Now()
	result := r.db.Exec(`INSERT INTO users
		(employee_id, email, password_hash, first_name, last_name, role_id, department, status, account_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.EmployeeID, account.Email, account.PasswordHash, account.FirstName, account.LastName,
		account.RoleID, account.Department, account.Status, account.AccountType, now, now)
	if result.Error != nil {
		return result.Error
	}

	row := r.db.Raw(`SELECT id FROM users WHERE email = ?`, account.Email).Row()
	return row.Scan(&account.ID)
}

func (r *Repository) RoleIDByName(name string) (int64, error) {
	var id int64
	row := r.db.Raw(`SELECT id FROM roles WHERE name = ?`, name).Row()
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("role %q not found", name)
		}
		return 0, err
	}
	return id, nil
}

// RolePermissions returns the current "action:subject" keys attached to a
// role name. Resolved per request by the permission gate, so permission
// edits apply without waiting for token refresh.
func (r *Repository) RolePermissions(roleName string) ([]string, error) {
	query := `SELECT p.action, p.subject
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?`

	rows, err := r.db.Raw(query, roleName).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var action, subject string
		if err := rows.Scan(&action, &subject); err != nil {
			return nil, err
		}
		permissions = append(permissions, auth.PermissionKey(action, subject))
	}
	return permissions, rows.Err()
}
