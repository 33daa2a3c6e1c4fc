package user

import (
	"time"

	"github.com/backoffice-crm/backoffice-crm/internal/role"
)

// User is a principal record. Department is optional; absence means the
// user never matches a departmental filter, it is not a wildcard.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	EmployeeID   string    `json:"employee_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	RoleID       int64     `json:"role_id"`
	Role         role.Role `json:"role" gorm:"foreignKey:RoleID"`
	Department   *string   `json:"department"`
	Status       string    `json:"status"`
	AccountType  *string   `json:"account_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsActiveUser() bool {
	return u.Status == StatusActive
}
