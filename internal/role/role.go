package role

import (
	"time"

	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

// Permission identifies a single (action, subject) pair. Rows are seed or
// administrative data: created once, never mutated, deleted only while no
// role references them.
type Permission struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

func (Permission) TableName() string { return "permissions" }

// Key returns the "action:subject" form used in permission checks.
func (p Permission) Key() string {
	return auth.PermissionKey(p.Action, p.Subject)
}

// Role is a named bundle of permissions assigned to users.
type Role struct {
	ID          int64        `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions;"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Role) TableName() string { return "roles" }

// HasPermission reports explicit membership of the pair in this role's set.
func (r *Role) HasPermission(action, subject string) bool {
	for _, p := range r.Permissions {
		if p.Action == action && p.Subject == subject {
			return true
		}
	}
	return false
}

// PermissionKeys flattens the set into "action:subject" strings.
func (r *Role) PermissionKeys() []string {
	keys := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		keys = append(keys, p.Key())
	}
	return keys
}
