package activity

import "time"

// Activity is an owned CRM record (call, meeting, note) attached to the
// principal who created it. Department is a snapshot taken at creation
// time and is deliberately not re-joined to the owner's current
// department.
type Activity struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	OwnerID     int64      `json:"owner_id"`
	Department  *string    `json:"department"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ContactName string     `json:"contact_name"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Activity) TableName() string { return "activities" }
