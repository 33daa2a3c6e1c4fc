package activity

import "time"

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type CreateActivityDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ContactName string     `json:"contact_name"`
	DueDate     *time.Time `json:"due_date"`
}

func (d CreateActivityDTO) Validate() error {
	if d.Title == "" {
		return ValidationError{Msg: "title is required"}
	}
	return nil
}

type UpdateActivityDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ContactName string     `json:"contact_name"`
	DueDate     *time.Time `json:"due_date"`
}

func (d UpdateActivityDTO) Validate() error {
	if d.Title == "" {
		return ValidationError{Msg: "title is required"}
	}
	return nil
}
