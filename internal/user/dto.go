package user

import "strings"

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type CreateUserDTO struct {
	EmployeeID  string  `json:"employee_id"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	RoleID      int64   `json:"role_id"`
	Department  *string `json:"department"`
	AccountType *string `json:"account_type"`
}

func (d CreateUserDTO) Validate() error {
	if d.EmployeeID == "" {
		return ValidationError{Msg: "employee_id is required"}
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	if d.FirstName == "" {
		return ValidationError{Msg: "first_name is required"}
	}
	if d.RoleID == 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	return nil
}

type UpdateProfileDTO struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Department *string `json:"department"`
}

func (d UpdateProfileDTO) Validate() error {
	if d.FirstName == "" {
		return ValidationError{Msg: "first_name is required"}
	}
	return nil
}

type ChangeRoleDTO struct {
	RoleID int64 `json:"role_id"`
}

func (d ChangeRoleDTO) Validate() error {
	if d.RoleID == 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (d UpdateStatusDTO) Validate() error {
	if d.Status != StatusActive && d.Status != StatusInactive {
		return ValidationError{Msg: "status must be active or inactive"}
	}
	return nil
}
