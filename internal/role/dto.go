package role

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type CreateRoleDTO struct {
	Name          string  `json:"name"`
	PermissionIDs []int64 `json:"permission_ids"`
}

func (d CreateRoleDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	return nil
}

type UpdateRoleDTO struct {
	Name          string  `json:"name"`
	PermissionIDs []int64 `json:"permission_ids"`
}

func (d UpdateRoleDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	return nil
}

type CreatePermissionDTO struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
}

func (d CreatePermissionDTO) Validate() error {
	if d.Action == "" {
		return ValidationError{Msg: "action is required"}
	}
	if d.Subject == "" {
		return ValidationError{Msg: "subject is required"}
	}
	return nil
}
