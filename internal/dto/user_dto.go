package dto

// CreateUserRequest is also used for employee registration. The password
// goes to the identity provider and is never stored with the profile.
type CreateUserRequest struct {
	Name     string  `json:"nome"`
	Email    string  `json:"email"`
	Password string  `json:"senha"`
	Role     *string `json:"role"`
}

// UpdateUserRequest is a sparse patch: nil fields are left untouched.
type UpdateUserRequest struct {
	Name  *string `json:"nome"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}
