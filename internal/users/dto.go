package users

// CreateUserRequest creates a new account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin operador repartidor"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest patches an existing account.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin operador repartidor"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ResetPasswordRequest sets a new password for a user.
type ResetPasswordRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}
