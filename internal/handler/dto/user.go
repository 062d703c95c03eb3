package dto

// CreateUserRequest represents the request body for adding a reviewer.
// The token is generated when omitted.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	APIToken string `json:"apiToken,omitempty" validate:"omitempty,min=8,max=256"`
}

// AuthRequest is the reviewer login body. Email is optional; when present
// it must match the token's owner.
type AuthRequest struct {
	APIToken string `json:"apiToken" validate:"required"`
	Email    string `json:"email,omitempty"`
}

// AdminAuthRequest is the admin login body.
type AdminAuthRequest struct {
	Token string `json:"token" validate:"required"`
}

// AdminAuthResponse confirms a valid admin token.
type AdminAuthResponse struct {
	Authenticated bool `json:"authenticated"`
}
