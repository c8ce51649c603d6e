package models

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization,omitempty"`
}

// AuthResponse is the authority's reply to a successful login or register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
