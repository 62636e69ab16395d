package dto

import "github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *models.User `json:"user"`
}

// LoginResponse carries the profile, never the credential.
type LoginResponse struct {
	User    *models.User    `json:"usuario"`
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Errors  []string    `json:"errors,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Identity  string `json:"identity_provider"`
}
