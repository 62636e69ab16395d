package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential belongs to the local identity provider. It is kept in its own
// table and never joined with, or copied into, the users profile table.
type Credential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (Credential) TableName() string {
	return "credentials"
}

// AuthSession backs one issued token pair of the local identity provider.
// Only the SHA-256 of the refresh token is stored.
type AuthSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}
