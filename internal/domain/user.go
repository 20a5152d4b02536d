package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session backs one issued refresh token.
type Session struct {
	JTI       uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
}
