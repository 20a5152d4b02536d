package domain

import "github.com/google/uuid"

type Balance struct {
	UserID uuid.UUID
	Amount int
}
