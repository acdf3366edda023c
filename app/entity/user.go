package entity

import (
	"database/sql"
	"time"
)

type AccountStatus string

const (
	AccountStatusPending AccountStatus = "PENDING"
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusBlocked AccountStatus = "BLOCKED"
	AccountStatusDeleted AccountStatus = "DELETED"
)

type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Status       AccountStatus
	Role         string
	LatestLogin  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken stores only the bcrypt hash of the value handed to the
// client; the plaintext is never persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

type EmailVerificationToken struct {
	ID        uint64
	Token     string
	UserID    uint64
	ExpiresAt time.Time
	Used      bool
	UsedAt    sql.NullTime
	CreatedAt time.Time
}
