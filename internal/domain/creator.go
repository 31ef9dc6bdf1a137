package domain

import (
	"time"

	"github.com/google/uuid"
)

type YtCreatorStatus string

const (
	CreatorActive    YtCreatorStatus = "ACTIVE"
	CreatorInactive  YtCreatorStatus = "INACTIVE"
	CreatorSuspended YtCreatorStatus = "SUSPENDED"
	CreatorDeleted   YtCreatorStatus = "DELETED"
)

func (s YtCreatorStatus) Valid() bool {
	switch s {
	case CreatorActive, CreatorInactive, CreatorSuspended, CreatorDeleted:
		return true
	}
	return false
}

// YtCreator - подключённый YouTube-аккаунт создателя вместе с OAuth-токенами.
// Токены никогда не отдаются наружу в JSON.
type YtCreator struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	CreatorID    string          `json:"creator_id" db:"creator_id"`
	Email        string          `json:"email" db:"email"`
	AccessToken  string          `json:"-" db:"access_token"`
	RefreshToken string          `json:"-" db:"refresh_token"`
	TokenExpiry  *time.Time      `json:"-" db:"token_expiry"`
	Status       YtCreatorStatus `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

type CreatorFilter struct {
	ID        *uuid.UUID
	CreatorID string
	Email     string
	Status    YtCreatorStatus
}

// CreatorPatch - непустые поля перезаписывают существующие
type CreatorPatch struct {
	CreatorID    string          `json:"creator_id"`
	Email        string          `json:"email"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Status       YtCreatorStatus `json:"status"`
}
