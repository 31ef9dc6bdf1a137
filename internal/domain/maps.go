package domain

import (
	"time"

	"github.com/google/uuid"
)

type MapStatus string

const (
	MapActive   MapStatus = "ACTIVE"
	MapInactive MapStatus = "INACTIVE"
	MapPending  MapStatus = "PENDING"
)

func (s MapStatus) Valid() bool {
	return s == MapActive || s == MapInactive || s == MapPending
}

type CreatorEditorMap struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CreatorID   string    `json:"creator_id" db:"creator_id"`
	EditorID    string    `json:"editor_id" db:"editor_id"`
	EditorEmail string    `json:"editor_email" db:"editor_email"`
	Status      MapStatus `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type AccountEditorMap struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	EditorID  string     `json:"editor_id" db:"editor_id"`
	Status    MapStatus  `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Account   *YtCreator `json:"account,omitempty" db:"-"`
}
