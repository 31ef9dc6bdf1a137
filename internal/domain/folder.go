package domain

import (
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	FolderID  string     `json:"folder_id" db:"folder_id"`
	Name      string     `json:"name" db:"name"`
	CreatorID string     `json:"creator_id" db:"creator_id"`
	EditorID  string     `json:"editor_id" db:"editor_id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type FolderItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	FolderID  uuid.UUID  `json:"folder_id" db:"folder_id"`
	MediaID   uuid.UUID  `json:"media_id" db:"media_id"`
	Media     *Media     `json:"media,omitempty" db:"-"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type CreateFolderInput struct {
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	EditorID  string    `json:"editor_id"`
	AccountID uuid.UUID `json:"account_id"`
}

type UpdateFolderInput struct {
	Name string `json:"name"`
}

type FolderItemsQuery struct {
	CreatorID  string
	EditorID   string
	AccountID  uuid.UUID
	FolderName string
}
