package domain

import (
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeImage MediaType = "IMAGE"
)

func (t MediaType) Valid() bool {
	return t == MediaTypeVideo || t == MediaTypeImage
}

// Media - загруженный бинарный объект. IntegrationKey указывает на объект во внешнем хранилище.
type Media struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Type           MediaType `json:"type" db:"type"`
	IntegrationURL *string   `json:"integration_url" db:"integration_url"`
	IntegrationKey *string   `json:"integration_key" db:"integration_key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Key возвращает IntegrationKey или пустую строку
func (m *Media) Key() string {
	if m == nil || m.IntegrationKey == nil {
		return ""
	}
	return *m.IntegrationKey
}
