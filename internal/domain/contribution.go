package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ContributionStatus string

const (
	StatusPending   ContributionStatus = "PENDING"
	StatusCompleted ContributionStatus = "COMPLETED"
	StatusRejected  ContributionStatus = "REJECTED"
)

func (s ContributionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal - из COMPLETED и REJECTED переходов нет
func (s ContributionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

type Contribute struct {
	ID          uuid.UUID             `json:"id" db:"id"`
	Status      ContributionStatus    `json:"status" db:"status"`
	AccountID   uuid.UUID             `json:"account_id" db:"account_id"`
	EditorID    string                `json:"editor_id" db:"editor_id"`
	VideoID     uuid.UUID             `json:"video_id" db:"video_id"`
	ThumbnailID uuid.UUID             `json:"thumbnail_id" db:"thumbnail_id"`
	Title       string                `json:"title" db:"title"`
	Description string                `json:"description" db:"description"`
	Tags        pq.StringArray        `json:"tags" db:"tags"`
	Duration    int64                 `json:"duration" db:"duration"`
	CreatedAt   time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at" db:"updated_at"`
	Account     *YtCreator            `json:"account,omitempty" db:"-"`
	Video       *Media                `json:"video,omitempty" db:"-"`
	Thumbnail   *Media                `json:"thumbnail,omitempty" db:"-"`
	Versions    []ContributionVersion `json:"versions,omitempty" db:"-"`
}

type ContributionVersion struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	ContributeID  uuid.UUID          `json:"contribute_id" db:"contribute_id"`
	VersionNumber int                `json:"version_number" db:"version_number"`
	Status        ContributionStatus `json:"status" db:"status"`
	Title         string             `json:"title" db:"title"`
	Description   string             `json:"description" db:"description"`
	Tags          pq.StringArray     `json:"tags" db:"tags"`
	VideoID       uuid.UUID          `json:"video_id" db:"video_id"`
	ThumbnailID   uuid.UUID          `json:"thumbnail_id" db:"thumbnail_id"`
	Duration      int64              `json:"duration" db:"duration"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
	Contribute    *Contribute        `json:"contribute,omitempty" db:"-"`
	Video         *Media             `json:"video,omitempty" db:"-"`
	Thumbnail     *Media             `json:"thumbnail,omitempty" db:"-"`
	Comments      []VersionComment   `json:"comments,omitempty" db:"-"`
}

type VersionComment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	VersionID uuid.UUID `json:"version_id" db:"version_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContributionInput - метаданные, общие для вклада и его версий
type ContributionInput struct {
	Title       string
	Description string
	Tags        []string
}

type CreateContributionInput struct {
	ContributionInput
	AccountID uuid.UUID
}

// NewContribution - данные для транзакции "вклад + версия 1"
type NewContribution struct {
	AccountID   uuid.UUID
	EditorID    string
	VideoID     uuid.UUID
	ThumbnailID uuid.UUID
	Title       string
	Description string
	Tags        []string
	Duration    int64
}

type NewVersion struct {
	ContributeID uuid.UUID
	VideoID      uuid.UUID
	ThumbnailID  uuid.UUID
	Title        string
	Description  string
	Tags         []string
	Duration     int64
}

// SplitTags разбирает строку тегов через запятую, пустые значения отбрасываются
func SplitTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
