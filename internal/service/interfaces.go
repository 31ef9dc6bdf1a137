package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"contribflow/internal/domain"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/youtube"
)

// Интерфейсы зависимостей сервисов. Реализации - репозитории, drive.Client, youtube.Publisher

type ObjectStore interface {
	Upload(ctx context.Context, in drive.UploadInput) (*domain.StoredObject, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateFolder(ctx context.Context, name, parent string) (string, error)
	RenameFolder(ctx context.Context, folderID, name string) error
}

type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	CreateWithFolderItem(ctx context.Context, media *domain.Media, folderID uuid.UUID) (*domain.FolderItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	List(ctx context.Context, limit, offset int) ([]domain.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FolderRepository interface {
	Create(ctx context.Context, folder *domain.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Folder, error)
	FindByName(ctx context.Context, accountID uuid.UUID, name string) (*domain.Folder, error)
	ListByCreator(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.Folder, error)
	ListByEditor(ctx context.Context, editorID string, accountID uuid.UUID) ([]domain.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Folder, error)
	SoftDelete(ctx context.Context, id uuid.UUID, userID string) error
	CreateItem(ctx context.Context, item *domain.FolderItem) error
	ListItems(ctx context.Context, folderID uuid.UUID) ([]domain.FolderItem, error)
	ItemsByQuery(ctx context.Context, q domain.FolderItemsQuery) ([]domain.FolderItem, error)
	GetItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error)
	DeleteItem(ctx context.Context, folderID, mediaID uuid.UUID) error
}

type ContributionRepository interface {
	CreateWithInitialVersion(ctx context.Context, in domain.NewContribution) (*domain.Contribute, error)
	CreateVersion(ctx context.Context, in domain.NewVersion) (*domain.ContributionVersion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contribute, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Contribute, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus) (*domain.Contribute, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*domain.ContributionVersion, error)
	ListVersions(ctx context.Context, contributeID uuid.UUID) ([]domain.ContributionVersion, error)
	AcceptVersion(ctx context.Context, versionID, contributeID uuid.UUID) (*domain.ContributionVersion, error)
	SetVersionStatus(ctx context.Context, versionID uuid.UUID, status domain.ContributionStatus) (*domain.ContributionVersion, error)
	AddComment(ctx context.Context, comment *domain.VersionComment) error
	ListComments(ctx context.Context, versionID uuid.UUID) ([]domain.VersionComment, error)
}

type CreatorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error)
	List(ctx context.Context, filter domain.CreatorFilter) ([]domain.YtCreator, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CreatorPatch) (*domain.YtCreator, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error
}

type MapRepository interface {
	CreateCreatorEditor(ctx context.Context, m *domain.CreatorEditorMap) error
	FindCreatorEditor(ctx context.Context, creatorID, editorEmail string) (*domain.CreatorEditorMap, error)
	ExistsCreatorEditor(ctx context.Context, creatorID, editorID string) (bool, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.CreatorEditorMap, error)
	ListByEditor(ctx context.Context, editorID string) ([]domain.CreatorEditorMap, error)
	UpdateCreatorEditorStatus(ctx context.Context, id uuid.UUID, status domain.MapStatus) (*domain.CreatorEditorMap, error)
	UpsertAccountEditor(ctx context.Context, accountID uuid.UUID, editorID string, status domain.MapStatus) (*domain.AccountEditorMap, error)
	SetAccountEditorStatus(ctx context.Context, accountID uuid.UUID, editorID string, status domain.MapStatus) error
	AccountEditors(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.AccountEditorMap, error)
	AccountsByEditor(ctx context.Context, editorID string) ([]domain.AccountEditorMap, error)
}

// Publisher публикует принятую версию; false - публикация не удалась
type Publisher interface {
	PublishAcceptedVersion(ctx context.Context, req youtube.PublishRequest) bool
}

// DurationProber измеряет длительность видео в секундах
type DurationProber interface {
	Duration(ctx context.Context, file *domain.FileUpload) int64
}
