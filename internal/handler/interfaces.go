package handler

import (
	"context"

	"github.com/google/uuid"

	"contribflow/internal/domain"
	"contribflow/internal/service"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/token"
	"contribflow/internal/service/youtube"
)

type ContributionService interface {
	CreateContribution(ctx context.Context, in domain.CreateContributionInput, video, thumbnail *domain.FileUpload, editorID string) (*domain.Contribute, error)
	CreateVersion(ctx context.Context, contributeID uuid.UUID, in domain.ContributionInput, video, thumbnail *domain.FileUpload) (*domain.ContributionVersion, error)
	UpdateVersionStatus(ctx context.Context, versionID uuid.UUID, status domain.ContributionStatus) (*domain.ContributionVersion, error)
	UpdateContributionStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus) (*domain.Contribute, error)
	GetContribution(ctx context.Context, id uuid.UUID) (*domain.Contribute, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Contribute, error)
	ListVersions(ctx context.Context, contributeID uuid.UUID) ([]domain.ContributionVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*domain.ContributionVersion, error)
	AddVersionComment(ctx context.Context, versionID uuid.UUID, authorID, content string) (*domain.VersionComment, error)
	ListVersionComments(ctx context.Context, versionID uuid.UUID) ([]domain.VersionComment, error)
}

type FolderService interface {
	CreateFolder(ctx context.Context, in domain.CreateFolderInput) (*domain.Folder, error)
	UpdateFolder(ctx context.Context, id uuid.UUID, in domain.UpdateFolderInput) (*domain.Folder, error)
	DeleteFolder(ctx context.Context, id uuid.UUID, userID string) error
	GetFolder(ctx context.Context, id uuid.UUID) (*domain.Folder, error)
	ByCreator(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.Folder, error)
	ByEditor(ctx context.Context, editorID string, accountID uuid.UUID) ([]domain.Folder, error)
	GetFolderItems(ctx context.Context, q domain.FolderItemsQuery) ([]domain.FolderItem, error)
	CreateFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error)
	ListFolderItems(ctx context.Context, folderID uuid.UUID) ([]domain.FolderItem, error)
	GetFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error)
	DeleteFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) error
}

type MediaService interface {
	SaveStandalone(ctx context.Context, in service.MediaInput, file *domain.FileUpload) (*domain.Media, error)
	SaveWithFolderRelation(ctx context.Context, in service.MediaInput, file *domain.FileUpload, userID string) (*domain.FolderItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	List(ctx context.Context, limit, offset int) ([]domain.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DriveStorage - прямые операции с Drive без записи в базу
type DriveStorage interface {
	Upload(ctx context.Context, in drive.UploadInput) (*domain.StoredObject, error)
	CreateFolder(ctx context.Context, name, parent string) (string, error)
	FolderNameExists(ctx context.Context, name string) (bool, error)
}

type DriveAuthorizer interface {
	AuthURL() string
	Callback(ctx context.Context, code string) (token.Credential, error)
}

type YouTubeConnector interface {
	AuthURL(creatorID string) (string, error)
	HandleCallback(ctx context.Context, code, creatorID string) (*domain.YtCreator, error)
	ChannelInfo(ctx context.Context, id uuid.UUID) (*youtube.ChannelInfo, error)
}

type CreatorService interface {
	List(ctx context.Context, filter domain.CreatorFilter) ([]domain.YtCreator, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CreatorPatch) (*domain.YtCreator, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error)
}

type CreatorEditorMaps interface {
	FindMap(ctx context.Context, creatorID, editorEmail string) (*domain.CreatorEditorMap, error)
	FindByCreator(ctx context.Context, creatorID string) ([]domain.CreatorEditorMap, error)
	FindByEditor(ctx context.Context, editorID string) ([]domain.CreatorEditorMap, error)
	RequestEditor(ctx context.Context, creatorID, editorID, editorEmail string) (*domain.CreatorEditorMap, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MapStatus) (*domain.CreatorEditorMap, error)
}

type AccountEditorMaps interface {
	FindAccountEditors(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.AccountEditorMap, error)
	FindAccountsByEditor(ctx context.Context, editorID string) ([]domain.AccountEditorMap, error)
	Link(ctx context.Context, creatorID string, accountID uuid.UUID, editorID string) (*domain.AccountEditorMap, error)
	Unlink(ctx context.Context, creatorID string, accountID uuid.UUID, editorID string) error
}
