package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
	"contribflow/internal/service/drive"
)

// MediaInput - метаданные загружаемого медиа
type MediaInput struct {
	Type     domain.MediaType
	FolderID *uuid.UUID
}

// MediaService загружает файлы во внешнее хранилище и регистрирует их в базе.
// Если запись в базу не удалась, загруженный объект удаляется
type MediaService struct {
	repo    MediaRepository
	folders FolderRepository
	store   ObjectStore
	prepare func(*domain.FileUpload) (*domain.FileUpload, error)
	now     func() time.Time
	log     *logrus.Entry
}

func NewMediaService(repo MediaRepository, folders FolderRepository, store ObjectStore) *MediaService {
	return &MediaService{
		repo:    repo,
		folders: folders,
		store:   store,
		prepare: PrepareThumbnail,
		now:     time.Now,
		log:     logger.WithComponent("media-service"),
	}
}

func validateMedia(in MediaInput, file *domain.FileUpload) error {
	if file == nil || len(file.Data) == 0 {
		return fmt.Errorf("%w: file is required", domain.ErrValidation)
	}
	switch in.Type {
	case domain.MediaTypeVideo:
		if !file.IsVideo() {
			return fmt.Errorf("%w: invalid video file type %q", domain.ErrValidation, file.MIMEType)
		}
	case domain.MediaTypeImage:
		if !file.IsImage() {
			return fmt.Errorf("%w: invalid image file type %q", domain.ErrValidation, file.MIMEType)
		}
	default:
		return fmt.Errorf("%w: unknown media type %q", domain.ErrValidation, in.Type)
	}
	return nil
}

func (s *MediaService) prepareFile(in MediaInput, file *domain.FileUpload) (*domain.FileUpload, error) {
	if err := validateMedia(in, file); err != nil {
		return nil, err
	}
	if in.Type == domain.MediaTypeImage && s.prepare != nil {
		return s.prepare(file)
	}
	return file, nil
}

func (s *MediaService) fileName(file *domain.FileUpload) string {
	return fmt.Sprintf("%s_%s_%s.%s", s.now().UTC().Format(time.RFC3339), file.Name, uuid.NewString(), file.Subtype())
}

// SaveStandalone загружает файл в корневую папку и создаёт запись медиа
func (s *MediaService) SaveStandalone(ctx context.Context, in MediaInput, file *domain.FileUpload) (*domain.Media, error) {
	file, err := s.prepareFile(in, file)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Upload(ctx, drive.UploadInput{
		Data:     file.Data,
		MimeType: file.MIMEType,
		FileName: s.fileName(file),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	media := newMedia(in.Type, obj)
	if err := s.repo.Create(ctx, media); err != nil {
		s.compensate(ctx, obj.FileID)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"media_id": media.ID, "file_id": obj.FileID}).Info("media saved")
	return media, nil
}

// SaveWithFolderRelation загружает файл в папку, связанную с записью Folder,
// и создаёт медиа вместе с элементом папки
func (s *MediaService) SaveWithFolderRelation(ctx context.Context, in MediaInput, file *domain.FileUpload, userID string) (*domain.FolderItem, error) {
	if in.FolderID == nil {
		return nil, fmt.Errorf("%w: folder id is required", domain.ErrValidation)
	}
	file, err := s.prepareFile(in, file)
	if err != nil {
		return nil, err
	}

	folder, err := s.folders.GetByID(ctx, *in.FolderID)
	if err != nil {
		return nil, err
	}

	// id в имени папки разводит одноимённые папки разных аккаунтов
	obj, err := s.store.Upload(ctx, drive.UploadInput{
		Data:       file.Data,
		MimeType:   file.MIMEType,
		FolderName: fmt.Sprintf("%s_%s", folder.Name, folder.ID),
		FileName:   fmt.Sprintf("%s_%s_%s", folder.Name, s.fileName(file), userID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	item, err := s.repo.CreateWithFolderItem(ctx, newMedia(in.Type, obj), folder.ID)
	if err != nil {
		s.compensate(ctx, obj.FileID)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"media_id": item.MediaID, "folder": folder.ID}).Info("media saved to folder")
	return item, nil
}

func newMedia(t domain.MediaType, obj *domain.StoredObject) *domain.Media {
	url, key := obj.URL, obj.FileID
	return &domain.Media{Type: t, IntegrationURL: &url, IntegrationKey: &key}
}

// compensate удаляет загруженный объект один раз; ошибка только логируется
func (s *MediaService) compensate(ctx context.Context, fileID string) {
	if err := s.store.DeleteFile(context.WithoutCancel(ctx), fileID); err != nil {
		s.log.WithError(err).WithField("file_id", fileID).Error("failed to delete orphaned remote object, manual cleanup required")
		return
	}
	s.log.WithField("file_id", fileID).Warn("remote object deleted after failed database write")
}

func (s *MediaService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MediaService) List(ctx context.Context, limit, offset int) ([]domain.Media, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete удаляет сначала внешний объект, затем запись
func (s *MediaService) Delete(ctx context.Context, id uuid.UUID) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if key := media.Key(); key != "" {
		if err := s.store.DeleteFile(ctx, key); err != nil {
			return fmt.Errorf("failed to delete remote object: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
