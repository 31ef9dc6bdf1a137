package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

// FolderService ведёт папки аккаунтов: запись в базе плюс папка на Drive
type FolderService struct {
	repo  FolderRepository
	store ObjectStore
	log   *logrus.Entry
}

func NewFolderService(repo FolderRepository, store ObjectStore) *FolderService {
	return &FolderService{
		repo:  repo,
		store: store,
		log:   logger.WithComponent("folder-service"),
	}
}

// На Drive все папки лежат под одним корнем, поэтому имя там включает аккаунт
func remoteFolderName(name string, accountID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", name, accountID)
}

// CreateFolder создаёт папку под корнем Drive и запись о ней.
// Живая папка с тем же именем в аккаунте - конфликт
func (s *FolderService) CreateFolder(ctx context.Context, in domain.CreateFolderInput) (*domain.Folder, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	case in.CreatorID == "" || in.EditorID == "":
		return nil, fmt.Errorf("%w: creator and editor are required", domain.ErrValidation)
	case in.AccountID == uuid.Nil:
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}

	existing, err := s.repo.FindByName(ctx, in.AccountID, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: folder %q already exists", domain.ErrConflict, in.Name)
	}

	remoteID, err := s.store.CreateFolder(ctx, remoteFolderName(in.Name, in.AccountID), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create remote folder: %w", err)
	}

	folder := &domain.Folder{
		FolderID:  remoteID,
		Name:      in.Name,
		CreatorID: in.CreatorID,
		EditorID:  in.EditorID,
		AccountID: in.AccountID,
	}
	if err := s.repo.Create(ctx, folder); err != nil {
		if delErr := s.store.DeleteFile(context.WithoutCancel(ctx), remoteID); delErr != nil {
			s.log.WithError(delErr).WithField("folder_id", remoteID).Error("failed to delete orphaned remote folder")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"folder": folder.ID, "account": in.AccountID}).Info("folder created")
	return folder, nil
}

// UpdateFolder переименовывает папку на Drive, затем в базе
func (s *FolderService) UpdateFolder(ctx context.Context, id uuid.UUID, in domain.UpdateFolderInput) (*domain.Folder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	}

	folder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.Name == name {
		return folder, nil
	}

	existing, err := s.repo.FindByName(ctx, folder.AccountID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: folder %q already exists", domain.ErrConflict, name)
	}

	if err := s.store.RenameFolder(ctx, folder.FolderID, remoteFolderName(name, folder.AccountID)); err != nil {
		return nil, fmt.Errorf("failed to rename remote folder: %w", err)
	}
	return s.repo.Rename(ctx, id, name)
}

// DeleteFolder - мягкое удаление, доступно только создателю или редактору папки.
// Папка на Drive остаётся, но получает архивное имя, чтобы имя можно было занять снова
func (s *FolderService) DeleteFolder(ctx context.Context, id uuid.UUID, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	folder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, userID); err != nil {
		return err
	}

	archived := fmt.Sprintf("%s_deleted_%s", remoteFolderName(folder.Name, folder.AccountID), folder.ID)
	if err := s.store.RenameFolder(context.WithoutCancel(ctx), folder.FolderID, archived); err != nil {
		s.log.WithError(err).WithField("folder_id", folder.FolderID).Error("failed to archive remote folder name")
	}
	return nil
}

func (s *FolderService) GetFolder(ctx context.Context, id uuid.UUID) (*domain.Folder, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FolderService) ByCreator(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return s.repo.ListByCreator(ctx, creatorID, accountID)
}

func (s *FolderService) ByEditor(ctx context.Context, editorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return s.repo.ListByEditor(ctx, editorID, accountID)
}

func (s *FolderService) GetFolderItems(ctx context.Context, q domain.FolderItemsQuery) ([]domain.FolderItem, error) {
	if q.CreatorID == "" || q.EditorID == "" || q.AccountID == uuid.Nil || q.FolderName == "" {
		return nil, fmt.Errorf("%w: creator, editor, account and folder name are required", domain.ErrValidation)
	}
	return s.repo.ItemsByQuery(ctx, q)
}

func (s *FolderService) CreateFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error) {
	if _, err := s.repo.GetByID(ctx, folderID); err != nil {
		return nil, err
	}
	item := &domain.FolderItem{FolderID: folderID, MediaID: mediaID}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *FolderService) ListFolderItems(ctx context.Context, folderID uuid.UUID) ([]domain.FolderItem, error) {
	return s.repo.ListItems(ctx, folderID)
}

func (s *FolderService) GetFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error) {
	return s.repo.GetItem(ctx, folderID, mediaID)
}

func (s *FolderService) DeleteFolderItem(ctx context.Context, folderID, mediaID uuid.UUID) error {
	err := s.repo.DeleteItem(ctx, folderID, mediaID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: media %s is not in folder %s", domain.ErrNotFound, mediaID, folderID)
	}
	return err
}
