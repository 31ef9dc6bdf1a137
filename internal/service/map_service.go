package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"contribflow/internal/domain"
)

// CreatorEditorMapService - приглашения редакторов к создателю
type CreatorEditorMapService struct {
	repo MapRepository
}

func NewCreatorEditorMapService(repo MapRepository) *CreatorEditorMapService {
	return &CreatorEditorMapService{repo: repo}
}

func (s *CreatorEditorMapService) FindMap(ctx context.Context, creatorID, editorEmail string) (*domain.CreatorEditorMap, error) {
	m, err := s.repo.FindCreatorEditor(ctx, creatorID, strings.ToLower(strings.TrimSpace(editorEmail)))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: no link between creator %s and %s", domain.ErrNotFound, creatorID, editorEmail)
	}
	return m, nil
}

func (s *CreatorEditorMapService) FindByCreator(ctx context.Context, creatorID string) ([]domain.CreatorEditorMap, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

func (s *CreatorEditorMapService) FindByEditor(ctx context.Context, editorID string) ([]domain.CreatorEditorMap, error) {
	return s.repo.ListByEditor(ctx, editorID)
}

// RequestEditor создаёт приглашение в статусе PENDING
func (s *CreatorEditorMapService) RequestEditor(ctx context.Context, creatorID, editorID, editorEmail string) (*domain.CreatorEditorMap, error) {
	if creatorID == "" || editorID == "" {
		return nil, fmt.Errorf("%w: creator and editor are required", domain.ErrValidation)
	}
	if creatorID == editorID {
		return nil, fmt.Errorf("%w: creator cannot invite themselves", domain.ErrValidation)
	}

	exists, err := s.repo.ExistsCreatorEditor(ctx, creatorID, editorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: editor already requested", domain.ErrConflict)
	}

	m := &domain.CreatorEditorMap{
		CreatorID:   creatorID,
		EditorID:    editorID,
		EditorEmail: strings.ToLower(strings.TrimSpace(editorEmail)),
		Status:      domain.MapPending,
	}
	if err := s.repo.CreateCreatorEditor(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CreatorEditorMapService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MapStatus) (*domain.CreatorEditorMap, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}
	return s.repo.UpdateCreatorEditorStatus(ctx, id, status)
}

// AccountEditorMapService - доступ редакторов к конкретным аккаунтам создателя
type AccountEditorMapService struct {
	repo     MapRepository
	creators CreatorRepository
}

func NewAccountEditorMapService(repo MapRepository, creators CreatorRepository) *AccountEditorMapService {
	return &AccountEditorMapService{repo: repo, creators: creators}
}

func (s *AccountEditorMapService) FindAccountEditors(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.AccountEditorMap, error) {
	return s.repo.AccountEditors(ctx, creatorID, accountID)
}

func (s *AccountEditorMapService) FindAccountsByEditor(ctx context.Context, editorID string) ([]domain.AccountEditorMap, error) {
	return s.repo.AccountsByEditor(ctx, editorID)
}

// ownedAccount проверяет, что аккаунт принадлежит создателю
func (s *AccountEditorMapService) ownedAccount(ctx context.Context, creatorID string, accountID uuid.UUID) error {
	account, err := s.creators.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.CreatorID != creatorID {
		return fmt.Errorf("%w: account %s does not belong to creator %s", domain.ErrNotFound, accountID, creatorID)
	}
	return nil
}

func (s *AccountEditorMapService) Link(ctx context.Context, creatorID string, accountID uuid.UUID, editorID string) (*domain.AccountEditorMap, error) {
	if editorID == "" {
		return nil, fmt.Errorf("%w: editor id is required", domain.ErrValidation)
	}
	if err := s.ownedAccount(ctx, creatorID, accountID); err != nil {
		return nil, err
	}
	return s.repo.UpsertAccountEditor(ctx, accountID, editorID, domain.MapActive)
}

func (s *AccountEditorMapService) Unlink(ctx context.Context, creatorID string, accountID uuid.UUID, editorID string) error {
	if err := s.ownedAccount(ctx, creatorID, accountID); err != nil {
		return err
	}
	return s.repo.SetAccountEditorStatus(ctx, accountID, editorID, domain.MapInactive)
}
