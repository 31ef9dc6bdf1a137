package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"contribflow/internal/domain"
)

// CreatorService управляет подключёнными YouTube-аккаунтами
type CreatorService struct {
	repo CreatorRepository
}

func NewCreatorService(repo CreatorRepository) *CreatorService {
	return &CreatorService{repo: repo}
}

func (s *CreatorService) List(ctx context.Context, filter domain.CreatorFilter) ([]domain.YtCreator, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *CreatorService) Get(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CreatorService) Update(ctx context.Context, id uuid.UUID, patch domain.CreatorPatch) (*domain.YtCreator, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", domain.ErrBadRequest)
	}
	if patch.Status != "" && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, patch.Status)
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete помечает аккаунт удалённым, токены остаются в базе
func (s *CreatorService) Delete(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error) {
	return s.repo.Update(ctx, id, domain.CreatorPatch{Status: domain.CreatorDeleted})
}
