package token

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

// StoredSource - oauth2.TokenSource для учётной записи хранилища.
// Берёт токен из Store (или начальный refresh-токен из конфигурации),
// обновляет через Manager и сохраняет обновлённый токен обратно.
type StoredSource struct {
	mu             sync.Mutex
	manager        *Manager
	store          Store
	bootstrapToken string
}

func NewStoredSource(manager *Manager, store Store, bootstrapRefreshToken string) *StoredSource {
	return &StoredSource{
		manager:        manager,
		store:          store,
		bootstrapToken: bootstrapRefreshToken,
	}
}

func (s *StoredSource) Token() (*oauth2.Token, error) {
	return s.TokenContext(context.Background())
}

func (s *StoredSource) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.store.Load(ctx)
	if err != nil {
		logger.WithComponent("token").WithError(err).Warn("failed to load stored credential, falling back to bootstrap token")
		cred = nil
	}
	if cred == nil {
		if s.bootstrapToken == "" {
			return nil, fmt.Errorf("%w: no storage credentials, authorize the storage account first", domain.ErrAuthentication)
		}
		cred = &Credential{RefreshToken: s.bootstrapToken}
	}

	valid, refreshed, err := s.manager.EnsureValid(ctx, *cred)
	if err != nil {
		return nil, err
	}

	if refreshed {
		logger.WithComponent("token").Info("storage access token refreshed")
		if err := s.store.Save(ctx, valid); err != nil {
			logger.WithComponent("token").WithError(err).Warn("failed to persist refreshed token")
		}
	}

	return valid.Token(), nil
}

// Save заменяет сохранённые учётные данные, например после consent-flow
func (s *StoredSource) Save(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save(ctx, cred)
}
