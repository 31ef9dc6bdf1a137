package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"contribflow/internal/logger"
)

// ContextTokenSource - источник токена, который сам обновляет и сохраняет его
type ContextTokenSource interface {
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// TokenRefreshJob заранее обновляет токен Drive, чтобы загрузки не ждали обмена refresh-токена
type TokenRefreshJob struct {
	source  ContextTokenSource
	timeout time.Duration
	log     *logrus.Entry
}

func NewTokenRefreshJob(source ContextTokenSource) *TokenRefreshJob {
	return &TokenRefreshJob{
		source:  source,
		timeout: 30 * time.Second,
		log:     logger.WithComponent("cron"),
	}
}

func (j *TokenRefreshJob) Name() string { return "drive-token-refresh" }

func (j *TokenRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tok, err := j.source.TokenContext(ctx)
	if err != nil {
		j.log.WithError(err).Warn("failed to refresh drive token")
		return
	}
	j.log.WithField("expiry", tok.Expiry).Debug("drive token is valid")
}
