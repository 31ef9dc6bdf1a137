package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contribflow/internal/domain"
)

const creatorColumns = `id, creator_id, email, access_token, refresh_token, token_expiry, status, created_at, updated_at`

// CreatorRepository хранит подключённые YouTube-аккаунты создателей
type CreatorRepository struct {
	db *sqlx.DB
}

func NewCreatorRepository(db *sqlx.DB) *CreatorRepository {
	return &CreatorRepository{db: db}
}

func (r *CreatorRepository) Create(ctx context.Context, creator *domain.YtCreator) error {
	if creator.Status == "" {
		creator.Status = domain.CreatorActive
	}
	err := r.db.QueryRowxContext(ctx, `
        INSERT INTO yt_creators (creator_id, email, access_token, refresh_token, token_expiry, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`,
		creator.CreatorID,
		creator.Email,
		creator.AccessToken,
		creator.RefreshToken,
		creator.TokenExpiry,
		creator.Status,
	).Scan(&creator.ID, &creator.CreatedAt, &creator.UpdatedAt)
	return wrapErr(err, "create yt creator")
}

func (r *CreatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error) {
	var creator domain.YtCreator
	err := r.db.GetContext(ctx, &creator, `SELECT `+creatorColumns+` FROM yt_creators WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err, "get yt creator")
	}
	return &creator, nil
}

// List фильтрует по непустым полям фильтра
func (r *CreatorRepository) List(ctx context.Context, filter domain.CreatorFilter) ([]domain.YtCreator, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ID != nil {
		add("id", *filter.ID)
	}
	if filter.CreatorID != "" {
		add("creator_id", filter.CreatorID)
	}
	if filter.Email != "" {
		add("email", filter.Email)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	query := `SELECT ` + creatorColumns + ` FROM yt_creators`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	creators := make([]domain.YtCreator, 0)
	if err := r.db.SelectContext(ctx, &creators, query, args...); err != nil {
		return nil, wrapErr(err, "list yt creators")
	}
	return creators, nil
}

// Update перезаписывает только непустые поля патча
func (r *CreatorRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CreatorPatch) (*domain.YtCreator, error) {
	var creator domain.YtCreator
	err := r.db.GetContext(ctx, &creator, `
        UPDATE yt_creators SET
            creator_id    = COALESCE(NULLIF($1, ''), creator_id),
            email         = COALESCE(NULLIF($2, ''), email),
            access_token  = COALESCE(NULLIF($3, ''), access_token),
            refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
            status        = COALESCE(NULLIF($5, ''), status),
            updated_at    = CURRENT_TIMESTAMP
        WHERE id = $6
        RETURNING `+creatorColumns,
		patch.CreatorID, patch.Email, patch.AccessToken, patch.RefreshToken, string(patch.Status), id)
	if err != nil {
		return nil, wrapErr(err, "update yt creator")
	}
	return &creator, nil
}

func (r *CreatorRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE yt_creators
        SET access_token = $1, refresh_token = $2, token_expiry = $3, updated_at = CURRENT_TIMESTAMP
        WHERE id = $4`, accessToken, refreshToken, expiry, id)
	if err != nil {
		return wrapErr(err, "update yt creator tokens")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: yt creator %s", domain.ErrNotFound, id)
	}
	return nil
}
