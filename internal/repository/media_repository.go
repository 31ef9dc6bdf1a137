package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contribflow/internal/domain"
)

const mediaColumns = `id, type, integration_url, integration_key, created_at, updated_at`

type MediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func insertMedia(ctx context.Context, q sqlx.QueryerContext, media *domain.Media) error {
	query := `
        INSERT INTO media (type, integration_url, integration_key)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return q.QueryRowxContext(ctx, query, media.Type, media.IntegrationURL, media.IntegrationKey).
		Scan(&media.ID, &media.CreatedAt, &media.UpdatedAt)
}

func (r *MediaRepository) Create(ctx context.Context, media *domain.Media) error {
	return wrapErr(insertMedia(ctx, r.db, media), "create media")
}

// CreateWithFolderItem создаёт запись медиа и элемент папки в одной транзакции
func (r *MediaRepository) CreateWithFolderItem(ctx context.Context, media *domain.Media, folderID uuid.UUID) (*domain.FolderItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := insertMedia(ctx, tx, media); err != nil {
		return nil, wrapErr(err, "create media")
	}

	item := &domain.FolderItem{FolderID: folderID, MediaID: media.ID, Media: media}
	if err := insertFolderItem(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err, "commit media")
	}
	return item, nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	var media domain.Media
	err := r.db.GetContext(ctx, &media, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err, "get media")
	}
	return &media, nil
}

func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]domain.Media, error) {
	if limit <= 0 {
		limit = 50
	}
	media := make([]domain.Media, 0)
	err := r.db.SelectContext(ctx, &media,
		`SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapErr(err, "list media")
	}
	return media, nil
}

// Delete удаляет запись вместе с привязками к папкам
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM folder_items WHERE media_id = $1`, id); err != nil {
		return wrapErr(err, "delete folder items")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete media")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrapErr(sql.ErrNoRows, "delete media")
	}

	return wrapErr(tx.Commit(), "commit media delete")
}
