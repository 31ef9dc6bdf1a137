package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contribflow/internal/domain"
)

const folderColumns = `id, folder_id, name, creator_id, editor_id, account_id, created_at, updated_at, deleted_at`

type FolderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	query := `
        INSERT INTO folders (folder_id, name, creator_id, editor_id, account_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		folder.FolderID,
		folder.Name,
		folder.CreatorID,
		folder.EditorID,
		folder.AccountID,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	return wrapErr(err, "create folder")
}

func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Folder, error) {
	var folder domain.Folder
	err := r.db.GetContext(ctx, &folder,
		`SELECT `+folderColumns+` FROM folders WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, wrapErr(err, "get folder")
	}
	return &folder, nil
}

// FindByName ищет живую папку аккаунта по имени; nil, если такой нет
func (r *FolderRepository) FindByName(ctx context.Context, accountID uuid.UUID, name string) (*domain.Folder, error) {
	var folder domain.Folder
	err := r.db.GetContext(ctx, &folder,
		`SELECT `+folderColumns+` FROM folders WHERE account_id = $1 AND name = $2 AND deleted_at IS NULL`,
		accountID, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "find folder")
	}
	return &folder, nil
}

func (r *FolderRepository) ListByCreator(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return r.list(ctx, `creator_id = $1 AND account_id = $2`, creatorID, accountID)
}

func (r *FolderRepository) ListByEditor(ctx context.Context, editorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return r.list(ctx, `editor_id = $1 AND account_id = $2`, editorID, accountID)
}

func (r *FolderRepository) list(ctx context.Context, where string, args ...interface{}) ([]domain.Folder, error) {
	folders := make([]domain.Folder, 0)
	query := `SELECT ` + folderColumns + ` FROM folders WHERE ` + where + ` AND deleted_at IS NULL ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &folders, query, args...); err != nil {
		return nil, wrapErr(err, "list folders")
	}
	return folders, nil
}

func (r *FolderRepository) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Folder, error) {
	var folder domain.Folder
	err := r.db.GetContext(ctx, &folder, `
        UPDATE folders
        SET name = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2 AND deleted_at IS NULL
        RETURNING `+folderColumns, name, id)
	if err != nil {
		return nil, wrapErr(err, "rename folder")
	}
	return &folder, nil
}

// SoftDelete помечает папку удалённой, если пользователь её создатель или редактор
func (r *FolderRepository) SoftDelete(ctx context.Context, id uuid.UUID, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE folders
        SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1 AND deleted_at IS NULL AND (creator_id = $2 OR editor_id = $2)`, id, userID)
	if err != nil {
		return wrapErr(err, "delete folder")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrapErr(sql.ErrNoRows, "delete folder")
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE folder_items
        SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE folder_id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return wrapErr(err, "delete folder items")
	}

	return wrapErr(tx.Commit(), "commit folder delete")
}

// Элементы папок

func insertFolderItem(ctx context.Context, q sqlx.QueryerContext, item *domain.FolderItem) error {
	query := `
        INSERT INTO folder_items (folder_id, media_id)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	err := q.QueryRowxContext(ctx, query, item.FolderID, item.MediaID).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return wrapErr(err, "create folder item")
}

func (r *FolderRepository) CreateItem(ctx context.Context, item *domain.FolderItem) error {
	return insertFolderItem(ctx, r.db, item)
}

type folderItemRow struct {
	domain.FolderItem
	MediaType      domain.MediaType `db:"media_type"`
	IntegrationURL *string          `db:"integration_url"`
	IntegrationKey *string          `db:"integration_key"`
	MediaCreatedAt sql.NullTime     `db:"media_created_at"`
	MediaUpdatedAt sql.NullTime     `db:"media_updated_at"`
}

// toDomain - единственное место, где строка join-а превращается в элемент с медиа
func (row folderItemRow) toDomain() domain.FolderItem {
	item := row.FolderItem
	item.Media = &domain.Media{
		ID:             row.MediaID,
		Type:           row.MediaType,
		IntegrationURL: row.IntegrationURL,
		IntegrationKey: row.IntegrationKey,
		CreatedAt:      row.MediaCreatedAt.Time,
		UpdatedAt:      row.MediaUpdatedAt.Time,
	}
	return item
}

const folderItemSelect = `
        SELECT fi.id, fi.folder_id, fi.media_id, fi.created_at, fi.updated_at, fi.deleted_at,
               m.type AS media_type, m.integration_url, m.integration_key,
               m.created_at AS media_created_at, m.updated_at AS media_updated_at
        FROM folder_items fi
        JOIN media m ON m.id = fi.media_id`

func (r *FolderRepository) selectItems(ctx context.Context, query string, args ...interface{}) ([]domain.FolderItem, error) {
	var rows []folderItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "list folder items")
	}
	items := make([]domain.FolderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (r *FolderRepository) ListItems(ctx context.Context, folderID uuid.UUID) ([]domain.FolderItem, error) {
	return r.selectItems(ctx, folderItemSelect+`
        WHERE fi.folder_id = $1 AND fi.deleted_at IS NULL
        ORDER BY fi.created_at DESC`, folderID)
}

// ItemsByQuery - элементы папки, найденной по имени в аккаунте создателя и редактора
func (r *FolderRepository) ItemsByQuery(ctx context.Context, q domain.FolderItemsQuery) ([]domain.FolderItem, error) {
	return r.selectItems(ctx, folderItemSelect+`
        JOIN folders f ON f.id = fi.folder_id
        WHERE f.creator_id = $1 AND f.editor_id = $2 AND f.account_id = $3 AND f.name = $4
          AND f.deleted_at IS NULL AND fi.deleted_at IS NULL
        ORDER BY fi.created_at DESC`, q.CreatorID, q.EditorID, q.AccountID, q.FolderName)
}

func (r *FolderRepository) GetItem(ctx context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error) {
	var row folderItemRow
	err := r.db.GetContext(ctx, &row, folderItemSelect+`
        WHERE fi.folder_id = $1 AND fi.media_id = $2 AND fi.deleted_at IS NULL`, folderID, mediaID)
	if err != nil {
		return nil, wrapErr(err, "get folder item")
	}
	item := row.toDomain()
	return &item, nil
}

func (r *FolderRepository) DeleteItem(ctx context.Context, folderID, mediaID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE folder_items
        SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE folder_id = $1 AND media_id = $2 AND deleted_at IS NULL`, folderID, mediaID)
	if err != nil {
		return wrapErr(err, "delete folder item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrapErr(sql.ErrNoRows, "delete folder item")
	}
	return nil
}
