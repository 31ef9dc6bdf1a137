package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contribflow/internal/domain"
)

const (
	creatorEditorColumns = `id, creator_id, editor_id, editor_email, status, created_at, updated_at`
	accountEditorColumns = `id, account_id, editor_id, status, created_at, updated_at`
)

// MapRepository хранит связи создатель-редактор и аккаунт-редактор
type MapRepository struct {
	db *sqlx.DB
}

func NewMapRepository(db *sqlx.DB) *MapRepository {
	return &MapRepository{db: db}
}

func (r *MapRepository) CreateCreatorEditor(ctx context.Context, m *domain.CreatorEditorMap) error {
	err := r.db.QueryRowxContext(ctx, `
        INSERT INTO creator_editor_maps (creator_id, editor_id, editor_email, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`,
		m.CreatorID, m.EditorID, m.EditorEmail, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return wrapErr(err, "create creator editor map")
}

// FindCreatorEditor - связь по создателю и email редактора; nil, если нет
func (r *MapRepository) FindCreatorEditor(ctx context.Context, creatorID, editorEmail string) (*domain.CreatorEditorMap, error) {
	var m domain.CreatorEditorMap
	err := r.db.GetContext(ctx, &m, `
        SELECT `+creatorEditorColumns+` FROM creator_editor_maps
        WHERE creator_id = $1 AND editor_email = $2`, creatorID, editorEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "find creator editor map")
	}
	return &m, nil
}

func (r *MapRepository) ExistsCreatorEditor(ctx context.Context, creatorID, editorID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM creator_editor_maps WHERE creator_id = $1 AND editor_id = $2)`, creatorID, editorID)
	if err != nil {
		return false, wrapErr(err, "check creator editor map")
	}
	return exists, nil
}

func (r *MapRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.CreatorEditorMap, error) {
	maps := make([]domain.CreatorEditorMap, 0)
	err := r.db.SelectContext(ctx, &maps, `
        SELECT `+creatorEditorColumns+` FROM creator_editor_maps
        WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, wrapErr(err, "list creator editor maps")
	}
	return maps, nil
}

func (r *MapRepository) ListByEditor(ctx context.Context, editorID string) ([]domain.CreatorEditorMap, error) {
	maps := make([]domain.CreatorEditorMap, 0)
	err := r.db.SelectContext(ctx, &maps, `
        SELECT `+creatorEditorColumns+` FROM creator_editor_maps
        WHERE editor_id = $1 ORDER BY created_at DESC`, editorID)
	if err != nil {
		return nil, wrapErr(err, "list creator editor maps")
	}
	return maps, nil
}

func (r *MapRepository) UpdateCreatorEditorStatus(ctx context.Context, id uuid.UUID, status domain.MapStatus) (*domain.CreatorEditorMap, error) {
	var m domain.CreatorEditorMap
	err := r.db.GetContext(ctx, &m, `
        UPDATE creator_editor_maps SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
        RETURNING `+creatorEditorColumns, status, id)
	if err != nil {
		return nil, wrapErr(err, "update creator editor map")
	}
	return &m, nil
}

// UpsertAccountEditor создаёт связь или меняет статус существующей
func (r *MapRepository) UpsertAccountEditor(ctx context.Context, accountID uuid.UUID, editorID string, status domain.MapStatus) (*domain.AccountEditorMap, error) {
	var m domain.AccountEditorMap
	err := r.db.GetContext(ctx, &m, `
        INSERT INTO account_editor_maps (account_id, editor_id, status)
        VALUES ($1, $2, $3)
        ON CONFLICT (account_id, editor_id)
        DO UPDATE SET status = EXCLUDED.status, updated_at = CURRENT_TIMESTAMP
        RETURNING `+accountEditorColumns, accountID, editorID, status)
	if err != nil {
		return nil, wrapErr(err, "upsert account editor map")
	}
	return &m, nil
}

func (r *MapRepository) SetAccountEditorStatus(ctx context.Context, accountID uuid.UUID, editorID string, status domain.MapStatus) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE account_editor_maps SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE account_id = $2 AND editor_id = $3`, status, accountID, editorID)
	if err != nil {
		return wrapErr(err, "update account editor map")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrapErr(sql.ErrNoRows, "update account editor map")
	}
	return nil
}

// AccountEditors - редакторы аккаунта, принадлежащего создателю
func (r *MapRepository) AccountEditors(ctx context.Context, creatorID string, accountID uuid.UUID) ([]domain.AccountEditorMap, error) {
	maps := make([]domain.AccountEditorMap, 0)
	err := r.db.SelectContext(ctx, &maps, `
        SELECT aem.id, aem.account_id, aem.editor_id, aem.status, aem.created_at, aem.updated_at
        FROM account_editor_maps aem
        JOIN yt_creators yc ON yc.id = aem.account_id
        WHERE yc.creator_id = $1 AND aem.account_id = $2
        ORDER BY aem.created_at DESC`, creatorID, accountID)
	if err != nil {
		return nil, wrapErr(err, "list account editors")
	}
	return maps, nil
}

type accountEditorRow struct {
	domain.AccountEditorMap
	CreatorID     string                 `db:"creator_id"`
	Email         string                 `db:"email"`
	AccountStatus domain.YtCreatorStatus `db:"account_status"`
}

func (row accountEditorRow) toDomain() domain.AccountEditorMap {
	m := row.AccountEditorMap
	m.Account = &domain.YtCreator{
		ID:        row.AccountID,
		CreatorID: row.CreatorID,
		Email:     row.Email,
		Status:    row.AccountStatus,
	}
	return m
}

// AccountsByEditor - активные связи редактора вместе с аккаунтами (без токенов)
func (r *MapRepository) AccountsByEditor(ctx context.Context, editorID string) ([]domain.AccountEditorMap, error) {
	var rows []accountEditorRow
	err := r.db.SelectContext(ctx, &rows, `
        SELECT aem.id, aem.account_id, aem.editor_id, aem.status, aem.created_at, aem.updated_at,
               yc.creator_id, yc.email, yc.status AS account_status
        FROM account_editor_maps aem
        JOIN yt_creators yc ON yc.id = aem.account_id
        WHERE aem.editor_id = $1 AND aem.status = $2
        ORDER BY aem.created_at DESC`, editorID, domain.MapActive)
	if err != nil {
		return nil, wrapErr(err, "list editor accounts")
	}
	maps := make([]domain.AccountEditorMap, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, row.toDomain())
	}
	return maps, nil
}
