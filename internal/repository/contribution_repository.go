package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"contribflow/internal/domain"
)

const (
	contributionColumns = `id, status, account_id, editor_id, video_id, thumbnail_id, title, description, tags, duration, created_at, updated_at`
	versionColumns      = `id, contribute_id, version_number, status, title, description, tags, video_id, thumbnail_id, duration, created_at, updated_at`
	commentColumns      = `id, version_id, author_id, content, created_at, updated_at`
)

type ContributionRepository struct {
	db *sqlx.DB
}

func NewContributionRepository(db *sqlx.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// CreateWithInitialVersion создаёт вклад и его первую версию в одной транзакции
func (r *ContributionRepository) CreateWithInitialVersion(ctx context.Context, in domain.NewContribution) (*domain.Contribute, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	var contribution domain.Contribute
	err = tx.GetContext(ctx, &contribution, `
        INSERT INTO contributions (status, account_id, editor_id, video_id, thumbnail_id, title, description, tags, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+contributionColumns,
		domain.StatusPending,
		in.AccountID,
		in.EditorID,
		in.VideoID,
		in.ThumbnailID,
		in.Title,
		in.Description,
		pq.StringArray(in.Tags),
		in.Duration,
	)
	if err != nil {
		return nil, wrapErr(err, "create contribution")
	}

	version, err := insertVersion(ctx, tx, domain.NewVersion{
		ContributeID: contribution.ID,
		VideoID:      in.VideoID,
		ThumbnailID:  in.ThumbnailID,
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
		Duration:     in.Duration,
	}, 1)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err, "commit contribution")
	}

	contribution.Versions = []domain.ContributionVersion{*version}
	return &contribution, nil
}

func insertVersion(ctx context.Context, tx *sqlx.Tx, in domain.NewVersion, number int) (*domain.ContributionVersion, error) {
	var version domain.ContributionVersion
	err := tx.GetContext(ctx, &version, `
        INSERT INTO contribution_versions
            (contribute_id, version_number, status, title, description, tags, video_id, thumbnail_id, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+versionColumns,
		in.ContributeID,
		number,
		domain.StatusPending,
		in.Title,
		in.Description,
		pq.StringArray(in.Tags),
		in.VideoID,
		in.ThumbnailID,
		in.Duration,
	)
	if err != nil {
		return nil, wrapErr(err, "create version")
	}
	return &version, nil
}

// CreateVersion добавляет версию с номером max+1. Строка вклада блокируется,
// поэтому параллельные вызовы получают последовательные номера
func (r *ContributionRepository) CreateVersion(ctx context.Context, in domain.NewVersion) (*domain.ContributionVersion, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	var locked uuid.UUID
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM contributions WHERE id = $1 FOR UPDATE`, in.ContributeID); err != nil {
		return nil, wrapErr(err, "lock contribution")
	}

	var next int
	err = tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM contribution_versions WHERE contribute_id = $1`, in.ContributeID)
	if err != nil {
		return nil, wrapErr(err, "compute version number")
	}

	version, err := insertVersion(ctx, tx, in, next)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err, "commit version")
	}
	return version, nil
}

func (r *ContributionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contribute, error) {
	var contribution domain.Contribute
	err := r.db.GetContext(ctx, &contribution, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err, "get contribution")
	}
	return &contribution, nil
}

func (r *ContributionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Contribute, error) {
	contributions := make([]domain.Contribute, 0)
	err := r.db.SelectContext(ctx, &contributions,
		`SELECT `+contributionColumns+` FROM contributions WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, wrapErr(err, "list contributions")
	}
	return contributions, nil
}

func (r *ContributionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus) (*domain.Contribute, error) {
	var contribution domain.Contribute
	err := r.db.GetContext(ctx, &contribution, `
        UPDATE contributions SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
        RETURNING `+contributionColumns, status, id)
	if err != nil {
		return nil, wrapErr(err, "update contribution status")
	}
	return &contribution, nil
}

func (r *ContributionRepository) GetVersion(ctx context.Context, id uuid.UUID) (*domain.ContributionVersion, error) {
	var version domain.ContributionVersion
	err := r.db.GetContext(ctx, &version, `SELECT `+versionColumns+` FROM contribution_versions WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err, "get version")
	}
	return &version, nil
}

func (r *ContributionRepository) ListVersions(ctx context.Context, contributeID uuid.UUID) ([]domain.ContributionVersion, error) {
	versions := make([]domain.ContributionVersion, 0)
	err := r.db.SelectContext(ctx, &versions, `
        SELECT `+versionColumns+` FROM contribution_versions
        WHERE contribute_id = $1
        ORDER BY version_number DESC`, contributeID)
	if err != nil {
		return nil, wrapErr(err, "list versions")
	}
	return versions, nil
}

// AcceptVersion отклоняет ожидающие соседние версии, завершает вклад и принимает версию.
// Всё в одной транзакции; строка вклада блокируется, у вклада не бывает двух принятых версий
func (r *ContributionRepository) AcceptVersion(ctx context.Context, versionID, contributeID uuid.UUID) (*domain.ContributionVersion, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "begin transaction")
	}
	defer tx.Rollback()

	var current domain.ContributionStatus
	if err := tx.GetContext(ctx, &current, `SELECT status FROM contributions WHERE id = $1 FOR UPDATE`, contributeID); err != nil {
		return nil, wrapErr(err, "lock contribution")
	}
	if current == domain.StatusCompleted {
		return nil, fmt.Errorf("%w: contribution %s is already completed", domain.ErrConflict, contributeID)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE contribution_versions
        SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE contribute_id = $2 AND id <> $3 AND status = $4`,
		domain.StatusRejected, contributeID, versionID, domain.StatusPending)
	if err != nil {
		return nil, wrapErr(err, "reject sibling versions")
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE contributions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		domain.StatusCompleted, contributeID)
	if err != nil {
		return nil, wrapErr(err, "complete contribution")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, wrapErr(sql.ErrNoRows, "complete contribution")
	}

	var version domain.ContributionVersion
	err = tx.GetContext(ctx, &version, `
        UPDATE contribution_versions SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2 AND status = $3
        RETURNING `+versionColumns, domain.StatusCompleted, versionID, domain.StatusPending)
	if err != nil {
		return nil, wrapErr(err, "accept version")
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err, "commit acceptance")
	}
	return &version, nil
}

// SetVersionStatus меняет статус только ожидающей версии
func (r *ContributionRepository) SetVersionStatus(ctx context.Context, versionID uuid.UUID, status domain.ContributionStatus) (*domain.ContributionVersion, error) {
	var version domain.ContributionVersion
	err := r.db.GetContext(ctx, &version, `
        UPDATE contribution_versions SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2 AND status = $3
        RETURNING `+versionColumns, status, versionID, domain.StatusPending)
	if err != nil {
		return nil, wrapErr(err, "update version status")
	}
	return &version, nil
}

func (r *ContributionRepository) AddComment(ctx context.Context, comment *domain.VersionComment) error {
	err := r.db.QueryRowxContext(ctx, `
        INSERT INTO version_comments (version_id, author_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`,
		comment.VersionID, comment.AuthorID, comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	return wrapErr(err, "create comment")
}

func (r *ContributionRepository) ListComments(ctx context.Context, versionID uuid.UUID) ([]domain.VersionComment, error) {
	comments := make([]domain.VersionComment, 0)
	err := r.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM version_comments WHERE version_id = $1 ORDER BY created_at ASC`, versionID)
	if err != nil {
		return nil, wrapErr(err, "list comments")
	}
	return comments, nil
}
