package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contribflow/internal/domain"
)

const (
	lockContributionQuery   = `SELECT id FROM contributions WHERE id = $1 FOR UPDATE`
	lockStatusQuery         = `SELECT status FROM contributions WHERE id = $1 FOR UPDATE`
	nextVersionQuery        = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM contribution_versions WHERE contribute_id = $1`
	insertVersionQuery      = `INSERT INTO contribution_versions`
	rejectSiblingsQuery     = `UPDATE contribution_versions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE contribute_id = $2 AND id <> $3 AND status = $4`
	completeContributionSQL = `UPDATE contributions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	acceptVersionQuery      = `UPDATE contribution_versions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
)

func newMockContributionRepo(t *testing.T) (*ContributionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewContributionRepository(sqlx.NewDb(db, "postgres")), mock
}

// sqlPattern экранирует запрос и допускает любые пробелы между словами
func sqlPattern(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func versionRow(id, contributeID uuid.UUID, number int64, status domain.ContributionStatus) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "contribute_id", "version_number", "status", "title", "description",
		"tags", "video_id", "thumbnail_id", "duration", "created_at", "updated_at",
	}).AddRow(
		id.String(), contributeID.String(), number, string(status), "cut", "desc",
		"{travel,vlog}", uuid.NewString(), uuid.NewString(), int64(42), now, now,
	)
}

func newVersionInput(contributeID uuid.UUID) domain.NewVersion {
	return domain.NewVersion{
		ContributeID: contributeID,
		VideoID:      uuid.New(),
		ThumbnailID:  uuid.New(),
		Title:        "cut",
		Description:  "desc",
		Tags:         []string{"travel", "vlog"},
		Duration:     42,
	}
}

func TestCreateVersion_LocksParentAndTakesNextNumber(t *testing.T) {
	repo, mock := newMockContributionRepo(t)
	contributeID := uuid.New()
	versionID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(lockContributionQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(contributeID.String()))
	mock.ExpectQuery(sqlPattern(nextVersionQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(insertVersionQuery)).
		WithArgs(contributeID, 3, domain.StatusPending, "cut", "desc",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(42)).
		WillReturnRows(versionRow(versionID, contributeID, 3, domain.StatusPending))
	mock.ExpectCommit()

	version, err := repo.CreateVersion(context.Background(), newVersionInput(contributeID))
	require.NoError(t, err)

	assert.Equal(t, versionID, version.ID)
	assert.Equal(t, 3, version.VersionNumber)
	assert.Equal(t, domain.StatusPending, version.Status)
	assert.Equal(t, []string{"travel", "vlog"}, []string(version.Tags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVersion_MissingParentRollsBack(t *testing.T) {
	repo, mock := newMockContributionRepo(t)
	contributeID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(lockContributionQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.CreateVersion(context.Background(), newVersionInput(contributeID))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptVersion_CompletesInOneTransaction(t *testing.T) {
	repo, mock := newMockContributionRepo(t)
	contributeID := uuid.New()
	versionID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(lockStatusQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.StatusPending)))
	mock.ExpectExec(sqlPattern(rejectSiblingsQuery)).
		WithArgs(domain.StatusRejected, contributeID, versionID, domain.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(sqlPattern(completeContributionSQL)).
		WithArgs(domain.StatusCompleted, contributeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlPattern(acceptVersionQuery)).
		WithArgs(domain.StatusCompleted, versionID, domain.StatusPending).
		WillReturnRows(versionRow(versionID, contributeID, 2, domain.StatusCompleted))
	mock.ExpectCommit()

	version, err := repo.AcceptVersion(context.Background(), versionID, contributeID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, version.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptVersion_CompletedContributionConflicts(t *testing.T) {
	repo, mock := newMockContributionRepo(t)
	contributeID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(lockStatusQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.StatusCompleted)))
	mock.ExpectRollback()

	_, err := repo.AcceptVersion(context.Background(), uuid.New(), contributeID)

	assert.ErrorIs(t, err, domain.ErrConflict)
	// ни одного UPDATE после блокировки
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptVersion_VersionNoLongerPendingRollsBack(t *testing.T) {
	repo, mock := newMockContributionRepo(t)
	contributeID := uuid.New()
	versionID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(lockStatusQuery)).
		WithArgs(contributeID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.StatusPending)))
	mock.ExpectExec(sqlPattern(rejectSiblingsQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(sqlPattern(completeContributionSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlPattern(acceptVersionQuery)).
		WithArgs(domain.StatusCompleted, versionID, domain.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.AcceptVersion(context.Background(), versionID, contributeID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
