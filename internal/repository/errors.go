package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"contribflow/internal/domain"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// wrapErr сопоставляет ошибки драйвера с ошибками предметной области
func wrapErr(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, action)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s: already exists", domain.ErrConflict, action)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
