package domain

import "errors"

// Ошибки предметной области. Сервисы оборачивают их через %w,
// обработчики сопоставляют со статусами HTTP через errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication required")
	ErrInternal       = errors.New("internal error")

	// Ошибки протокола возобновляемой загрузки
	ErrUploadInitiation = errors.New("upload initiation failed")
	ErrChunkUpload      = errors.New("chunk upload failed")
	ErrUploadIncomplete = errors.New("upload incomplete")
)
