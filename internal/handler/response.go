package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contribflow/internal/auth"
	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

// multipartMemory - сколько держим в памяти при разборе формы, остальное уходит во временные файлы
const multipartMemory = 32 << 20

var httpLog = logger.WithComponent("http")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		httpLog.WithError(err).Error("failed to encode response")
	}
}

// writeError переводит доменные ошибки в HTTP-статусы
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	entry := httpLog.WithError(err).WithField("path", r.URL.Path)

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUploadInitiation),
		errors.Is(err, domain.ErrChunkUpload),
		errors.Is(err, domain.ErrUploadIncomplete):
		entry.Error("upload to storage failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, domain.ErrAuthentication):
		entry.Warn("authentication failed")
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		entry.Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{domain.ErrBadRequest}, args...)...)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("invalid %s", name)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// currentUser - идентификатор пользователя из сессии
func currentUser(r *http.Request) (string, error) {
	id, ok := auth.UserFromContext(r.Context())
	if !ok || id.UserID == "" {
		return "", fmt.Errorf("%w: no user in request", domain.ErrAuthentication)
	}
	return id.UserID, nil
}

// formFile читает файл из multipart-формы целиком; отсутствие файла - nil без ошибки
func formFile(r *http.Request, field string) (*domain.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("failed to read %s", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read %s", field)
	}
	return &domain.FileUpload{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Data:     data,
	}, nil
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return badRequest("failed to parse form")
	}
	return nil
}

// requiredFile - то же, что formFile, но пустая форма считается ошибкой
func requiredFile(r *http.Request, field string) (*domain.FileUpload, error) {
	file, err := formFile(r, field)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, badRequest("no file uploaded")
	}
	return file, nil
}
