package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"contribflow/internal/domain"
	"contribflow/internal/service/drive"
	s3storage "contribflow/internal/service/s3"
)

// DriveHandler - прямой доступ к Drive: загрузка, папки и подключение учётной записи хранилища
type DriveHandler struct {
	store DriveStorage
	authz DriveAuthorizer
}

func NewDriveHandler(store DriveStorage, authz DriveAuthorizer) *DriveHandler {
	return &DriveHandler{store: store, authz: authz}
}

func (h *DriveHandler) upload(w http.ResponseWriter, r *http.Request, accept func(*domain.FileUpload) bool, kind string) {
	if err := parseMultipart(r); err != nil {
		writeError(w, r, err)
		return
	}
	file, err := requiredFile(r, "file")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !accept(file) {
		writeError(w, r, badRequest("invalid file type, only %s files are allowed", kind))
		return
	}

	obj, err := h.store.Upload(r.Context(), drive.UploadInput{
		Data:       file.Data,
		MimeType:   file.MIMEType,
		FolderName: r.FormValue("folderName"),
		SubPath:    r.FormValue("folder"),
		FileName:   r.FormValue("fileName"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (h *DriveHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, (*domain.FileUpload).IsImage, "image")
}

func (h *DriveHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, (*domain.FileUpload).IsVideo, "video")
}

func (h *DriveHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "folderName")
	id, err := h.store.CreateFolder(r.Context(), name, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"folderId": id,
		"message":  "Folder created successfully",
	})
}

func (h *DriveHandler) FolderExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.store.FolderNameExists(r.Context(), chi.URLParam(r, "folderName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exists)
}

func (h *DriveHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": h.authz.AuthURL()})
}

func (h *DriveHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, r, badRequest("code is required"))
		return
	}
	if _, err := h.authz.Callback(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Authentication successful",
	})
}

// S3Handler - простое S3-хранилище
type S3Handler struct {
	storage s3storage.Storage
}

func NewS3Handler(storage s3storage.Storage) *S3Handler {
	return &S3Handler{storage: storage}
}

func (h *S3Handler) upload(w http.ResponseWriter, r *http.Request, put func(*http.Request, s3storage.UploadRequest) (*s3storage.UploadResult, error)) {
	if err := parseMultipart(r); err != nil {
		writeError(w, r, err)
		return
	}
	file, err := requiredFile(r, "file")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := put(r, s3storage.UploadRequest{
		File:     file,
		Bucket:   r.FormValue("bucketName"),
		Folder:   r.FormValue("folder"),
		FileName: r.FormValue("fileName"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *S3Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, func(r *http.Request, req s3storage.UploadRequest) (*s3storage.UploadResult, error) {
		return h.storage.UploadImage(r.Context(), req)
	})
}

func (h *S3Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, func(r *http.Request, req s3storage.UploadRequest) (*s3storage.UploadResult, error) {
		return h.storage.UploadVideo(r.Context(), req)
	})
}

func (h *S3Handler) CreateBucket(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.CreateBucket(r.Context(), chi.URLParam(r, "bucketName")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Bucket created successfully",
	})
}

func (h *S3Handler) BucketExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.storage.BucketExists(r.Context(), chi.URLParam(r, "bucketName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exists)
}
