package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"contribflow/internal/domain"
	"contribflow/internal/service"
)

const defaultMediaPageSize = 50

type MediaHandler struct {
	media MediaService
}

func NewMediaHandler(media MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload сохраняет файл; с folderId файл кладётся в папку и связывается с ней
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, r, err)
		return
	}
	file, err := requiredFile(r, "file")
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := service.MediaInput{Type: domain.MediaType(strings.ToUpper(r.FormValue("type")))}

	folderParam := r.FormValue("folderId")
	if folderParam == "" {
		media, err := h.media.SaveStandalone(r.Context(), in, file)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, media)
		return
	}

	folderID, err := uuid.Parse(folderParam)
	if err != nil {
		writeError(w, r, badRequest("invalid folderId"))
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.FolderID = &folderID

	item, err := h.media.SaveWithFolderRelation(r.Context(), in, file, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultMediaPageSize
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	list, err := h.media.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	media, err := h.media.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.media.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
