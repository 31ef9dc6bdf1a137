package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contribflow/internal/domain"
)

type FolderHandler struct {
	folders FolderService
}

type createFolderItemRequest struct {
	FolderID uuid.UUID `json:"folder_id"`
	MediaID  uuid.UUID `json:"media_id"`
}

func NewFolderHandler(folders FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

func (h *FolderHandler) create(w http.ResponseWriter, r *http.Request, fill func(*domain.CreateFolderInput, string)) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in domain.CreateFolderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	fill(&in, userID)

	folder, err := h.folders.CreateFolder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// CreateFolder - создатель и редактор передаются в теле
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, func(*domain.CreateFolderInput, string) {})
}

func (h *FolderHandler) CreateByCreator(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, func(in *domain.CreateFolderInput, userID string) { in.CreatorID = userID })
}

func (h *FolderHandler) CreateByEditor(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, func(in *domain.CreateFolderInput, userID string) { in.EditorID = userID })
}

func (h *FolderHandler) listFor(w http.ResponseWriter, r *http.Request, list func(userID string, accountID uuid.UUID) ([]domain.Folder, error)) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := uuidParam(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	folders, err := list(userID, accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) ByCreator(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, func(userID string, accountID uuid.UUID) ([]domain.Folder, error) {
		return h.folders.ByCreator(r.Context(), userID, accountID)
	})
}

func (h *FolderHandler) ByEditor(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, func(userID string, accountID uuid.UUID) ([]domain.Folder, error) {
		return h.folders.ByEditor(r.Context(), userID, accountID)
	})
}

// GetItemsByQuery ищет элементы папки по создателю, редактору, аккаунту и имени
func (h *FolderHandler) GetItemsByQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	accountID, err := uuid.Parse(query.Get("accountId"))
	if err != nil {
		writeError(w, r, badRequest("invalid accountId"))
		return
	}

	items, err := h.folders.GetFolderItems(r.Context(), domain.FolderItemsQuery{
		CreatorID:  query.Get("creatorId"),
		EditorID:   query.Get("editorId"),
		AccountID:  accountID,
		FolderName: query.Get("folderName"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "folderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := h.folders.GetFolder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "folderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.UpdateFolderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := h.folders.UpdateFolder(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := uuidParam(r, "folderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.folders.DeleteFolder(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createFolderItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.folders.CreateFolderItem(r.Context(), req.FolderID, req.MediaID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *FolderHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	folderID, err := uuidParam(r, "folderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.folders.ListFolderItems(r.Context(), folderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func folderItemParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	folderID, err := uuidParam(r, "folderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	mediaID, err := uuid.Parse(chi.URLParam(r, "mediaId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, badRequest("invalid mediaId")
	}
	return folderID, mediaID, nil
}

func (h *FolderHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	folderID, mediaID, err := folderItemParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.folders.GetFolderItem(r.Context(), folderID, mediaID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *FolderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	folderID, mediaID, err := folderItemParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.folders.DeleteFolderItem(r.Context(), folderID, mediaID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
