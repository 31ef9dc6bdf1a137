package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contribflow/internal/domain"
)

type MapHandler struct {
	creatorEditors CreatorEditorMaps
	accountEditors AccountEditorMaps
}

type requestEditorRequest struct {
	EditorEmail string `json:"editor_email"`
}

func NewMapHandler(creatorEditors CreatorEditorMaps, accountEditors AccountEditorMaps) *MapHandler {
	return &MapHandler{creatorEditors: creatorEditors, accountEditors: accountEditors}
}

func (h *MapHandler) FindMap(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.creatorEditors.FindMap(r.Context(), creatorID, chi.URLParam(r, "editorMail"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MapHandler) FindByCreator(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	maps, err := h.creatorEditors.FindByCreator(r.Context(), creatorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (h *MapHandler) FindByEditor(w http.ResponseWriter, r *http.Request) {
	editorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	maps, err := h.creatorEditors.FindByEditor(r.Context(), editorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

// RequestEditor - тело с почтой редактора необязательно
func (h *MapHandler) RequestEditor(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req requestEditorRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	m, err := h.creatorEditors.RequestEditor(r.Context(), creatorID, chi.URLParam(r, "editorId"), req.EditorEmail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MapHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "mapId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.creatorEditors.UpdateStatus(r.Context(), id, domain.MapStatus(chi.URLParam(r, "status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MapHandler) AccountsByEditor(w http.ResponseWriter, r *http.Request) {
	editorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	maps, err := h.accountEditors.FindAccountsByEditor(r.Context(), editorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (h *MapHandler) AccountEditors(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := uuidParam(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	maps, err := h.accountEditors.FindAccountEditors(r.Context(), creatorID, accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func accountEditorParams(r *http.Request) (string, uuid.UUID, string, error) {
	creatorID, err := currentUser(r)
	if err != nil {
		return "", uuid.Nil, "", err
	}
	accountID, err := uuidParam(r, "accountId")
	if err != nil {
		return "", uuid.Nil, "", err
	}
	return creatorID, accountID, chi.URLParam(r, "editorId"), nil
}

func (h *MapHandler) LinkEditor(w http.ResponseWriter, r *http.Request) {
	creatorID, accountID, editorID, err := accountEditorParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.accountEditors.Link(r.Context(), creatorID, accountID, editorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MapHandler) UnlinkEditor(w http.ResponseWriter, r *http.Request) {
	creatorID, accountID, editorID, err := accountEditorParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accountEditors.Unlink(r.Context(), creatorID, accountID, editorID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
