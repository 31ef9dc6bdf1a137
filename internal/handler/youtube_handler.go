package handler

import (
	"net/http"

	"github.com/google/uuid"

	"contribflow/internal/domain"
)

type YouTubeHandler struct {
	connector YouTubeConnector
	creators  CreatorService
}

type oauthCallbackRequest struct {
	Code      string `json:"code"`
	CreatorID string `json:"creatorId"`
}

func NewYouTubeHandler(connector YouTubeConnector, creators CreatorService) *YouTubeHandler {
	return &YouTubeHandler{connector: connector, creators: creators}
}

// AuthURL - страница согласия для текущего создателя
func (h *YouTubeHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	url, err := h.connector.AuthURL(creatorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": url})
}

// OAuthCallback принимает код либо редиректом Google (code и state в query),
// либо от фронтенда JSON-телом
func (h *YouTubeHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	req := oauthCallbackRequest{
		Code:      r.URL.Query().Get("code"),
		CreatorID: r.URL.Query().Get("state"),
	}
	if r.Method == http.MethodPost {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Code == "" || req.CreatorID == "" {
		writeError(w, r, badRequest("code and creator id are required"))
		return
	}

	creator, err := h.connector.HandleCallback(r.Context(), req.Code, req.CreatorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creator)
}

func (h *YouTubeHandler) ChannelInfo(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.connector.ChannelInfo(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *YouTubeHandler) ListCreators(w http.ResponseWriter, r *http.Request) {
	filter := domain.CreatorFilter{
		CreatorID: r.URL.Query().Get("creatorId"),
		Email:     r.URL.Query().Get("email"),
		Status:    domain.YtCreatorStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, badRequest("invalid id"))
			return
		}
		filter.ID = &id
	}

	creators, err := h.creators.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creators)
}

func (h *YouTubeHandler) UpdateCreator(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch domain.CreatorPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	creator, err := h.creators.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creator)
}

func (h *YouTubeHandler) DeleteCreator(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	creator, err := h.creators.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creator)
}
