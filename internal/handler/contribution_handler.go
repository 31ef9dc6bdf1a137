package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"contribflow/internal/domain"
)

type ContributionHandler struct {
	contributions ContributionService
}

func NewContributionHandler(contributions ContributionService) *ContributionHandler {
	return &ContributionHandler{contributions: contributions}
}

type statusRequest struct {
	Status domain.ContributionStatus `json:"status"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// contributionForm разбирает общие поля вклада и версии из multipart-формы
func contributionForm(r *http.Request) (domain.ContributionInput, *domain.FileUpload, *domain.FileUpload, error) {
	if err := parseMultipart(r); err != nil {
		return domain.ContributionInput{}, nil, nil, err
	}

	video, err := formFile(r, "video")
	if err != nil {
		return domain.ContributionInput{}, nil, nil, err
	}
	thumbnail, err := formFile(r, "thumbnail")
	if err != nil {
		return domain.ContributionInput{}, nil, nil, err
	}

	in := domain.ContributionInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Tags:        domain.SplitTags(strings.Join(r.MultipartForm.Value["tags"], ",")),
	}
	return in, video, thumbnail, nil
}

func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	editorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in, video, thumbnail, err := contributionForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accountID, err := uuid.Parse(r.FormValue("accountId"))
	if err != nil {
		writeError(w, r, badRequest("invalid accountId"))
		return
	}

	contribution, err := h.contributions.CreateContribution(r.Context(), domain.CreateContributionInput{
		ContributionInput: in,
		AccountID:         accountID,
	}, video, thumbnail, editorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

func (h *ContributionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidParam(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.contributions.ListByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	contribution, err := h.contributions.GetContribution(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contribution)
}

func (h *ContributionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	contribution, err := h.contributions.UpdateContributionStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contribution)
}

func (h *ContributionHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, video, thumbnail, err := contributionForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := h.contributions.CreateVersion(r.Context(), id, in, video, thumbnail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (h *ContributionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	versions, err := h.contributions.ListVersions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// UpdateVersionStatus - принятие или отклонение версии
func (h *ContributionHandler) UpdateVersionStatus(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	version, err := h.contributions.UpdateVersionStatus(r.Context(), versionID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *ContributionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := h.contributions.GetVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *ContributionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	authorID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.contributions.AddVersionComment(r.Context(), versionID, authorID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *ContributionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	comments, err := h.contributions.ListVersionComments(r.Context(), versionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
