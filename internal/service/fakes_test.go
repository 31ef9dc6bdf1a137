package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"contribflow/internal/domain"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/youtube"
)

type fakeStore struct {
	mu              sync.Mutex
	seq             int
	uploads         []drive.UploadInput
	uploadErr       error
	deleted         []string
	deleteErr       error
	createdFolders  []string
	createFolderErr error
	renamed         map[string]string
	folderSeq       int
	folders         map[string]string
}

func (f *fakeStore) Upload(_ context.Context, in drive.UploadInput) (*domain.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.seq++
	f.uploads = append(f.uploads, in)
	id := fmt.Sprintf("file-%d", f.seq)
	return &domain.StoredObject{URL: "https://drive.google.com/file/d/" + id + "/view", FileID: id}, nil
}

func (f *fakeStore) DeleteFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return f.deleteErr
}

func (f *fakeStore) CreateFolder(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFolderErr != nil {
		return "", f.createFolderErr
	}
	// как и Drive-клиент, не допускает двух папок с одним именем под корнем
	for _, existing := range f.folders {
		if existing == name {
			return "", fmt.Errorf("%w: folder %q already exists", domain.ErrBadRequest, name)
		}
	}
	if f.folders == nil {
		f.folders = map[string]string{}
	}
	f.folderSeq++
	id := fmt.Sprintf("folder-%d", f.folderSeq)
	f.folders[id] = name
	f.createdFolders = append(f.createdFolders, name)
	return id, nil
}

func (f *fakeStore) RenameFolder(_ context.Context, folderID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renamed == nil {
		f.renamed = map[string]string{}
	}
	f.renamed[folderID] = name
	if _, ok := f.folders[folderID]; ok {
		f.folders[folderID] = name
	}
	return nil
}

type fakeMediaRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*domain.Media
	links     []domain.FolderItem
	createErr error
	deletes   []uuid.UUID
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: map[uuid.UUID]*domain.Media{}}
}

func (r *fakeMediaRepo) Create(_ context.Context, m *domain.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	m.ID = uuid.New()
	m.CreatedAt, m.UpdatedAt = time.Now(), time.Now()
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) CreateWithFolderItem(ctx context.Context, m *domain.Media, folderID uuid.UUID) (*domain.FolderItem, error) {
	if err := r.Create(ctx, m); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item := domain.FolderItem{ID: uuid.New(), FolderID: folderID, MediaID: m.ID, Media: m}
	r.links = append(r.links, item)
	return &item, nil
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: media %s", domain.ErrNotFound, id)
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMediaRepo) List(_ context.Context, _, _ int) ([]domain.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Media, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	r.deletes = append(r.deletes, id)
	return nil
}

type fakeFolderRepo struct {
	mu        sync.Mutex
	folders   map[uuid.UUID]*domain.Folder
	items     []domain.FolderItem
	createErr error
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: map[uuid.UUID]*domain.Folder{}}
}

func (r *fakeFolderRepo) add(f domain.Folder) *domain.Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.folders[f.ID] = &f
	return &f
}

func (r *fakeFolderRepo) Create(_ context.Context, f *domain.Folder) error {
	if r.createErr != nil {
		return r.createErr
	}
	f.ID = uuid.New()
	r.add(*f)
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) FindByName(_ context.Context, accountID uuid.UUID, name string) (*domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.AccountID == accountID && f.Name == name && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) filter(keep func(*domain.Folder) bool) []domain.Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Folder, 0)
	for _, f := range r.folders {
		if f.DeletedAt == nil && keep(f) {
			out = append(out, *f)
		}
	}
	return out
}

func (r *fakeFolderRepo) ListByCreator(_ context.Context, creatorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return r.filter(func(f *domain.Folder) bool { return f.CreatorID == creatorID && f.AccountID == accountID }), nil
}

func (r *fakeFolderRepo) ListByEditor(_ context.Context, editorID string, accountID uuid.UUID) ([]domain.Folder, error) {
	return r.filter(func(f *domain.Folder) bool { return f.EditorID == editorID && f.AccountID == accountID }), nil
}

func (r *fakeFolderRepo) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Folder, error) {
	r.mu.Lock()
	if f, ok := r.folders[id]; ok {
		f.Name = name
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *fakeFolderRepo) SoftDelete(_ context.Context, id uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil || (f.CreatorID != userID && f.EditorID != userID) {
		return fmt.Errorf("%w: delete folder", domain.ErrNotFound)
	}
	now := time.Now()
	f.DeletedAt = &now
	return nil
}

func (r *fakeFolderRepo) CreateItem(_ context.Context, item *domain.FolderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.FolderID == item.FolderID && it.MediaID == item.MediaID && it.DeletedAt == nil {
			return fmt.Errorf("%w: create folder item: already exists", domain.ErrConflict)
		}
	}
	item.ID = uuid.New()
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeFolderRepo) ListItems(_ context.Context, folderID uuid.UUID) ([]domain.FolderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FolderItem, 0)
	for _, it := range r.items {
		if it.FolderID == folderID && it.DeletedAt == nil {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) ItemsByQuery(ctx context.Context, q domain.FolderItemsQuery) ([]domain.FolderItem, error) {
	for _, f := range r.filter(func(f *domain.Folder) bool {
		return f.CreatorID == q.CreatorID && f.EditorID == q.EditorID && f.AccountID == q.AccountID && f.Name == q.FolderName
	}) {
		return r.ListItems(ctx, f.ID)
	}
	return []domain.FolderItem{}, nil
}

func (r *fakeFolderRepo) GetItem(_ context.Context, folderID, mediaID uuid.UUID) (*domain.FolderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.FolderID == folderID && it.MediaID == mediaID && it.DeletedAt == nil {
			cp := it
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeFolderRepo) DeleteItem(_ context.Context, folderID, mediaID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.FolderID == folderID && it.MediaID == mediaID && it.DeletedAt == nil {
			now := time.Now()
			r.items[i].DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeContribRepo повторяет транзакционную семантику репозитория в памяти
type fakeContribRepo struct {
	mu            sync.Mutex
	contributions map[uuid.UUID]*domain.Contribute
	versions      map[uuid.UUID]*domain.ContributionVersion
	comments      []domain.VersionComment
	acceptCalls   int
	createErr     error
	versionErr    error
}

func newFakeContribRepo() *fakeContribRepo {
	return &fakeContribRepo{
		contributions: map[uuid.UUID]*domain.Contribute{},
		versions:      map[uuid.UUID]*domain.ContributionVersion{},
	}
}

func (r *fakeContribRepo) CreateWithInitialVersion(_ context.Context, in domain.NewContribution) (*domain.Contribute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	c := &domain.Contribute{
		ID:          uuid.New(),
		Status:      domain.StatusPending,
		AccountID:   in.AccountID,
		EditorID:    in.EditorID,
		VideoID:     in.VideoID,
		ThumbnailID: in.ThumbnailID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Duration:    in.Duration,
		CreatedAt:   time.Now(),
	}
	r.contributions[c.ID] = c
	v := r.insertVersion(domain.NewVersion{
		ContributeID: c.ID, VideoID: in.VideoID, ThumbnailID: in.ThumbnailID,
		Title: in.Title, Description: in.Description, Tags: in.Tags, Duration: in.Duration,
	}, 1)
	cp := *c
	cp.Versions = []domain.ContributionVersion{*v}
	return &cp, nil
}

func (r *fakeContribRepo) insertVersion(in domain.NewVersion, number int) *domain.ContributionVersion {
	v := &domain.ContributionVersion{
		ID:            uuid.New(),
		ContributeID:  in.ContributeID,
		VersionNumber: number,
		Status:        domain.StatusPending,
		Title:         in.Title,
		Description:   in.Description,
		Tags:          in.Tags,
		VideoID:       in.VideoID,
		ThumbnailID:   in.ThumbnailID,
		Duration:      in.Duration,
		CreatedAt:     time.Now(),
	}
	r.versions[v.ID] = v
	cp := *v
	return &cp
}

func (r *fakeContribRepo) CreateVersion(_ context.Context, in domain.NewVersion) (*domain.ContributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contributions[in.ContributeID]; !ok {
		return nil, domain.ErrNotFound
	}
	if r.versionErr != nil {
		return nil, r.versionErr
	}
	last := 0
	for _, v := range r.versions {
		if v.ContributeID == in.ContributeID && v.VersionNumber > last {
			last = v.VersionNumber
		}
	}
	return r.insertVersion(in, last+1), nil
}

func (r *fakeContribRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Contribute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contributions[id]
	if !ok {
		return nil, fmt.Errorf("%w: contribution %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContribRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]domain.Contribute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Contribute, 0)
	for _, c := range r.contributions {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeContribRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus) (*domain.Contribute, error) {
	r.mu.Lock()
	c, ok := r.contributions[id]
	if ok {
		c.Status = status
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeContribRepo) GetVersion(_ context.Context, id uuid.UUID) (*domain.ContributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: version %s", domain.ErrNotFound, id)
	}
	cp := *v
	return &cp, nil
}

func (r *fakeContribRepo) ListVersions(_ context.Context, contributeID uuid.UUID) ([]domain.ContributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ContributionVersion, 0)
	for _, v := range r.versions {
		if v.ContributeID == contributeID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *fakeContribRepo) AcceptVersion(_ context.Context, versionID, contributeID uuid.UUID) (*domain.ContributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptCalls++
	if r.contributions[contributeID].Status == domain.StatusCompleted {
		return nil, domain.ErrConflict
	}
	for _, v := range r.versions {
		if v.ContributeID == contributeID && v.ID != versionID && v.Status == domain.StatusPending {
			v.Status = domain.StatusRejected
		}
	}
	r.contributions[contributeID].Status = domain.StatusCompleted
	v := r.versions[versionID]
	v.Status = domain.StatusCompleted
	cp := *v
	return &cp, nil
}

func (r *fakeContribRepo) SetVersionStatus(_ context.Context, versionID uuid.UUID, status domain.ContributionStatus) (*domain.ContributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok || v.Status != domain.StatusPending {
		return nil, domain.ErrNotFound
	}
	v.Status = status
	cp := *v
	return &cp, nil
}

func (r *fakeContribRepo) AddComment(_ context.Context, c *domain.VersionComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *fakeContribRepo) ListComments(_ context.Context, versionID uuid.UUID) ([]domain.VersionComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VersionComment, 0)
	for _, c := range r.comments {
		if c.VersionID == versionID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCreators struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.YtCreator
}

func newFakeCreators() *fakeCreators {
	return &fakeCreators{items: map[uuid.UUID]*domain.YtCreator{}}
}

func (r *fakeCreators) add(c domain.YtCreator) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.items[c.ID] = &c
	return c.ID
}

func (r *fakeCreators) GetByID(_ context.Context, id uuid.UUID) (*domain.YtCreator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: creator %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCreators) List(_ context.Context, f domain.CreatorFilter) ([]domain.YtCreator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.YtCreator, 0)
	for _, c := range r.items {
		if (f.CreatorID == "" || c.CreatorID == f.CreatorID) && (f.Status == "" || c.Status == f.Status) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCreators) Update(ctx context.Context, id uuid.UUID, p domain.CreatorPatch) (*domain.YtCreator, error) {
	r.mu.Lock()
	c, ok := r.items[id]
	if ok {
		if p.Email != "" {
			c.Email = p.Email
		}
		if p.Status != "" {
			c.Status = p.Status
		}
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeCreators) UpdateTokens(_ context.Context, id uuid.UUID, at, rt string, expiry *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.AccessToken, c.RefreshToken, c.TokenExpiry = at, rt, expiry
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	result bool
	calls  []youtube.PublishRequest
}

func (p *fakePublisher) PublishAcceptedVersion(_ context.Context, req youtube.PublishRequest) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	return p.result
}

type fixedProber int64

func (p fixedProber) Duration(context.Context, *domain.FileUpload) int64 { return int64(p) }

func videoFile(name string) *domain.FileUpload {
	data := []byte("video:" + name)
	return &domain.FileUpload{Name: name, MIMEType: "video/mp4", Size: int64(len(data)), Data: data}
}

func imageFile(name string) *domain.FileUpload {
	data := []byte("image:" + name)
	return &domain.FileUpload{Name: name, MIMEType: "image/png", Size: int64(len(data)), Data: data}
}

func passthrough(f *domain.FileUpload) (*domain.FileUpload, error) { return f, nil }
