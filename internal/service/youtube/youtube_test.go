package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"contribflow/internal/domain"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/token"
)

type memCreators struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*domain.YtCreator
	updates  int
	createFn func(c *domain.YtCreator) error
}

func newMemCreators() *memCreators {
	return &memCreators{items: map[uuid.UUID]*domain.YtCreator{}}
}

func (m *memCreators) add(c domain.YtCreator) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.items[c.ID] = &c
	return c.ID
}

func (m *memCreators) GetByID(_ context.Context, id uuid.UUID) (*domain.YtCreator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: creator %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (m *memCreators) Create(_ context.Context, c *domain.YtCreator) error {
	if m.createFn != nil {
		if err := m.createFn(c); err != nil {
			return err
		}
	}
	c.ID = uuid.New()
	m.add(*c)
	return nil
}

func (m *memCreators) UpdateTokens(_ context.Context, id uuid.UUID, at, rt string, expiry *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.AccessToken, c.RefreshToken, c.TokenExpiry = at, rt, expiry
	m.updates++
	return nil
}

type memFiles map[string]string

func (m memFiles) GetFileStream(_ context.Context, id string) (*drive.FileStream, error) {
	data, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
	}
	return &drive.FileStream{Body: io.NopCloser(strings.NewReader(data)), Size: int64(len(data))}, nil
}

// typedFiles отдаёт файлы с заданным типом содержимого
type typedFiles struct {
	files       memFiles
	contentType string
}

func (f typedFiles) GetFileStream(ctx context.Context, id string) (*drive.FileStream, error) {
	stream, err := f.files.GetFileStream(ctx, id)
	if err != nil {
		return nil, err
	}
	stream.ContentType = f.contentType
	return stream, nil
}

// fakeGoogle имитирует OAuth-провайдера и YouTube API в одном сервере
type fakeGoogle struct {
	srv *httptest.Server

	mu             sync.Mutex
	tokenValid     bool
	videoID        string
	videoStatus    int
	thumbStatus    int
	uploadedBodies [][]byte
	thumbVideoIDs  []string
	authHeaders    []string
	refreshToken   string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	f := &fakeGoogle{tokenValid: true, videoID: "yt-123", videoStatus: http.StatusOK, thumbStatus: http.StatusOK, refreshToken: "rt-new"}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/token":
			values, _ := url.ParseQuery(string(body))
			resp := map[string]interface{}{"token_type": "Bearer", "expires_in": 3600}
			switch values.Get("grant_type") {
			case "authorization_code":
				resp["access_token"] = "at-" + values.Get("code")
				resp["refresh_token"] = f.refreshToken
			default:
				resp["access_token"] = "refreshed"
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/oauth2/v2/tokeninfo":
			if !f.tokenValid {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"expires_in":1800}`))
		case "/upload/youtube/v3/videos":
			f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
			f.uploadedBodies = append(f.uploadedBodies, body)
			if f.videoStatus != http.StatusOK {
				w.WriteHeader(f.videoStatus)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad video"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": f.videoID})
		case "/upload/youtube/v3/thumbnails/set":
			f.thumbVideoIDs = append(f.thumbVideoIDs, r.URL.Query().Get("videoId"))
			if f.thumbStatus != http.StatusOK {
				w.WriteHeader(f.thumbStatus)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad thumbnail"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"items":[]}`))
		case "/youtube/v3/channels":
			_, _ = w.Write([]byte(`{"items":[{"id":"UC1","snippet":{"title":"My channel","publishedAt":"2020-01-02T03:04:05Z"},"statistics":{"subscriberCount":"42","videoCount":"7","viewCount":"1000"},"contentDetails":{"relatedPlaylists":{"uploads":"UU1"}}}]}`))
		case "/oauth2/v2/userinfo":
			_, _ = w.Write([]byte(`{"email":"creator@example.com"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) manager() *token.Manager {
	return token.NewManager(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/auth",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, token.WithTokenInfoEndpoint(f.srv.URL+"/"))
}

func publishRequest(id uuid.UUID) PublishRequest {
	return PublishRequest{
		CreatorID:   id,
		VideoKey:    "video-key",
		ThumbKey:    "thumb-key",
		Title:       "Title",
		Description: "Description",
		Tags:        []string{"a", "b"},
		Privacy:     "public",
	}
}

func setupPublisher(t *testing.T) (*Publisher, *fakeGoogle, *memCreators, uuid.UUID) {
	g := newFakeGoogle(t)
	creators := newMemCreators()
	id := creators.add(domain.YtCreator{CreatorID: "creator-1", Email: "c@example.com", AccessToken: "at", RefreshToken: "rt", Status: domain.CreatorActive})
	files := memFiles{"video-key": "video-bytes", "thumb-key": "thumb-bytes"}
	return NewPublisher(creators, files, g.manager(), WithEndpoint(g.srv.URL+"/")), g, creators, id
}

func TestVideoContentType(t *testing.T) {
	assert.Equal(t, "video/quicktime", videoContentType("video/quicktime"))
	assert.Equal(t, "video/webm", videoContentType("video/webm; codecs=vp9"))
	assert.Equal(t, "video/mp4", videoContentType("application/octet-stream"))
	assert.Equal(t, "video/mp4", videoContentType(""))
}

func TestPublish_UsesStoredVideoContentType(t *testing.T) {
	g := newFakeGoogle(t)
	creators := newMemCreators()
	id := creators.add(domain.YtCreator{CreatorID: "creator-1", Email: "c@example.com", AccessToken: "at", RefreshToken: "rt", Status: domain.CreatorActive})
	files := typedFiles{files: memFiles{"video-key": "video-bytes", "thumb-key": "thumb-bytes"}, contentType: "video/quicktime"}
	p := NewPublisher(creators, files, g.manager(), WithEndpoint(g.srv.URL+"/"))

	require.True(t, p.PublishAcceptedVersion(context.Background(), publishRequest(id)))

	require.Len(t, g.uploadedBodies, 1)
	assert.Contains(t, string(g.uploadedBodies[0]), "Content-Type: video/quicktime")
	assert.NotContains(t, string(g.uploadedBodies[0]), "video/mp4")
}

func TestPublish_Success(t *testing.T) {
	p, g, creators, id := setupPublisher(t)

	ok := p.PublishAcceptedVersion(context.Background(), publishRequest(id))
	require.True(t, ok)

	require.Len(t, g.uploadedBodies, 1)
	body := string(g.uploadedBodies[0])
	assert.Contains(t, body, `"title":"Title"`)
	assert.Contains(t, body, `"categoryId":"22"`)
	assert.Contains(t, body, `"privacyStatus":"public"`)
	assert.Contains(t, body, `"selfDeclaredMadeForKids":false`)
	assert.Contains(t, body, "video-bytes")
	assert.Equal(t, []string{"Bearer at"}, g.authHeaders)
	assert.Equal(t, []string{"yt-123"}, g.thumbVideoIDs)

	stored, err := creators.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, stored.TokenExpiry)
	assert.Equal(t, 1, creators.updates)
}

func TestPublish_RefreshesInvalidToken(t *testing.T) {
	p, g, creators, id := setupPublisher(t)
	g.tokenValid = false

	require.True(t, p.PublishAcceptedVersion(context.Background(), publishRequest(id)))

	assert.Equal(t, []string{"Bearer refreshed"}, g.authHeaders)
	stored, _ := creators.GetByID(context.Background(), id)
	assert.Equal(t, "refreshed", stored.AccessToken)
	assert.Equal(t, "rt", stored.RefreshToken)
}

func TestPublish_UnknownCreator(t *testing.T) {
	p, g, _, _ := setupPublisher(t)

	assert.False(t, p.PublishAcceptedVersion(context.Background(), publishRequest(uuid.New())))
	assert.Empty(t, g.uploadedBodies)
}

func TestPublish_MissingVideoFile(t *testing.T) {
	p, g, _, id := setupPublisher(t)
	req := publishRequest(id)
	req.VideoKey = "nope"

	assert.False(t, p.PublishAcceptedVersion(context.Background(), req))
	assert.Empty(t, g.uploadedBodies)
}

func TestPublish_VideoRejected(t *testing.T) {
	p, g, _, id := setupPublisher(t)
	g.videoStatus = http.StatusBadRequest

	assert.False(t, p.PublishAcceptedVersion(context.Background(), publishRequest(id)))
	assert.Empty(t, g.thumbVideoIDs)
}

func TestPublish_EmptyVideoID(t *testing.T) {
	p, g, _, id := setupPublisher(t)
	g.videoID = ""

	assert.False(t, p.PublishAcceptedVersion(context.Background(), publishRequest(id)))
	assert.Empty(t, g.thumbVideoIDs)
}

func TestPublish_ThumbnailRejected(t *testing.T) {
	p, g, _, id := setupPublisher(t)
	g.thumbStatus = http.StatusBadRequest

	assert.False(t, p.PublishAcceptedVersion(context.Background(), publishRequest(id)))
}

func TestConnector_AuthURL(t *testing.T) {
	g := newFakeGoogle(t)
	c := NewConnector(newMemCreators(), g.manager())

	u, err := c.AuthURL("creator-1")
	require.NoError(t, err)
	assert.Contains(t, u, "state=creator-1")
	assert.Contains(t, u, "access_type=offline")

	_, err = c.AuthURL(" ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConnector_HandleCallback(t *testing.T) {
	g := newFakeGoogle(t)
	creators := newMemCreators()
	c := NewConnector(creators, g.manager(), WithEndpoint(g.srv.URL+"/"))

	creator, err := c.HandleCallback(context.Background(), "code1", "creator-1")
	require.NoError(t, err)

	assert.Equal(t, "creator@example.com", creator.Email)
	assert.Equal(t, "at-code1", creator.AccessToken)
	assert.Equal(t, "rt-new", creator.RefreshToken)
	assert.Equal(t, domain.CreatorActive, creator.Status)
	assert.NotNil(t, creator.TokenExpiry)
	assert.Len(t, creators.items, 1)
}

func TestConnector_HandleCallback_NoRefreshToken(t *testing.T) {
	g := newFakeGoogle(t)
	g.refreshToken = ""
	creators := newMemCreators()
	c := NewConnector(creators, g.manager(), WithEndpoint(g.srv.URL+"/"))

	_, err := c.HandleCallback(context.Background(), "code1", "creator-1")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Empty(t, creators.items)
}

func TestConnector_HandleCallback_Duplicate(t *testing.T) {
	g := newFakeGoogle(t)
	creators := newMemCreators()
	creators.createFn = func(*domain.YtCreator) error {
		return fmt.Errorf("%w: account already connected", domain.ErrConflict)
	}
	c := NewConnector(creators, g.manager(), WithEndpoint(g.srv.URL+"/"))

	_, err := c.HandleCallback(context.Background(), "code1", "creator-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConnector_ChannelInfo(t *testing.T) {
	g := newFakeGoogle(t)
	creators := newMemCreators()
	id := creators.add(domain.YtCreator{CreatorID: "creator-1", AccessToken: "at", RefreshToken: "rt", Status: domain.CreatorActive})
	c := NewConnector(creators, g.manager(), WithEndpoint(g.srv.URL+"/"))

	info, err := c.ChannelInfo(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "UC1", info.ID)
	assert.Equal(t, "My channel", info.Title)
	assert.Equal(t, uint64(42), info.SubscriberCount)
	assert.Equal(t, "UU1", info.UploadsPlaylist)
	assert.Equal(t, 2020, info.PublishedAt.Year())
}
