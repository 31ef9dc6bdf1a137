// Package youtube публикует принятые версии на канал создателя и
// подключает YouTube-аккаунты создателей через OAuth.
package youtube

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/token"
)

const (
	// categoryPeopleAndBlogs - категория YouTube для всех публикаций
	categoryPeopleAndBlogs  = "22"
	defaultVideoContentType = "video/mp4"
)

var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// OAuthConfig - конфигурация consent-flow для YouTube-аккаунтов создателей
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// CreatorStore - хранилище подключённых аккаунтов
type CreatorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.YtCreator, error)
	Create(ctx context.Context, creator *domain.YtCreator) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error
}

// FileSource отдаёт содержимое загруженных медиа
type FileSource interface {
	GetFileStream(ctx context.Context, fileID string) (*drive.FileStream, error)
}

type Option func(*options)

type options struct {
	endpoint string
}

// WithEndpoint переопределяет адрес YouTube API (тесты)
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func (o options) serviceOptions(client option.ClientOption) []option.ClientOption {
	opts := []option.ClientOption{client}
	if o.endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.endpoint))
	}
	return opts
}

// Publisher загружает принятую версию на канал создателя
type Publisher struct {
	creators CreatorStore
	files    FileSource
	tokens   *token.Manager
	opts     options
	log      *logrus.Entry
}

func NewPublisher(creators CreatorStore, files FileSource, tokens *token.Manager, opts ...Option) *Publisher {
	p := &Publisher{
		creators: creators,
		files:    files,
		tokens:   tokens,
		log:      logger.WithComponent("youtube-publisher"),
	}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// PublishRequest - всё, что нужно для публикации одной версии
type PublishRequest struct {
	CreatorID   uuid.UUID
	VideoKey    string
	ThumbKey    string
	Title       string
	Description string
	Tags        []string
	Privacy     string
}

// PublishAcceptedVersion загружает видео и миниатюру. Ошибки не возвращаются:
// любой сбой логируется, результат - false
func (p *Publisher) PublishAcceptedVersion(ctx context.Context, req PublishRequest) bool {
	log := p.log.WithFields(logrus.Fields{"creator": req.CreatorID, "video_key": req.VideoKey})

	client, err := authorizedClient(ctx, p.creators, p.tokens, req.CreatorID)
	if err != nil {
		log.WithError(err).Error("failed to authorize publish")
		return false
	}

	svc, err := yt.NewService(ctx, p.opts.serviceOptions(option.WithHTTPClient(client))...)
	if err != nil {
		log.WithError(err).Error("failed to create youtube service")
		return false
	}

	videoID, err := p.uploadVideo(ctx, svc, req)
	if err != nil {
		log.WithError(err).Error("failed to upload video")
		return false
	}
	log = log.WithField("youtube_id", videoID)

	if err := p.setThumbnail(ctx, svc, videoID, req.ThumbKey); err != nil {
		log.WithError(err).Error("failed to set thumbnail")
		return false
	}

	log.Info("video published")
	return true
}

func (p *Publisher) uploadVideo(ctx context.Context, svc *yt.Service, req PublishRequest) (string, error) {
	stream, err := p.files.GetFileStream(ctx, req.VideoKey)
	if err != nil {
		return "", fmt.Errorf("failed to open video: %w", err)
	}
	defer stream.Body.Close()

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  categoryPeopleAndBlogs,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           req.Privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	// ChunkSize(0) - одним multipart-запросом
	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(stream.Body, googleapi.ContentType(videoContentType(stream.ContentType)), googleapi.ChunkSize(0)).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if uploaded == nil || uploaded.Id == "" {
		return "", fmt.Errorf("youtube returned no video id")
	}
	return uploaded.Id, nil
}

// videoContentType берёт тип из хранилища, если это видео; Drive часто отдаёт octet-stream
func videoContentType(stored string) string {
	if mediaType, _, err := mime.ParseMediaType(stored); err == nil && strings.HasPrefix(mediaType, "video/") {
		return mediaType
	}
	return defaultVideoContentType
}

func (p *Publisher) setThumbnail(ctx context.Context, svc *yt.Service, videoID, thumbKey string) error {
	stream, err := p.files.GetFileStream(ctx, thumbKey)
	if err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer stream.Body.Close()

	_, err = svc.Thumbnails.Set(videoID).Media(stream.Body).Context(ctx).Do()
	return err
}

// authorizedClient загружает учётные данные аккаунта, проверяет токен у провайдера
// и сохраняет обновлённые токены
func authorizedClient(ctx context.Context, creators CreatorStore, tokens *token.Manager, id uuid.UUID) (*http.Client, error) {
	creator, err := creators.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cred := token.Credential{AccessToken: creator.AccessToken, RefreshToken: creator.RefreshToken}
	if creator.TokenExpiry != nil {
		cred.Expiry = *creator.TokenExpiry
	}

	cred, _, err = tokens.EnsureValidRemote(ctx, cred)
	if err != nil {
		return nil, err
	}

	var expiry *time.Time
	if !cred.Expiry.IsZero() {
		expiry = &cred.Expiry
	}
	if err := creators.UpdateTokens(ctx, creator.ID, cred.AccessToken, cred.RefreshToken, expiry); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	return tokens.Client(ctx, cred), nil
}
