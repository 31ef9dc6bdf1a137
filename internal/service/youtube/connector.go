package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
	"contribflow/internal/service/token"
)

// Connector подключает YouTube-аккаунт создателя и читает данные его канала
type Connector struct {
	creators CreatorStore
	tokens   *token.Manager
	opts     options
	log      *logrus.Entry
}

func NewConnector(creators CreatorStore, tokens *token.Manager, opts ...Option) *Connector {
	c := &Connector{
		creators: creators,
		tokens:   tokens,
		log:      logger.WithComponent("youtube-connector"),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// AuthURL - ссылка на согласие; state несёт идентификатор создателя
func (c *Connector) AuthURL(creatorID string) (string, error) {
	if strings.TrimSpace(creatorID) == "" {
		return "", fmt.Errorf("%w: creator id is required", domain.ErrValidation)
	}
	return c.tokens.AuthCodeURL(creatorID), nil
}

// HandleCallback обменивает код на токены, узнаёт email аккаунта и сохраняет его как ACTIVE
func (c *Connector) HandleCallback(ctx context.Context, code, creatorID string) (*domain.YtCreator, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, fmt.Errorf("%w: state must carry creator id", domain.ErrValidation)
	}

	cred, err := c.tokens.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if cred.AccessToken == "" || cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: failed to obtain tokens", domain.ErrAuthentication)
	}

	svc, err := oauth2api.NewService(ctx, c.opts.serviceOptions(option.WithHTTPClient(c.tokens.Client(ctx, cred)))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch account email: %v", domain.ErrAuthentication, err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("%w: account has no email", domain.ErrAuthentication)
	}

	creator := &domain.YtCreator{
		CreatorID:    creatorID,
		Email:        info.Email,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Status:       domain.CreatorActive,
	}
	if !cred.Expiry.IsZero() {
		expiry := cred.Expiry
		creator.TokenExpiry = &expiry
	}

	if err := c.creators.Create(ctx, creator); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{"creator_id": creatorID, "email": info.Email}).Info("youtube account connected")
	return creator, nil
}

// ChannelInfo - сведения о канале подключённого аккаунта
type ChannelInfo struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CustomURL       string    `json:"custom_url,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	SubscriberCount uint64    `json:"subscriber_count"`
	VideoCount      uint64    `json:"video_count"`
	ViewCount       uint64    `json:"view_count"`
	UploadsPlaylist string    `json:"uploads_playlist,omitempty"`
}

func (c *Connector) ChannelInfo(ctx context.Context, id uuid.UUID) (*ChannelInfo, error) {
	client, err := authorizedClient(ctx, c.creators, c.tokens, id)
	if err != nil {
		return nil, err
	}

	svc, err := yt.NewService(ctx, c.opts.serviceOptions(option.WithHTTPClient(client))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	resp, err := svc.Channels.List([]string{"snippet", "contentDetails", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel info: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: no channel for account %s", domain.ErrNotFound, id)
	}

	return toChannelInfo(resp.Items[0]), nil
}

func toChannelInfo(ch *yt.Channel) *ChannelInfo {
	info := &ChannelInfo{ID: ch.Id}
	if s := ch.Snippet; s != nil {
		info.Title = s.Title
		info.Description = s.Description
		info.CustomURL = s.CustomUrl
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			info.PublishedAt = t
		}
		if s.Thumbnails != nil && s.Thumbnails.Default != nil {
			info.Thumbnail = s.Thumbnails.Default.Url
		}
	}
	if st := ch.Statistics; st != nil {
		info.SubscriberCount = st.SubscriberCount
		info.VideoCount = st.VideoCount
		info.ViewCount = st.ViewCount
	}
	if cd := ch.ContentDetails; cd != nil && cd.RelatedPlaylists != nil {
		info.UploadsPlaylist = cd.RelatedPlaylists.Uploads
	}
	return info
}
