// Package token управляет жизненным циклом OAuth2-учётных данных:
// проверяет срок действия, обновляет по refresh-токену и проводит consent-flow.
// Менеджер ничего не сохраняет сам, сохранение лежит на вызывающей стороне.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"contribflow/internal/domain"
)

// RefreshWindow - токен, истекающий раньше этого окна, считается устаревшим
const RefreshWindow = 300 * time.Second

// Credential - пара токенов одной внешней учётной записи
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry,
	}
}

func fromOAuth2(tok *oauth2.Token, previousRefresh string) Credential {
	cred := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	// Google не всегда возвращает refresh-токен повторно
	if cred.RefreshToken == "" {
		cred.RefreshToken = previousRefresh
	}
	return cred
}

type Manager struct {
	oauth             *oauth2.Config
	httpClient        *http.Client
	tokenInfoEndpoint string
	window            time.Duration
	now               func() time.Time
}

type Option func(*Manager)

func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithTokenInfoEndpoint переопределяет базовый адрес OAuth2 API (тесты)
func WithTokenInfoEndpoint(endpoint string) Option {
	return func(m *Manager) {
		m.tokenInfoEndpoint = endpoint
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(cfg *oauth2.Config, opts ...Option) *Manager {
	m := &Manager{
		oauth:      cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		window:     RefreshWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// NeedsRefresh - токен отсутствует или истекает в пределах окна.
// Без известного срока действия токен считается годным.
func (m *Manager) NeedsRefresh(c Credential) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	return !c.Expiry.After(m.now().Add(m.window))
}

// Refresh обменивает refresh-токен на новый access-токен.
// Ошибка означает, что пользователь должен заново пройти consent-flow.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	if refreshToken == "" {
		return Credential{}, fmt.Errorf("%w: no refresh token available", domain.ErrAuthentication)
	}

	src := m.oauth.TokenSource(m.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: token refresh failed, re-authenticate: %v", domain.ErrAuthentication, err)
	}

	return fromOAuth2(tok, refreshToken), nil
}

// EnsureValid возвращает годные учётные данные и признак того, что они были обновлены
func (m *Manager) EnsureValid(ctx context.Context, c Credential) (Credential, bool, error) {
	if !m.NeedsRefresh(c) {
		return c, false, nil
	}

	refreshed, err := m.Refresh(ctx, c.RefreshToken)
	if err != nil {
		return c, false, err
	}
	return refreshed, true, nil
}

// Introspect спрашивает у провайдера, сколько секунд осталось жить токену
func (m *Manager) Introspect(ctx context.Context, accessToken string) (int64, error) {
	opts := []option.ClientOption{option.WithHTTPClient(m.httpClient)}
	if m.tokenInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(m.tokenInfoEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := svc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
	if err != nil {
		// Просроченный или отозванный токен - 4xx, это не ошибка, а невалидность
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return 0, nil
		}
		return 0, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	return info.ExpiresIn, nil
}

// EnsureValidRemote проверяет токен через introspection и обновляет его, если он невалиден
func (m *Manager) EnsureValidRemote(ctx context.Context, c Credential) (Credential, bool, error) {
	if c.AccessToken != "" {
		expiresIn, err := m.Introspect(ctx, c.AccessToken)
		if err == nil && expiresIn > 0 {
			c.Expiry = m.now().Add(time.Duration(expiresIn) * time.Second)
			return c, false, nil
		}
	}

	refreshed, err := m.Refresh(ctx, c.RefreshToken)
	if err != nil {
		return c, false, err
	}
	return refreshed, true, nil
}

// AuthCodeURL строит ссылку на согласие с офлайн-доступом, чтобы получить refresh-токен
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (m *Manager) Exchange(ctx context.Context, code string) (Credential, error) {
	if code == "" {
		return Credential{}, fmt.Errorf("%w: authorization code is required", domain.ErrValidation)
	}
	tok, err := m.oauth.Exchange(m.ctx(ctx), code)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: code exchange failed: %v", domain.ErrAuthentication, err)
	}
	return fromOAuth2(tok, ""), nil
}

// Client возвращает HTTP-клиент, подписывающий запросы данным access-токеном
func (m *Manager) Client(ctx context.Context, c Credential) *http.Client {
	return oauth2.NewClient(m.ctx(ctx), oauth2.StaticTokenSource(c.Token()))
}
