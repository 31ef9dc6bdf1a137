package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contribflow/internal/domain"
)

const validationTimeout = 10 * time.Second

// Identity - пользователь, от имени которого выполняется запрос
type Identity struct {
	UserID    string `json:"id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// sessionResponse - ответ сервиса сессий
type sessionResponse struct {
	Session *struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
	} `json:"session"`
	User *struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

// SessionClient проверяет bearer-токен во внешнем сервисе сессий
type SessionClient struct {
	http *http.Client
	url  string
}

func NewSessionClient(validationURL string, httpClient *http.Client) *SessionClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: validationTimeout}
	}
	return &SessionClient{http: httpClient, url: validationURL}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// VerifyToken возвращает пользователя по заголовку Authorization
func (c *SessionClient) VerifyToken(ctx context.Context, authHeader string) (*Identity, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return nil, fmt.Errorf("%w: bearer token is required", domain.ErrAuthentication)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: session service unavailable: %v", domain.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: session rejected with status %d", domain.ErrAuthentication, resp.StatusCode)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: invalid session response", domain.ErrAuthentication)
	}

	id := &Identity{}
	if body.User != nil {
		id.UserID, id.Role = body.User.ID, body.User.Role
	}
	if body.Session != nil {
		id.SessionID = body.Session.ID
		if id.UserID == "" {
			id.UserID = body.Session.UserID
		}
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token or token validation failed", domain.ErrAuthentication)
	}
	return id, nil
}
