// Package drive - клиент Google Drive REST API: возобновляемая загрузка
// файлов, построение иерархии папок, потоковое чтение и удаление объектов.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

const (
	defaultAPIBase         = "https://www.googleapis.com"
	defaultChunkSize       = 1 * 1024 * 1024 // 1MB
	defaultSingleShotLimit = 5 * 1024 * 1024 // 5MB
)

// Client работает с Drive от имени одной учётной записи хранилища
type Client struct {
	http            *http.Client
	apiBase         string
	uploadBase      string
	rootFolderName  string
	chunkSize       int64
	singleShotLimit int64
	log             *logrus.Entry
}

type Option func(*Client)

// WithBaseURL переопределяет адрес API (тесты, прокси)
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimRight(base, "/")
		c.apiBase = base
		c.uploadBase = base + "/upload"
	}
}

func WithChunkSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

func WithSingleShotLimit(limit int64) Option {
	return func(c *Client) {
		if limit >= 0 {
			c.singleShotLimit = limit
		}
	}
}

func NewClient(httpClient *http.Client, rootFolderName string, opts ...Option) *Client {
	c := &Client{
		http:            httpClient,
		apiBase:         defaultAPIBase,
		uploadBase:      defaultAPIBase + "/upload",
		rootFolderName:  rootFolderName,
		chunkSize:       defaultChunkSize,
		singleShotLimit: defaultSingleShotLimit,
		log:             logger.WithComponent("drive"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootFolderName - корневая папка, под которой создаются все остальные
func (c *Client) RootFolderName() string {
	return c.rootFolderName
}

// rateLimitedTransport ограничивает частоту запросов к Drive API
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient собирает авторизованный клиент: oauth2-транспорт поверх ограничителя частоты
func NewHTTPClient(src oauth2.TokenSource, requestsPerSecond int) *http.Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base: &rateLimitedTransport{
				base:    http.DefaultTransport,
				limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
			},
		},
	}
}

// APIError - ответ Drive с ошибкой
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrAuthentication:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("drive request %s %s failed: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode drive response: %w", err)
		}
	}
	return nil
}
