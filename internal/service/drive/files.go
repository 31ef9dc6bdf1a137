package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"contribflow/internal/domain"
)

// FileMetadata - сведения об объекте Drive
type FileMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	Size        string `json:"size,omitempty"`
	WebViewLink string `json:"webViewLink,omitempty"`
	Trashed     bool   `json:"trashed"`
}

// FileStream - содержимое файла; закрыть Body обязан вызывающий
type FileStream struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// DeleteFile удаляет файл; отсутствующий файл считается удалённым
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", domain.ErrValidation)
	}
	err := c.doJSON(ctx, http.MethodDelete, c.apiBase+"/drive/v3/files/"+url.PathEscape(fileID), nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		c.log.WithField("file_id", fileID).Warn("file already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	c.log.WithField("file_id", fileID).Info("drive file deleted")
	return nil
}

// GetFileStream открывает поток содержимого файла
func (c *Client) GetFileStream(ctx context.Context, fileID string) (*FileStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+"/drive/v3/files/"+url.PathEscape(fileID)+"?alt=media", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, readAPIError(resp))
	}

	return &FileStream{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// GetFileMetadata возвращает метаданные файла
func (c *Client) GetFileMetadata(ctx context.Context, fileID string) (*FileMetadata, error) {
	var meta FileMetadata
	err := c.doJSON(ctx, http.MethodGet,
		c.apiBase+"/drive/v3/files/"+url.PathEscape(fileID)+"?fields=id,name,mimeType,size,webViewLink,trashed", nil, &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata of %s: %w", fileID, err)
	}
	return &meta, nil
}

// SetPublicRead открывает файл на чтение всем по ссылке
func (c *Client) SetPublicRead(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, http.MethodPost,
		c.apiBase+"/drive/v3/files/"+url.PathEscape(fileID)+"/permissions",
		map[string]string{"role": "reader", "type": "anyone"}, nil)
}
