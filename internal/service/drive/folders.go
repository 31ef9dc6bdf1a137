package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"contribflow/internal/domain"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ErrRootFolderMissing - корневая папка хранилища не найдена на Drive
var ErrRootFolderMissing = errors.New("root folder not found")

type fileList struct {
	Files []driveFile `json:"files"`
}

func escapeQuery(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `'`, `\'`)
}

// FindFolder ищет неудалённую папку по имени; parent пустой - поиск по всему диску.
// Возвращает пустую строку, если папки нет
func (c *Client) FindFolder(ctx context.Context, name, parent string) (string, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, escapeQuery(name))
	if parent != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parent))
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("fields", "files(id,name)")
	params.Set("spaces", "drive")

	var list fileList
	if err := c.doJSON(ctx, http.MethodGet, c.apiBase+"/drive/v3/files?"+params.Encode(), nil, &list); err != nil {
		return "", fmt.Errorf("failed to search folder %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].ID, nil
}

func (c *Client) rootFolderID(ctx context.Context) (string, error) {
	id, err := c.FindFolder(ctx, c.rootFolderName, "")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrRootFolderMissing, c.rootFolderName)
	}
	return id, nil
}

// CreateFolder создаёт папку под parent; если parent пустой - под корневой папкой.
// Существующая папка с тем же именем - ErrBadRequest
func (c *Client) CreateFolder(ctx context.Context, name, parent string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	}
	if parent == "" {
		rootID, err := c.rootFolderID(ctx)
		if err != nil {
			return "", err
		}
		parent = rootID
	}

	existing, err := c.FindFolder(ctx, name, parent)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return "", fmt.Errorf("%w: folder %q already exists", domain.ErrBadRequest, name)
	}

	var created driveFile
	err = c.doJSON(ctx, http.MethodPost, c.apiBase+"/drive/v3/files?fields=id", fileMetadata{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parent},
	}, &created)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}

	c.log.WithField("folder", name).Info("drive folder created")
	return created.ID, nil
}

// EnsureFolder возвращает идентификатор папки root/top/sub, создавая недостающие уровни.
// top и sub могут содержать несколько сегментов через "/"
func (c *Client) EnsureFolder(ctx context.Context, top, sub string) (string, error) {
	parent, err := c.rootFolderID(ctx)
	if err != nil {
		return "", err
	}

	segments := append(strings.Split(top, "/"), strings.Split(sub, "/")...)
	for _, segment := range segments {
		if segment = strings.TrimSpace(segment); segment == "" {
			continue
		}
		if parent, err = c.findOrCreate(ctx, segment, parent); err != nil {
			return "", err
		}
	}
	return parent, nil
}

func (c *Client) findOrCreate(ctx context.Context, name, parent string) (string, error) {
	id, err := c.FindFolder(ctx, name, parent)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id, err = c.CreateFolder(ctx, name, parent)
	if errors.Is(err, domain.ErrBadRequest) {
		// папку успел создать параллельный запрос
		return c.FindFolder(ctx, name, parent)
	}
	return id, err
}

// FolderExists проверяет, что объект существует и не в корзине
func (c *Client) FolderExists(ctx context.Context, folderID string) (bool, error) {
	meta, err := c.GetFileMetadata(ctx, folderID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !meta.Trashed && meta.MimeType == folderMimeType, nil
}

// FolderNameExists ищет папку с таким именем прямо под корневой папкой
func (c *Client) FolderNameExists(ctx context.Context, name string) (bool, error) {
	rootID, err := c.rootFolderID(ctx)
	if err != nil {
		return false, err
	}
	id, err := c.FindFolder(ctx, name, rootID)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// RenameFolder меняет имя папки
func (c *Client) RenameFolder(ctx context.Context, folderID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	}
	err := c.doJSON(ctx, http.MethodPatch, c.apiBase+"/drive/v3/files/"+url.PathEscape(folderID)+"?fields=id",
		map[string]string{"name": name}, nil)
	if err != nil {
		return fmt.Errorf("failed to rename folder %s: %w", folderID, err)
	}
	return nil
}
