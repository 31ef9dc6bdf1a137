package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"contribflow/internal/domain"
)

// UploadInput описывает один файл для возобновляемой загрузки
type UploadInput struct {
	Data       []byte
	MimeType   string
	FolderName string
	SubPath    string
	FileName   string
	// Progress вызывается после каждого подтверждённого чанка
	Progress func(sent, total int64)
}

type driveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink"`
	Size        string `json:"size"`
}

type fileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// UploadInitiationError - не удалось открыть сессию загрузки
type UploadInitiationError struct {
	Status int
	Err    error
}

func (e *UploadInitiationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to initiate resumable upload: %v", e.Err)
	}
	return fmt.Sprintf("failed to initiate resumable upload: status %d", e.Status)
}

func (e *UploadInitiationError) Unwrap() error { return e.Err }

func (e *UploadInitiationError) Is(target error) bool { return target == domain.ErrUploadInitiation }

// ChunkUploadError - провайдер отверг чанк или запрос не дошёл
type ChunkUploadError struct {
	Start, End, Total int64
	Status            int
	Err               error
}

func (e *ChunkUploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chunk upload failed at bytes %d-%d/%d: %v", e.Start, e.End, e.Total, e.Err)
	}
	return fmt.Sprintf("chunk upload failed at bytes %d-%d/%d: unexpected status %d", e.Start, e.End, e.Total, e.Status)
}

func (e *ChunkUploadError) Unwrap() error { return e.Err }

func (e *ChunkUploadError) Is(target error) bool { return target == domain.ErrChunkUpload }

// максимальное число чанков подряд без продвижения курсора
const maxStalledChunks = 3

// Upload загружает файл в папку FolderName/SubPath через сессию возобновляемой загрузки
// и возвращает ссылку для просмотра и идентификатор файла
func (c *Client) Upload(ctx context.Context, in UploadInput) (*domain.StoredObject, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	if in.FileName == "" {
		in.FileName = uuid.NewString()
	}

	folderID, err := c.EnsureFolder(ctx, in.FolderName, in.SubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination folder: %w", err)
	}

	sessionURI, err := c.initiateResumable(ctx, fileMetadata{
		Name:    in.FileName,
		Parents: []string{folderID},
	}, in.MimeType, int64(len(in.Data)))
	if err != nil {
		return nil, err
	}
	c.log.WithField("file", in.FileName).Debug("resumable upload session initiated")

	file, err := c.uploadInChunks(ctx, sessionURI, in.Data, in.Progress)
	if err != nil {
		return nil, err
	}

	// Публичный доступ не критичен для загрузки
	if err := c.SetPublicRead(ctx, file.ID); err != nil {
		c.log.WithError(err).WithField("file_id", file.ID).Warn("failed to set file permissions")
	}

	link := file.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view", file.ID)
	}

	return &domain.StoredObject{URL: link, FileID: file.ID}, nil
}

func (c *Client) initiateResumable(ctx context.Context, meta fileMetadata, mimeType string, size int64) (string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", &UploadInitiationError{Err: err}
	}

	url := c.uploadBase + "/drive/v3/files?uploadType=resumable&fields=id,name,mimeType,webViewLink,size"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &UploadInitiationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", mimeType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UploadInitiationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &UploadInitiationError{Status: resp.StatusCode, Err: readAPIError(resp)}
	}

	sessionURI := resp.Header.Get("Location")
	if sessionURI == "" {
		return "", &UploadInitiationError{Status: resp.StatusCode, Err: fmt.Errorf("no session uri in response")}
	}
	return sessionURI, nil
}

func (c *Client) putRange(ctx context.Context, sessionURI string, chunk []byte, contentRange string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURI, bytes.NewReader(chunk))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Range", contentRange)
	return c.http.Do(req)
}

func decodeFile(resp *http.Response) (*driveFile, error) {
	var f driveFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode uploaded file: %w", err)
	}
	return &f, nil
}

func finalized(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

func (c *Client) uploadInChunks(ctx context.Context, sessionURI string, data []byte, progress func(sent, total int64)) (*driveFile, error) {
	total := int64(len(data))
	report := func(sent int64) {
		if progress != nil {
			progress(sent, total)
		}
	}

	// Небольшие файлы (миниатюры) уходят одним запросом
	if total <= c.singleShotLimit {
		resp, err := c.putRange(ctx, sessionURI, data, fmt.Sprintf("bytes 0-%d/%d", total-1, total))
		if err != nil {
			return nil, &ChunkUploadError{Start: 0, End: total - 1, Total: total, Err: err}
		}
		defer resp.Body.Close()

		if !finalized(resp.StatusCode) {
			return nil, &ChunkUploadError{Start: 0, End: total - 1, Total: total, Status: resp.StatusCode, Err: readAPIError(resp)}
		}
		report(total)
		return decodeFile(resp)
	}

	var sent int64
	stalled := 0
	for sent < total {
		start := sent
		end := start + c.chunkSize
		if end > total {
			end = total
		}
		end--

		resp, err := c.putRange(ctx, sessionURI, data[start:end+1], fmt.Sprintf("bytes %d-%d/%d", start, end, total))
		if err != nil {
			return nil, &ChunkUploadError{Start: start, End: end, Total: total, Err: err}
		}

		switch {
		case finalized(resp.StatusCode):
			file, err := decodeFile(resp)
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			report(total)
			return file, nil

		case resp.StatusCode == http.StatusPermanentRedirect:
			next := end + 1
			// Если провайдер подтвердил меньше отправленного, продолжаем с подтверждённого смещения
			if acked, ok := parseRangeEnd(resp.Header.Get("Range")); ok && acked+1 < next {
				c.log.WithFields(map[string]interface{}{
					"sent_end":  end,
					"acked_end": acked,
				}).Warn("provider acknowledged fewer bytes than sent, resuming from acknowledged offset")
				next = acked + 1
			}
			resp.Body.Close()

			if next <= start {
				stalled++
				if stalled >= maxStalledChunks {
					return nil, &ChunkUploadError{Start: start, End: end, Total: total, Status: resp.StatusCode, Err: fmt.Errorf("upload made no progress")}
				}
			} else {
				stalled = 0
			}
			sent = next

		default:
			apiErr := readAPIError(resp)
			resp.Body.Close()
			return nil, &ChunkUploadError{Start: start, End: end, Total: total, Status: resp.StatusCode, Err: apiErr}
		}

		report(sent)
		c.log.Debugf("upload progress: %d%% (%d/%d bytes)", sent*100/total, sent, total)
	}

	return c.completeUpload(ctx, sessionURI, total)
}

// completeUpload запрашивает завершение загрузки пустым запросом "bytes */total"
func (c *Client) completeUpload(ctx context.Context, sessionURI string, total int64) (*driveFile, error) {
	resp, err := c.putRange(ctx, sessionURI, nil, fmt.Sprintf("bytes */%d", total))
	if err != nil {
		return nil, fmt.Errorf("%w: finalize request failed: %v", domain.ErrUploadIncomplete, err)
	}
	defer resp.Body.Close()

	if finalized(resp.StatusCode) {
		file, err := decodeFile(resp)
		if err == nil && file.ID != "" {
			return file, nil
		}
	}
	io.Copy(io.Discard, resp.Body)
	return nil, fmt.Errorf("%w: upload completed but no file response received (status %d)", domain.ErrUploadIncomplete, resp.StatusCode)
}

// parseRangeEnd разбирает заголовок "bytes=0-1048575" и возвращает последний принятый байт
func parseRangeEnd(header string) (int64, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "bytes=") {
		return 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(header, "bytes="), "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return end, true
}
