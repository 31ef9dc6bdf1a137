package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contribflow/internal/domain"
)

func TestUpload_SendsChunksInOrder(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = completingSession("file-1")
	c := fake.client(WithChunkSize(4), WithSingleShotLimit(0))

	var progress []int64
	obj, err := c.Upload(context.Background(), UploadInput{
		Data:       []byte("0123456789"),
		MimeType:   "video/mp4",
		FolderName: "videos",
		FileName:   "clip.mp4",
		Progress:   func(sent, total int64) { progress = append(progress, sent) },
	})
	require.NoError(t, err)

	assert.Equal(t, "file-1", obj.FileID)
	assert.Equal(t, "https://drive.google.com/file/d/file-1/view", obj.URL)
	assert.Equal(t, []string{"bytes 0-3/10", "bytes 4-7/10", "bytes 8-9/10"}, fake.contentRanges)
	assert.Equal(t, []int64{4, 8, 10}, progress)
}

func TestUpload_SingleShotForSmallFiles(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = completingSession("thumb-1")
	c := fake.client()

	obj, err := c.Upload(context.Background(), UploadInput{Data: []byte("img"), MimeType: "image/png", FolderName: "thumbnails"})
	require.NoError(t, err)

	assert.Equal(t, "thumb-1", obj.FileID)
	assert.Equal(t, []string{"bytes 0-2/3"}, fake.contentRanges)
}

func TestUpload_EarlyCompletion(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, http.StatusCreated, map[string]string{"id": "early", "webViewLink": "https://view/early"})
	}
	c := fake.client(WithChunkSize(4), WithSingleShotLimit(0))

	obj, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	require.NoError(t, err)

	assert.Equal(t, "https://view/early", obj.URL)
	assert.Len(t, fake.contentRanges, 1)
}

func TestUpload_ResumesFromAcknowledgedOffset(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	calls := 0
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		calls++
		_, end, total := parseContentRange(r.Header.Get("Content-Range"))
		if calls == 1 {
			// принято только два байта из четырёх
			w.Header().Set("Range", "bytes=0-1")
			w.WriteHeader(http.StatusPermanentRedirect)
			return
		}
		if end+1 >= total {
			writeJSON(w, http.StatusOK, map[string]string{"id": "resumed"})
			return
		}
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", end))
		w.WriteHeader(http.StatusPermanentRedirect)
	}
	c := fake.client(WithChunkSize(4), WithSingleShotLimit(0))

	obj, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	require.NoError(t, err)

	assert.Equal(t, "resumed", obj.FileID)
	assert.Equal(t, []string{"bytes 0-3/10", "bytes 2-5/10", "bytes 6-9/10"}, fake.contentRanges)
}

func TestUpload_StallGuard(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Header().Set("Range", "bytes=0-1")
		w.WriteHeader(http.StatusPermanentRedirect)
	}
	c := fake.client(WithChunkSize(4), WithSingleShotLimit(0))

	_, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChunkUpload)
}

func TestUpload_UnexpectedChunkStatus(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	calls := 0
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		calls++
		if calls == 2 {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": map[string]interface{}{"code": 500, "message": "backend error"}})
			return
		}
		w.WriteHeader(http.StatusPermanentRedirect)
	}
	c := fake.client(WithChunkSize(4), WithSingleShotLimit(0))

	_, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	require.Error(t, err)

	var chunkErr *ChunkUploadError
	require.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, int64(4), chunkErr.Start)
	assert.Equal(t, int64(7), chunkErr.End)
	assert.Equal(t, http.StatusInternalServerError, chunkErr.Status)
	assert.ErrorIs(t, err, domain.ErrChunkUpload)
}

func TestUpload_MissingSessionURI(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.omitLocation = true
	c := fake.client()

	_, err := c.Upload(context.Background(), UploadInput{Data: []byte("abc"), MimeType: "image/png", FolderName: "thumbnails"})
	require.Error(t, err)

	var initErr *UploadInitiationError
	assert.True(t, errors.As(err, &initErr))
	assert.ErrorIs(t, err, domain.ErrUploadInitiation)
	assert.Empty(t, fake.contentRanges)
}

func TestUpload_FinalizeAfterAllChunksAcknowledged(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		if r.Header.Get("Content-Range") == "bytes */10" {
			writeJSON(w, http.StatusOK, map[string]string{"id": "finalized"})
			return
		}
		w.WriteHeader(http.StatusPermanentRedirect)
	}
	c := fake.client(WithChunkSize(5), WithSingleShotLimit(0))

	obj, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	require.NoError(t, err)

	assert.Equal(t, "finalized", obj.FileID)
	assert.Equal(t, []string{"bytes 0-4/10", "bytes 5-9/10", "bytes */10"}, fake.contentRanges)
}

func TestUpload_Incomplete(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.session = func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusPermanentRedirect)
	}
	c := fake.client(WithChunkSize(5), WithSingleShotLimit(0))

	_, err := c.Upload(context.Background(), UploadInput{Data: []byte("0123456789"), MimeType: "video/mp4", FolderName: "videos"})
	assert.ErrorIs(t, err, domain.ErrUploadIncomplete)
}

func TestUpload_PermissionFailureIsNotFatal(t *testing.T) {
	fake := newFakeDrive(t)
	fake.addFolder("spectral", "")
	fake.permStatus = http.StatusForbidden
	fake.session = completingSession("file-2")
	c := fake.client()

	obj, err := c.Upload(context.Background(), UploadInput{Data: []byte("abc"), MimeType: "image/png", FolderName: "thumbnails"})
	require.NoError(t, err)
	assert.Equal(t, "file-2", obj.FileID)
}

func TestUpload_EmptyData(t *testing.T) {
	fake := newFakeDrive(t)
	c := fake.client()

	_, err := c.Upload(context.Background(), UploadInput{MimeType: "video/mp4", FolderName: "videos"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseRangeEnd(t *testing.T) {
	end, ok := parseRangeEnd("bytes=0-1048575")
	assert.True(t, ok)
	assert.Equal(t, int64(1048575), end)

	_, ok = parseRangeEnd("")
	assert.False(t, ok)
	_, ok = parseRangeEnd("bytes=0-x")
	assert.False(t, ok)
}
