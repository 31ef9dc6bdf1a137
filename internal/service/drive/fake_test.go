package drive

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
)

var (
	nameRe   = regexp.MustCompile(`name='((?:[^'\\]|\\.)*)'`)
	parentRe = regexp.MustCompile(`'([^']*)' in parents`)
)

type fakeFolder struct {
	id, name, parent string
}

// fakeDrive - минимальная имитация Drive API для тестов
type fakeDrive struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	folders       []fakeFolder
	seq           int
	createCalls   int
	omitLocation  bool
	permStatus    int
	contentRanges []string
	received      map[string][]byte
	deleted       []string
	session       func(w http.ResponseWriter, r *http.Request, body []byte)
}

func newFakeDrive(t *testing.T) *fakeDrive {
	f := &fakeDrive{t: t, permStatus: http.StatusOK, received: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeDrive) client(opts ...Option) *Client {
	opts = append([]Option{WithBaseURL(f.srv.URL)}, opts...)
	return NewClient(f.srv.Client(), "spectral", opts...)
}

func (f *fakeDrive) addFolder(name, parent string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("folder-%d", f.seq)
	f.folders = append(f.folders, fakeFolder{id: id, name: name, parent: parent})
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeDrive) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet && path == "/drive/v3/files":
		q := r.URL.Query().Get("q")
		name := ""
		if m := nameRe.FindStringSubmatch(q); m != nil {
			name = strings.ReplaceAll(m[1], `\'`, `'`)
		}
		parent := ""
		if m := parentRe.FindStringSubmatch(q); m != nil {
			parent = m[1]
		}
		f.mu.Lock()
		var files []map[string]string
		for _, folder := range f.folders {
			if folder.name == name && (parent == "" || folder.parent == parent) {
				files = append(files, map[string]string{"id": folder.id, "name": folder.name})
			}
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})

	case r.Method == http.MethodPost && path == "/drive/v3/files":
		var meta fileMetadata
		_ = json.Unmarshal(body, &meta)
		parent := ""
		if len(meta.Parents) > 0 {
			parent = meta.Parents[0]
		}
		f.mu.Lock()
		f.createCalls++
		f.mu.Unlock()
		id := f.addFolder(meta.Name, parent)
		writeJSON(w, http.StatusOK, map[string]string{"id": id})

	case r.Method == http.MethodPost && path == "/upload/drive/v3/files":
		if f.omitLocation {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Location", f.srv.URL+"/session/1")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && strings.HasPrefix(path, "/session/"):
		f.mu.Lock()
		f.contentRanges = append(f.contentRanges, r.Header.Get("Content-Range"))
		f.mu.Unlock()
		f.session(w, r, body)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/permissions"):
		w.WriteHeader(f.permStatus)
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/drive/v3/files/"):
		id := strings.TrimPrefix(path, "/drive/v3/files/")
		if id == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": map[string]interface{}{"code": 404, "message": "File not found"}})
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/drive/v3/files/"):
		if r.URL.Query().Get("alt") == "media" {
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("payload"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": strings.TrimPrefix(path, "/drive/v3/files/"), "name": "x", "mimeType": folderMimeType,
		})

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.String())
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// parseContentRange разбирает "bytes s-e/t"
func parseContentRange(h string) (start, end, total int64) {
	_, _ = fmt.Sscanf(h, "bytes %d-%d/%d", &start, &end, &total)
	return
}

// completingSession принимает чанки и отвечает 200 на последнем
func completingSession(fileID string) func(w http.ResponseWriter, r *http.Request, body []byte) {
	return func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, end, total := parseContentRange(r.Header.Get("Content-Range"))
		if end+1 >= total {
			writeJSON(w, http.StatusOK, map[string]string{"id": fileID})
			return
		}
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", end))
		w.WriteHeader(http.StatusPermanentRedirect)
	}
}
