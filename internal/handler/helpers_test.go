package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moments-app/moments/internal/catalog"
	"github.com/moments-app/moments/internal/config"
	"github.com/moments-app/moments/internal/gallery"
	"github.com/moments-app/moments/internal/router"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is a test double recording every call.
type fakeCatalog struct {
	mu sync.Mutex

	listCalls   int
	uploadCalls int
	attachCalls int

	entries   []catalog.Entry
	listErr   error
	uploadID  string
	uploadErr error
	attachErr error

	attachedID   string
	attachedDesc string
}

func (f *fakeCatalog) List(ctx context.Context) ([]catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.entries, f.listErr
}

func (f *fakeCatalog) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadID, nil
}

func (f *fakeCatalog) AttachDescription(ctx context.Context, publicID, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls++
	f.attachedID = publicID
	f.attachedDesc = description
	return f.attachErr
}

func (f *fakeCatalog) calls() (list, upload, attach int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.uploadCalls, f.attachCalls
}

// testServer boots the full router over a temp-dir store and the given
// catalog double, plus an HTTP client with a cookie jar so session state
// sticks across requests.
func testServer(t *testing.T, cat catalog.Catalog) (*httptest.Server, *http.Client) {
	t.Helper()

	store, err := gallery.NewSQLite(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctrl, err := gallery.NewController(store, gallery.NewUploader(store), 50*time.Millisecond, 64)
	require.NoError(t, err)

	cfg := &config.Config{MaxUploadBytes: 10 << 20}

	srv := router.New(ctrl, cat, cfg)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

// pngBytes renders a small PNG for upload bodies.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 180, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartImage builds a multipart body with an image file field and an
// optional description field.
func multipartImage(t *testing.T, fileName string, content []byte, description string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("description", description))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postMultipart(t *testing.T, client *http.Client, url, fileName string, content []byte, description string) *http.Response {
	t.Helper()
	body, contentType := multipartImage(t, fileName, content, description)
	req, err := http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", data)
}
