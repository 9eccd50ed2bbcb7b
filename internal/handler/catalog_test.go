package handler_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/moments-app/moments/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCatalog(t *testing.T) {
	fake := &fakeCatalog{entries: []catalog.Entry{
		{PublicID: "best-moments-2024/abc", Description: "beach day"},
		{PublicID: "best-moments-2024/def", Description: ""},
	}}
	ts, client := testServer(t, fake)

	resp, err := client.Get(ts.URL + "/functions/getImages")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []catalog.Entry
	decodeJSON(t, resp, &entries)
	assert.Equal(t, fake.entries, entries)
}

func TestListCatalogEmpty(t *testing.T) {
	ts, client := testServer(t, &fakeCatalog{})

	resp, err := client.Get(ts.URL + "/functions/getImages")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// An empty catalog serialises as an empty JSON array, not null.
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestListCatalogUpstreamFailure(t *testing.T) {
	fake := &fakeCatalog{listErr: catalog.ErrUpstream}
	ts, client := testServer(t, fake)

	resp, err := client.Get(ts.URL + "/functions/getImages")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Error fetching images", strings.TrimSpace(string(body)))
}

func TestUploadCatalog(t *testing.T) {
	fake := &fakeCatalog{uploadID: "best-moments-2024/xyz"}
	ts, client := testServer(t, fake)

	resp := postMultipart(t, client, ts.URL+"/functions/uploadImage",
		"vacation.png", pngBytes(t, 4, 4), "beach day")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entry catalog.Entry
	decodeJSON(t, resp, &entry)
	assert.Equal(t, "best-moments-2024/xyz", entry.PublicID)
	assert.Equal(t, "beach day", entry.Description)

	assert.Equal(t, "best-moments-2024/xyz", fake.attachedID)
	assert.Equal(t, "beach day", fake.attachedDesc)
}

func TestUploadCatalogWrongMethod(t *testing.T) {
	fake := &fakeCatalog{}
	ts, client := testServer(t, fake)

	resp, err := client.Get(ts.URL + "/functions/uploadImage")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Method Not Allowed", strings.TrimSpace(string(body)))

	// The catalog was never touched.
	list, upload, attach := fake.calls()
	assert.Zero(t, list)
	assert.Zero(t, upload)
	assert.Zero(t, attach)
}

func TestUploadCatalogMissingFile(t *testing.T) {
	fake := &fakeCatalog{}
	ts, client := testServer(t, fake)

	resp := postMultipart(t, client, ts.URL+"/functions/uploadImage", "", nil, "no file here")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_, upload, attach := fake.calls()
	assert.Zero(t, upload)
	assert.Zero(t, attach)
}

func TestUploadCatalogStoreFailure(t *testing.T) {
	fake := &fakeCatalog{uploadErr: errors.New("remote exploded")}
	ts, client := testServer(t, fake)

	resp := postMultipart(t, client, ts.URL+"/functions/uploadImage",
		"vacation.png", pngBytes(t, 4, 4), "beach day")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	_, _, attach := fake.calls()
	assert.Zero(t, attach)
}

func TestUploadCatalogAttachFailureAfterStore(t *testing.T) {
	fake := &fakeCatalog{uploadID: "best-moments-2024/xyz", attachErr: errors.New("tagging failed")}
	ts, client := testServer(t, fake)

	resp := postMultipart(t, client, ts.URL+"/functions/uploadImage",
		"vacation.png", pngBytes(t, 4, 4), "beach day")
	defer resp.Body.Close()

	// The binary stored remotely, but the caller still sees a failure.
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	_, upload, attach := fake.calls()
	assert.Equal(t, 1, upload)
	assert.Equal(t, 1, attach)
}
