package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Compile-time check that Client implements Catalog.
var _ Catalog = (*Client)(nil)

// Config holds the external media API settings. Credentials are passed in
// explicitly at construction; there is no package-level configuration.
type Config struct {
	BaseURL    string // e.g. https://api.cloudinary.com/v1_1
	CloudName  string
	APIKey     string
	APISecret  string
	Folder     string // fixed namespace all entries live under
	MaxResults int    // list cap; defaults to 30
}

// Client is an HTTP client for a Cloudinary-style media API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 30
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: &http.Client{}}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, c.cfg.CloudName, path)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

type searchRequest struct {
	Expression string              `json:"expression"`
	SortBy     []map[string]string `json:"sort_by"`
	MaxResults int                 `json:"max_results"`
}

type searchResponse struct {
	Resources []struct {
		PublicID string `json:"public_id"`
		Context  struct {
			Custom map[string]string `json:"custom"`
		} `json:"context"`
	} `json:"resources"`
}

// List queries the search endpoint for the configured folder, newest
// first, capped at MaxResults.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	body, err := json.Marshal(searchRequest{
		Expression: "folder:" + c.cfg.Folder,
		SortBy:     []map[string]string{{"created_at": "desc"}},
		MaxResults: c.cfg.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("resources/search"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUpstream, err)
	}

	entries := make([]Entry, 0, len(sr.Resources))
	for _, res := range sr.Resources {
		if len(entries) == c.cfg.MaxResults {
			break
		}
		entries = append(entries, Entry{
			PublicID:    res.PublicID,
			Description: res.Context.Custom["description"],
		})
	}
	return entries, nil
}

// Upload posts the file as multipart form data to the upload endpoint and
// returns the public ID assigned by the service.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("folder", c.cfg.Folder); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return "", fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("image/upload"), &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ur struct {
		PublicID string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", ErrUpstream, err)
	}
	if ur.PublicID == "" {
		return "", fmt.Errorf("%w: upload response missing public_id", ErrUpstream)
	}
	return ur.PublicID, nil
}

// AttachDescription adds the description as context metadata on a stored
// object.
func (c *Client) AttachDescription(ctx context.Context, publicID, description string) error {
	form := url.Values{}
	form.Set("command", "add")
	form.Set("public_ids", publicID)
	form.Set("context", "description="+description)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("image/context"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build context request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
