// Package client is a typed HTTP client for the cleancook REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"

	"github.com/sujalbistaa/cleancook/internal/models"
	"github.com/sujalbistaa/cleancook/internal/service"
)

// DefaultBaseURL is the API root of a locally running server.
const DefaultBaseURL = "http://localhost:3001/api"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client rooted at baseURL (e.g. http://localhost:3001/api).
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewStory is the story form. ImagePath optionally names a local image file.
type NewStory struct {
	Title      string
	Content    string
	Location   string
	FuelType   string
	AuthorName string
	ImagePath  string
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

func (c *Client) postJSON(ctx context.Context, path string, body, target interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
		contentType = "application/json"
	}
	resp, err := c.do(ctx, http.MethodPost, path, contentType, reader)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

// decodeResponse decodes a JSON body into target, or turns a >=400 status
// into an *APIError carrying the server's "error" message.
func decodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health reports the server status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) ListStories(ctx context.Context, page, limit int, fuelType string) (*service.StoryPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if fuelType != "" {
		q.Set("fuel_type", fuelType)
	}
	path := "/stories"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out service.StoryPage
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStory posts the story as multipart form data so an image can ride along.
func (c *Client) CreateStory(ctx context.Context, in NewStory) (*models.Story, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", in.Title},
		{"content", in.Content},
		{"location", in.Location},
		{"fuel_type", in.FuelType},
		{"author_name", in.AuthorName},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	if in.ImagePath != "" {
		if err := writeImage(mw, in.ImagePath); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/stories", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	var out models.Story
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// writeImage attaches path as the "image" part with its sniffed content type.
func writeImage(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write image part: %w", err)
	}
	return nil
}

func (c *Client) LikeStory(ctx context.Context, id uint) (*models.Story, error) {
	var out models.Story
	if err := c.postJSON(ctx, fmt.Sprintf("/stories/%d/like", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListThreads(ctx context.Context) ([]models.Thread, error) {
	var out []models.Thread
	if err := c.getJSON(ctx, "/threads", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateThread(ctx context.Context, in service.ThreadInput) (*models.Thread, error) {
	var out models.Thread
	if err := c.postJSON(ctx, "/threads", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, threadID uint) ([]models.Comment, error) {
	var out []models.Comment
	if err := c.getJSON(ctx, fmt.Sprintf("/threads/%d/comments", threadID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, threadID uint, in service.CommentInput) (*models.Comment, error) {
	var out models.Comment
	if err := c.postJSON(ctx, fmt.Sprintf("/threads/%d/comments", threadID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*service.Stats, error) {
	var out service.Stats
	if err := c.getJSON(ctx, "/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
