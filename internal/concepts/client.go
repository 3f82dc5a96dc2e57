package concepts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typefast/internal/model"
)

// AnalyzePath is the analysis endpoint relative to the service URL.
const AnalyzePath = "/api/analizar"

// Client uploads files to a remote analysis service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// uses one with a generous timeout, since analysis runs an LLM.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Load uploads the file at path.
func (c *Client) Load(ctx context.Context, path string) ([]model.Concept, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload sends r as the multipart field "file" named name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) ([]model.Concept, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach analysis service: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out Response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusBadRequest && isNoConceptsMessage(out.Error) {
			return nil, ErrNoConcepts
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", decodeErr)
	}
	if len(out.Concepts) == 0 {
		return nil, ErrNoConcepts
	}
	return out.Concepts, nil
}

func isNoConceptsMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "no concepts")
}
