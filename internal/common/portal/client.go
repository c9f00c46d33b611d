// internal/common/portal/client.go
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	commonhttp "scholarship-portal/internal/common/http"
	"scholarship-portal/internal/common/logger"
)

// Paths configures the backend routes used by the client.
type Paths struct {
	Upload         string
	Applications   string
	DownloadPrefix string
}

func DefaultPaths() Paths {
	return Paths{
		Upload:         "/api/files/upload",
		Applications:   "/api/applications",
		DownloadPrefix: "/api/files/download/",
	}
}

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, e.Body)
}

// Unauthorized reports a rejected bearer token.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Client talks to the scholarship backend REST API.
type Client struct {
	http   *commonhttp.Client
	paths  Paths
	logger logger.Logger
}

func NewClient(hc *commonhttp.Client, paths Paths, log logger.Logger) *Client {
	if paths.Upload == "" || paths.Applications == "" || paths.DownloadPrefix == "" {
		def := DefaultPaths()
		if paths.Upload == "" {
			paths.Upload = def.Upload
		}
		if paths.Applications == "" {
			paths.Applications = def.Applications
		}
		if paths.DownloadPrefix == "" {
			paths.DownloadPrefix = def.DownloadPrefix
		}
	}
	return &Client{
		http:   hc,
		paths:  paths,
		logger: log.WithFields(map[string]interface{}{"component": "portal-client"}),
	}
}

// DownloadURL derives the download path the backend serves a stored file from.
func (c *Client) DownloadURL(fileName string) string {
	prefix := c.paths.DownloadPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + url.PathEscape(fileName)
}

// UploadFile sends one file as multipart/form-data under the field "file".
func (c *Client) UploadFile(ctx context.Context, token, fileName string, content io.Reader) (*UploadedFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(fileName))))
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	size, err := io.Copy(part, content)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.paths.Upload, token, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, "upload")
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.name() == "" {
		return nil, fmt.Errorf("upload response has no fileName")
	}

	c.logger.Debug("file uploaded", map[string]interface{}{
		"originalName": fileName,
		"storedName":   out.name(),
		"size":         size,
	})

	return &UploadedFile{
		FileName:     out.name(),
		FileURL:      c.DownloadURL(out.name()),
		OriginalName: filepath.Base(fileName),
		Size:         size,
	}, nil
}

// CreateApplication posts the flattened draft.
func (c *Client) CreateApplication(ctx context.Context, token string, payload *CreateApplicationRequest) (*CreateApplicationResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application: %w", err)
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.paths.Applications, token, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "create application")
	if err != nil {
		return nil, err
	}

	var out CreateApplicationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if out.Identifier() == "" {
		return nil, fmt.Errorf("create response has no application id")
	}
	return &out, nil
}

// ListEvaluations fetches the reviewer and committee evaluations of one application.
func (c *Client) ListEvaluations(ctx context.Context, token, applicationID string) ([]Evaluation, error) {
	path := fmt.Sprintf("%s/%s/evaluations", strings.TrimSuffix(c.paths.Applications, "/"), url.PathEscape(applicationID))
	req, err := c.http.NewRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "list evaluations")
	if err != nil {
		return nil, err
	}

	// The backend answers either with a bare array or wrapped in {"data": [...]}.
	var evals []Evaluation
	if err := json.Unmarshal(body, &evals); err == nil {
		return evals, nil
	}
	var wrapped struct {
		Data []Evaluation `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode evaluations: %w", err)
	}
	return wrapped.Data, nil
}

func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", operation, err)
	}

	if !commonhttp.IsSuccess(resp.StatusCode) {
		c.logger.Warn("backend returned error status", map[string]interface{}{
			"operation": operation,
			"status":    resp.StatusCode,
			"requestId": req.Header.Get(commonhttp.HeaderRequestID),
		})
		return nil, &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
