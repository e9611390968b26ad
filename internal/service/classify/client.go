// Package classify uploads captured images to the external classification service.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"scanstation/internal/logger"
	"strings"
	"time"
)

const (
	FieldName = "image"
	FileName  = "captured-image.jpg"

	// maxErrorBody caps how much of a failed response is kept for the error message.
	maxErrorBody = 512
)

// Result is the service answer. ImageURL is empty when the service
// accepted the image without returning a reference.
type Result struct {
	ImageURL string
}

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("classification service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("classification service returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client for endpoint. A zero timeout means none.
func NewClient(endpoint string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type classifyResponse struct {
	ImageURL interface{} `json:"imageUrl"`
	Error    string      `json:"error"`
}

// Classify posts image as multipart field "image" and parses the JSON reply.
func (c *Client) Classify(ctx context.Context, image []byte) (*Result, error) {
	body, contentType, err := encodeImage(image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: trimBody(respBody)}
	}

	var parsed classifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &Result{}
	if url, ok := parsed.ImageURL.(string); ok {
		result.ImageURL = strings.TrimSpace(url)
	}

	c.logger.Info("Classification request finished in %v (status %d, result: %t)",
		time.Since(start).Round(time.Millisecond), resp.StatusCode, result.ImageURL != "")
	return result, nil
}

func encodeImage(image []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, FileName))
	header.Set("Content-Type", "image/jpeg")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func trimBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
