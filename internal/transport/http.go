package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"uploadq/internal/config"
	"uploadq/internal/retry"
)

const userAgent = "uploadq/0.1.0"

// Client uploads payloads to a plain HTTP endpoint. Simple transfers are
// a single POST; chunked transfers are a PATCH per chunk with index
// headers so the server can reassemble.
type Client struct {
	endpoint  string
	authToken string
	client    *http.Client
}

// NewClient builds an HTTP transport from configuration. An explicit
// endpoint overrides the configured upload URL.
func NewClient(cfg *config.Config, endpoint string) *Client {
	if endpoint == "" {
		endpoint = cfg.UploadURL
	}
	timeout := time.Duration(cfg.Endpoint.RequestTimeout) * time.Second
	return &Client{
		endpoint:  endpoint,
		authToken: cfg.AuthToken,
		client:    &http.Client{Timeout: timeout},
	}
}

// Upload sends the payload in one POST request, reporting progress as the
// body is consumed.
func (c *Client) Upload(ctx context.Context, name string, body io.Reader, size int64, progress ProgressFunc) error {
	reader := body
	if progress != nil && size > 0 {
		reader = &progressReader{reader: body, total: size, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, reader)
	if err != nil {
		return retry.Wrap(retry.ErrPermanent, "build upload request", err)
	}
	req.ContentLength = size
	c.setHeaders(req, name)

	return c.do(req, fmt.Sprintf("upload %s", name))
}

// UploadChunk sends one chunk in a PATCH request. The chunk index and
// total let the server order and finalize the sequence.
func (c *Client) UploadChunk(ctx context.Context, name string, body io.Reader, index, total int, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint, body)
	if err != nil {
		return retry.Wrap(retry.ErrPermanent, "build chunk request", err)
	}
	req.ContentLength = size
	c.setHeaders(req, name)
	req.Header.Set("X-Chunk-Index", strconv.Itoa(index))
	req.Header.Set("X-Chunk-Total", strconv.Itoa(total))

	return c.do(req, fmt.Sprintf("upload %s chunk %d/%d", name, index+1, total))
}

func (c *Client) setHeaders(req *http.Request, name string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Upload-Name", name)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

func (c *Client) do(req *http.Request, operation string) error {
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return retry.Wrap(retry.ErrTransient, operation, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return classifyStatus(operation, resp.StatusCode)
}

// classifyStatus maps an HTTP status to the retry taxonomy: 5xx and
// throttling are transient, remaining non-2xx responses are permanent.
func classifyStatus(operation string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500, status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return retry.Wrap(retry.ErrTransient, operation, fmt.Errorf("server returned %d", status))
	default:
		return retry.Wrap(retry.ErrPermanent, operation, fmt.Errorf("server returned %d", status))
	}
}

type progressReader struct {
	reader io.Reader
	total  int64
	sent   int64
	report ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.sent += int64(n)
		fraction := float64(r.sent) / float64(r.total)
		if fraction > 1 {
			fraction = 1
		}
		r.report(fraction)
	}
	return n, err
}
