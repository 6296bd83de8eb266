package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/oauth"
	"github.com/sangkips/billdesk/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Options configures a Client
type Options struct {
	BaseURL   string
	Prefix    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client talks to the billing API. Requests made before UseTokenSource is
// called, or through the public helpers, carry no credential.
type Client struct {
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
	public    *http.Client
	authed    *http.Client
	limiter   *rate.Limiter
	log       *zap.Logger
}

// New creates a client for the API rooted at opts.BaseURL + opts.Prefix
func New(opts Options) *Client {
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if prefix := strings.Trim(opts.Prefix, "/"); prefix != "" {
		base += "/" + prefix
	}

	return &Client{
		baseURL:   base,
		transport: opts.Transport,
		timeout:   opts.Timeout,
		public:    &http.Client{Transport: opts.Transport, Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		log:       opts.Logger,
	}
}

// UseTokenSource enables authenticated requests. The source is asked for a
// token on every request.
func (c *Client) UseTokenSource(src oauth2.TokenSource) {
	c.authed = oauth.NewBearerClient(c.transport, src, c.timeout)
}

// BaseURL returns the API root including the prefix
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get decodes the JSON response of an authenticated GET into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, true, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, true, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, true, http.MethodPut, path, nil, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, true, http.MethodPatch, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, true, http.MethodDelete, path, nil, nil, nil)
}

// PostPublic posts without a credential, for the auth endpoints
func (c *Client) PostPublic(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, false, http.MethodPost, path, nil, in, out)
}

// Upload posts r as a multipart file under field
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	if err := mw.Close(); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}

	resp, err := c.do(ctx, true, http.MethodPost, path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp, out)
}

// Download streams the response body of an authenticated GET into w and
// returns the filename the server suggested, if any
func (c *Client) Download(ctx context.Context, path string, query url.Values, w io.Writer) (string, error) {
	resp, err := c.do(ctx, true, http.MethodGet, path, query, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", apperror.NewNetworkError(err)
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return "", nil
	}
	return params["filename"], nil
}

func (c *Client) doJSON(ctx context.Context, auth bool, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperror.Wrap(apperror.ErrInternalServer, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, auth, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp, out)
}

// do sends one request and normalizes failures. A non-nil response always
// has a 2xx status.
func (c *Client) do(ctx context.Context, auth bool, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	httpClient := c.public
	if auth {
		if c.authed == nil {
			return nil, apperror.ErrUnauthorized
		}
		httpClient = c.authed
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.NewNetworkError(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInternalServer, err)
	}
	requestID := utils.NewRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		// Token source failures surface wrapped in *url.Error.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		c.log.Warn("api request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, apperror.NewNetworkError(err)
	}

	c.log.Debug("api request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, serverError(resp)
	}
	return resp, nil
}

func (c *Client) url(path string, query url.Values) string {
	path = strings.Trim(path, "/")
	u := c.baseURL + "/" + path
	if path != "" {
		u += "/"
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func decodeBody(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.Wrap(apperror.NewServerError(resp.StatusCode, "Unexpected response from server"), err)
	}
	return nil
}

// serverError builds a ServerError from the message, detail or error field
// of the payload. Field errors of the form {"field": ["msg"]} are kept.
func serverError(resp *http.Response) *apperror.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperror.NewServerError(resp.StatusCode, "")
	}

	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return apperror.NewServerError(resp.StatusCode, s)
		}
	}

	var fields []apperror.FieldError
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := firstMessage(payload[k]); msg != "" {
			fields = append(fields, apperror.FieldError{Field: k, Message: msg})
		}
	}

	appErr := apperror.NewServerError(resp.StatusCode, "")
	if len(fields) > 0 {
		appErr.Message = fields[0].Message
		if fields[0].Field != "non_field_errors" {
			appErr.Message = fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message)
		}
		appErr.Errors = fields
	}
	return appErr
}

func firstMessage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
