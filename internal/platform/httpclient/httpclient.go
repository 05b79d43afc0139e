package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second
	userAgent      = "diapets/1"

	// cota del cuerpo que se copia a HTTPError
	maxErrorBody = 4 << 10
)

var (
	ErrNilClient     = errors.New("httpclient: nil client")
	ErrEmptyURL      = errors.New("httpclient: empty url")
	ErrNoBaseURL     = errors.New("httpclient: relative path requires BaseURL")
	errRestyNotReady = errors.New("httpclient: resty client not initialised")
)

// Client envuelve *resty.Client para los adapters salientes (FCM, auth remoto).
type Client struct {
	R       *resty.Client
	BaseURL string // vacío = DoJSON solo acepta URLs absolutas
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{R: resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)}
}

// NewWithBaseURL valida baseURL y la guarda sin "/" final.
func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	c := New(timeout)
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return c, nil
	}
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url: unsupported scheme %q", u.Scheme)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// WithTransport reemplaza el RoundTripper (oauth2 en FCM, stubs en tests).
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	if c != nil && c.R != nil && rt != nil {
		c.R.SetTransport(rt)
	}
	return c
}

// WithRetries reintenta errores de red y respuestas 5xx.
func (c *Client) WithRetries(count int, wait time.Duration) *Client {
	if c == nil || c.R == nil || count <= 0 {
		return c
	}
	c.R.SetRetryCount(count).
		SetRetryWaitTime(wait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	return c
}

// HTTPError es una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StatusOf extrae el status si err envuelve un *HTTPError.
func StatusOf(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode, true
	}
	return 0, false
}

// DoJSON envía in (si no es nil) como JSON y decodifica la respuesta en out.
// pathOrURL puede ser relativo a BaseURL. Los no-2xx vuelven como *HTTPError.
func (c *Client) DoJSON(ctx context.Context, method, pathOrURL string, headers map[string]string, in, out any) error {
	if c == nil {
		return ErrNilClient
	}
	if c.R == nil {
		return errRestyNotReady
	}

	target, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	req := c.R.R().SetContext(ctx)
	for k, v := range headers {
		if k = strings.TrimSpace(k); k != "" {
			req.SetHeader(k, v)
		}
	}
	if in != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(in)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return fmt.Errorf("httpclient: %s %s: %w", method, target, err)
	}

	raw := resp.Body()
	if !resp.IsSuccess() {
		msg := raw
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &HTTPError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	p := strings.TrimSpace(pathOrURL)
	switch {
	case p == "":
		return "", ErrEmptyURL
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return p, nil
	case c.BaseURL == "":
		return "", ErrNoBaseURL
	}
	return c.BaseURL + "/" + strings.TrimLeft(p, "/"), nil
}
