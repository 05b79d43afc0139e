// Package fcm entrega notificaciones push vía la API HTTP v1 de Firebase Cloud Messaging.
package fcm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"

	"diapets/internal/platform/httpclient"
	"diapets/internal/platform/logger"
	"diapets/internal/ports/push"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	DefaultBaseURL = "https://fcm.googleapis.com"
)

type Config struct {
	ProjectID     string
	BaseURL       string
	Timeout       time.Duration // por dirección
	RatePerSecond float64
}

// Transport implementa push.Transport. Un request por token; FCM v1 no tiene multicast.
type Transport struct {
	client  *httpclient.Client
	project string
	timeout time.Duration
	limiter *rate.Limiter
	log     logger.Logger
}

// New lee la cuenta de servicio de credPath y arma un cliente con OAuth2.
func New(ctx context.Context, cfg Config, credPath string, log logger.Logger) (*Transport, error) {
	raw, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("fcm: read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("fcm: parse credentials: %w", err)
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = creds.ProjectID
	}

	tr := &oauth2.Transport{Source: creds.TokenSource, Base: http.DefaultTransport}
	return newTransport(cfg, tr, log)
}

// NewWithRoundTripper es para tests y entornos con auth ya resuelta.
func NewWithRoundTripper(cfg Config, rt http.RoundTripper, log logger.Logger) (*Transport, error) {
	return newTransport(cfg, rt, log)
}

func newTransport(cfg Config, rt http.RoundTripper, log logger.Logger) (*Transport, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("fcm: project id required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("fcm: %w", err)
	}
	hc.WithTransport(rt)

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Transport{
		client:  hc,
		project: cfg.ProjectID,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, 1),
		log:     log.With(map[string]any{"component": "fcm"}),
	}, nil
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type sendResponse struct {
	Name string `json:"name"`
}

func (t *Transport) Send(ctx context.Context, addresses []string, msg push.Message) []push.Result {
	out := make([]push.Result, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, push.Result{Address: addr, Err: t.sendOne(ctx, addr, msg)})
	}
	return out
}

func (t *Transport) sendOne(ctx context.Context, token string, msg push.Message) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("fcm: empty token")
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("fcm: rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body := sendRequest{Message: message{
		Token:        token,
		Notification: notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}}

	var resp sendResponse
	path := fmt.Sprintf("/v1/projects/%s/messages:send", t.project)
	if err := t.client.DoJSON(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		if status, ok := httpclient.StatusOf(err); ok && status == http.StatusNotFound {
			// token desregistrado en FCM
			return fmt.Errorf("fcm: token unregistered: %w", err)
		}
		return fmt.Errorf("fcm: send: %w", err)
	}

	t.log.Debug("push sent", map[string]any{"message": resp.Name})
	return nil
}
