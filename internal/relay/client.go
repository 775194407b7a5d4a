package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"bakery-chat/internal/metrics"
	"bakery-chat/internal/store"
)

// DefaultURL is the Make.com scenario that receives conversation data.
const DefaultURL = "https://hook.eu2.make.com/iffn0r2fo7uex5vxeic3y2t93r8ul66t"

// DefaultTimeout bounds a single relay call.
const DefaultTimeout = 15 * time.Second

// Failure kinds reported by Error.
const (
	KindConnectionRefused = "connection_refused"
	KindTimeout           = "timeout"
	KindUpstreamStatus    = "upstream_status"
	KindUnexpected        = "unexpected"
)

// Config holds relay client configuration.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client forwards conversation data to the external webhook.
type Client struct {
	http    *resty.Client
	url     string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Result is returned to the caller after a 200 response from the webhook.
type Result struct {
	Success bool `json:"success"`
	// ConversationID is nil unless the webhook echoed a valid UUID.
	ConversationID  *string `json:"conversation_id"`
	Messages        any     `json:"messages,omitempty"`
	Timestamp       any     `json:"timestamp,omitempty"`
	WebhookResponse any     `json:"webhook_response"`
}

// Error describes a failed relay call.
type Error struct {
	Kind string
	// Status is the HTTP status to return to our own client.
	Status int
	// UpstreamStatus is the webhook's status code, or 0 without a response.
	UpstreamStatus int
	UpstreamBody   any
	Err            error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a relay client.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "bakery-chat-relay/1.0").
			SetTimeout(timeout),
		url:     url,
		logger:  logger.With("component", "relay"),
		metrics: m,
	}
}

// Forward posts {"conversation_data": data} to the webhook.
func (c *Client) Forward(ctx context.Context, data any) (*Result, error) {
	c.logger.Debug("forwarding conversation data", "url", c.url)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"conversation_data": data}).
		Post(c.url)
	elapsed := time.Since(start)

	if err != nil {
		rerr := transportError(err)
		c.observe(rerr.Kind, elapsed)
		c.logger.Error("webhook request failed", "kind", rerr.Kind, "duration", elapsed, "error", err)
		return nil, rerr
	}

	body := decodeBody(resp.Body())
	if resp.StatusCode() != http.StatusOK {
		rerr := statusError(resp.StatusCode(), body)
		c.observe(fmt.Sprintf("%d", resp.StatusCode()), elapsed)
		c.logger.Error("webhook returned error", "status", resp.StatusCode(), "duration", elapsed, "body", resp.String())
		return nil, rerr
	}
	c.observe("success", elapsed)
	c.logger.Info("webhook relayed", "status", resp.StatusCode(), "duration", elapsed)

	res := &Result{Success: true, WebhookResponse: body}
	if obj, ok := body.(map[string]any); ok {
		if id, ok := obj["conversation_id"].(string); ok && id != "" {
			if store.IsValidUUID(id) {
				res.ConversationID = &id
			} else {
				c.logger.Warn("webhook returned invalid conversation_id", "conversation_id", id)
			}
		}
		res.Messages = obj["messages"]
		res.Timestamp = obj["timestamp"]
	}
	return res, nil
}

func (c *Client) observe(status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.WebhookRequests.WithLabelValues(status).Inc()
	c.metrics.WebhookLatency.WithLabelValues(status).Observe(elapsed.Seconds())
	if status != "success" {
		c.metrics.Error("relay")
	}
}

func transportError(err error) *Error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Kind: KindConnectionRefused, Status: http.StatusServiceUnavailable, Err: err}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Err: err}
	}
	return &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Err: err}
}

func statusError(code int, body any) *Error {
	e := &Error{
		Kind:           KindUpstreamStatus,
		UpstreamStatus: code,
		UpstreamBody:   body,
		Err:            fmt.Errorf("request failed with status code %d", code),
	}
	switch {
	case code >= 200 && code < 300:
		// Only 200 counts as delivered.
		e.Kind = KindUnexpected
		e.UpstreamStatus = 0
		e.Status = http.StatusInternalServerError
		e.Err = fmt.Errorf("webhook returned status: %d", code)
	case code == http.StatusBadRequest, code == http.StatusUnauthorized,
		code == http.StatusForbidden, code == http.StatusNotFound:
		e.Status = code
	default:
		e.Status = http.StatusBadGateway
	}
	return e
}

// decodeBody returns the JSON value of b, or b as a string when it is not JSON.
func decodeBody(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	return v
}
