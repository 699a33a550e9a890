// Package openclaw implements the HTTP client for an OpenClaw agent gateway.
// It exposes the gateway's two call surfaces: structured tool invocation and
// an OpenAI-compatible chat completion endpoint used as a natural-language
// fallback when no structured tool exists for an operation.
package openclaw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayush-that/clawboard/internal/domain"
)

const (
	invokePath      = "/tools/invoke"
	completionsPath = "/v1/chat/completions"

	// invokeTimeout bounds structured tool calls, which are plain RPCs.
	invokeTimeout = 8 * time.Second
	// chatTimeout reflects model-inference latency, not network latency.
	// It must not be lowered to the tool-call budget.
	chatTimeout = 60 * time.Second

	// noResponsePlaceholder is returned when a chat call succeeds but the
	// reply carries no content. The call itself worked, so this is not an
	// error.
	noResponsePlaceholder = "No response"
)

// ErrPrivateTarget is returned when the configured gateway URL points at a
// private or malformed network target. No network I/O is performed.
var ErrPrivateTarget = errors.New("gateway URL points at a private or invalid target")

// TransportError is a failed gateway exchange: a non-2xx status, an
// ok:false envelope, or a missing result payload. The three are equivalent
// failure signals.
type TransportError struct {
	Status int
	Reason string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway error (status %d): %s", e.Status, e.Reason)
	}
	return "gateway error: " + e.Reason
}

// CallRecorder receives one observation per gateway round trip. surface is
// "invoke" or "chat"; status is "ok" or "error".
type CallRecorder interface {
	RecordGatewayCall(surface, status string, seconds float64)
}

// Client talks to an OpenClaw gateway. The gateway URL and token travel on
// every call in GatewaySettings, so one Client serves all tenants.
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	recorder     CallRecorder
	allowPrivate bool
}

// Option configures the gateway client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCallRecorder attaches a metrics recorder for gateway round trips.
func WithCallRecorder(r CallRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithPrivateTargets disables the SSRF guard. Reserved for tests and
// single-box deployments where the gateway deliberately listens on
// localhost; tenant-supplied URLs must never be dialed with this set.
func WithPrivateTargets() Option {
	return func(c *Client) { c.allowPrivate = true }
}

// NewClient creates an OpenClaw gateway client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InvokeTool calls a structured gateway tool and returns the result details.
// It fails when the HTTP status is not 2xx, the envelope reports ok:false,
// or the envelope carries no result details.
func (c *Client) InvokeTool(ctx context.Context, settings domain.GatewaySettings, tool string, args map[string]any, sessionKey string) (details json.RawMessage, err error) {
	if !c.allowPrivate && IsPrivateURL(settings.URL) {
		return nil, ErrPrivateTarget
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	defer func() { c.record("invoke", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	body, status, err := c.post(ctx, settings, invokePath, invokeRequest{
		Tool:       tool,
		Args:       args,
		SessionKey: sessionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking tool %q: %w", tool, err)
	}
	if status < 200 || status >= 300 {
		return nil, &TransportError{Status: status, Reason: "tool " + tool + " failed"}
	}

	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing tool %q response: %w", tool, err)
	}
	if !resp.OK {
		return nil, &TransportError{Reason: "tool " + tool + " reported ok=false"}
	}
	if resp.Result == nil || len(resp.Result.Details) == 0 {
		return nil, &TransportError{Reason: "tool " + tool + " returned no details"}
	}

	c.logger.DebugContext(ctx, "gateway tool call completed",
		slog.String("tool", tool),
		slog.String("session", sessionKey),
	)
	return resp.Result.Details, nil
}

// ChatCompletions sends a single user message to the gateway's
// OpenAI-compatible endpoint and returns the assistant reply text. A reply
// without content yields the "No response" placeholder, not an error: the
// exchange itself succeeded.
func (c *Client) ChatCompletions(ctx context.Context, settings domain.GatewaySettings, sessionKey, message string) (reply string, err error) {
	if !c.allowPrivate && IsPrivateURL(settings.URL) {
		return "", ErrPrivateTarget
	}

	start := time.Now()
	defer func() { c.record("chat", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	body, status, err := c.post(ctx, settings, completionsPath, chatRequest{
		Model:    "openclaw:" + sessionKey,
		Messages: []chatMessage{{Role: "user", Content: message}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", &TransportError{Status: status, Reason: "chat completion failed"}
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return noResponsePlaceholder, nil
	}

	c.logger.DebugContext(ctx, "gateway chat call completed",
		slog.String("session", sessionKey),
		slog.Int("reply_bytes", len(resp.Choices[0].Message.Content)),
	)
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) record(surface string, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.recorder.RecordGatewayCall(surface, status, time.Since(start).Seconds())
}

func (c *Client) post(ctx context.Context, settings domain.GatewaySettings, path string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.URL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if settings.Token != "" {
		req.Header.Set("Authorization", "Bearer "+settings.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// --- Gateway wire types (unexported) ---

type invokeRequest struct {
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args"`
	SessionKey string         `json:"sessionKey"`
}

type invokeResponse struct {
	OK     bool          `json:"ok"`
	Result *invokeResult `json:"result,omitempty"`
}

type invokeResult struct {
	Details json.RawMessage `json:"details,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatChoiceMessage `json:"message"`
}

type chatChoiceMessage struct {
	Content string `json:"content"`
}
