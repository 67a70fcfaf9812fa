// Package httpclient implements the outbound side of the A2A dialect: a
// client the Coordinator (and any agent calling a peer directly) uses to
// invoke message/send, tasks/get, and tasks/cancel over HTTP. Adapted from
// the teacher's runtime/a2a/httpclient/client.go, generalized from a
// single fixed suite/skill pair to the SendMessagePayload's
// agentRole/skillName addressing, and wired through pkg/a2a/retry and
// pkg/breaker so message/send calls get the module's bounded-backoff
// retry and per-peer circuit breaking instead of the teacher's bare
// *http.Client.Do. tasks/get and tasks/cancel are sent once, without
// retry or the breaker.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/retry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
)

// Option configures the Client.
type Option func(*Client)

// Client is a JSON-RPC HTTP client bound to one peer agent's /a2a endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	headers  http.Header
	id       uint64
	breaker  *breaker.Breaker
	retryCfg retry.Config
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      uint64 `json:"id"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      uint64          `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("a2a error %d: %s", e.Code, e.Message)
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithHeader adds a static header sent with every request.
func WithHeader(name, value string) Option {
	return func(cl *Client) {
		if cl.headers == nil {
			cl.headers = make(http.Header)
		}
		cl.headers.Add(name, value)
	}
}

// WithBearerToken configures the Authorization: Bearer header (§5 auth).
func WithBearerToken(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithBreaker attaches a circuit breaker guarding calls through this
// client — callers pass the breaker keyed by the peer's role name so one
// misbehaving peer does not exhaust the caller's retry budget on every
// call (§4.2).
func WithBreaker(b *breaker.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

// WithRetryConfig overrides the default retry schedule.
func WithRetryConfig(cfg retry.Config) Option {
	return func(cl *Client) { cl.retryCfg = cfg }
}

// New constructs a Client bound to endpoint, the remote agent's /a2a URL.
func New(endpoint string, opts ...Option) *Client {
	cl := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		headers:  make(http.Header),
		retryCfg: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cl)
		}
	}
	return cl
}

func (c *Client) nextID() uint64 { return atomic.AddUint64(&c.id, 1) }

// SendMessage invokes message/send on the peer, retrying transient
// failures per pkg/a2a/retry and, if a breaker is configured, rejecting
// calls immediately while the peer's breaker is open.
func (c *Client) SendMessage(ctx context.Context, p types.SendMessagePayload) (*types.Task, error) {
	var result json.RawMessage
	call := func(ctx context.Context) error {
		raw, err := c.do(ctx, "message/send", p)
		if err != nil {
			return err
		}
		result = raw
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(ctx, func(ctx context.Context) error {
			return retry.Do(ctx, c.retryCfg, call)
		})
	} else {
		err = retry.Do(ctx, c.retryCfg, call)
	}
	if err != nil {
		return nil, err
	}

	var t types.Task
	if err := json.Unmarshal(result, &t); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return &t, nil
}

// GetTask invokes tasks/get on the peer.
func (c *Client) GetTask(ctx context.Context, id string) (*types.Task, error) {
	raw, err := c.do(ctx, "tasks/get", types.GetTaskPayload{ID: id})
	if err != nil {
		return nil, err
	}
	var t types.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return &t, nil
}

// CancelTask invokes tasks/cancel on the peer.
func (c *Client) CancelTask(ctx context.Context, id string) (*types.Task, error) {
	raw, err := c.do(ctx, "tasks/cancel", types.CancelTaskPayload{ID: id})
	if err != nil {
		return nil, err
	}
	var t types.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := rpcRequest{JSONRPC: "2.0", Method: method, ID: c.nextID(), Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPStatusError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("a2a http status %d", resp.StatusCode)}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, err
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
