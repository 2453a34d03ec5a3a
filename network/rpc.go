package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/atomic"
)

// DefaultTimeout bounds a single RPC round trip.
const DefaultTimeout = 30 * time.Second

// RPCClient is a JSON-RPC 1.0 client for a BSV node. The typed methods in
// rpc_blockchain.go are all built on Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("network: rpc error %d: %s", e.Code, e.Message)
}

// NewRPCClient creates a client for cfg. Basic auth is sent when User is set.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes method and decodes the result into result, which may be nil.
//
// Transport failures wrap ErrConnectionFailed, HTTP 401/403 wrap
// ErrAuthFailed and undecodable bodies wrap ErrInvalidResponse. A node-side
// error is returned as *RPCError; nodes report those with HTTP 500, so the
// body is decoded before the status is judged.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	id := c.nextID.Inc()
	body, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", ErrAuthFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(raw, 1024))
		}
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if rpcResp.ID != id {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d", ErrInvalidResponse, id, rpcResp.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
