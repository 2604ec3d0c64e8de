package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// Client is the chain RPC collaborator the verifier consumes. A nil
// transaction with a nil error means the signature was not found.
type Client interface {
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)
}

// RPCClient is a JSON-RPC implementation of Client. Public endpoints
// rate-limit aggressively, so requests pass through a token bucket.
type RPCClient struct {
	endpoint string
	httpc    *http.Client
	limiter  *rate.Limiter
}

// RPCOption configures an RPCClient.
type RPCOption func(*RPCClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) RPCOption {
	return func(r *RPCClient) { r.httpc = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) RPCOption {
	return func(r *RPCClient) { r.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewRPCClient creates a client against a fixed endpoint.
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	c := &RPCClient{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClusterClient resolves the endpoint for a cluster (honoring a non-empty
// rpcURL override) and returns a client for it.
func NewClusterClient(cluster trace.Cluster, rpcURL string, opts ...RPCOption) (*RPCClient, error) {
	endpoint, err := Endpoint(cluster, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewRPCClient(endpoint, opts...), nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// GetParsedTransaction fetches a transaction by signature with jsonParsed
// encoding. Returns (nil, nil) when the chain does not know the signature.
func (c *RPCClient) GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("chain: rate limit wait: %w", err)
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTransaction",
		Params: []any{signature, map[string]any{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("chain: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("chain: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chain: %s returned status %d", c.endpoint, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("chain: decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("chain: %w", out.Error)
	}
	if len(out.Result) == 0 || string(out.Result) == "null" {
		return nil, nil
	}

	var tx ParsedTransaction
	if err := json.Unmarshal(out.Result, &tx); err != nil {
		return nil, fmt.Errorf("chain: parse transaction: %w", err)
	}
	return &tx, nil
}
