// Package rpcclient is a typed client for a Neo N3 node's JSON-RPC 2.0
// endpoint. Parameters are an ordered union (string, uint64, bool, array,
// or an ordered-pair object) because argument order is semantic for some
// methods.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client posts JSON-RPC 2.0 requests to a single Neo N3 node endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	id int64
}

// New builds a Client against baseURL. A zero timeout leaves the underlying
// http.Client with no deadline, matching the source's lack of per-call
// timeouts (see the open question in the indexer pipeline design notes).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(50), 50),
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// orderedPair is a single key/value pair; ObjectParam preserves order across
// several of them, since the node treats parameter object field order as
// significant for some methods (e.g. invocation argument structs).
type orderedPair struct {
	Key   string
	Value any
}

// ObjectParam builds an order-preserving object parameter.
func ObjectParam(pairs ...orderedPair) json.Marshaler {
	return orderedObject(pairs)
}

// Pair is a convenience constructor for an ObjectParam field.
func Pair(key string, value any) orderedPair {
	return orderedPair{Key: key, Value: value}
}

type orderedObject []orderedPair

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// call issues a single JSON-RPC request and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	c.id++
	req := request{JSONRPC: "2.0", ID: c.id, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpcclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpcclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &transientError{method: method, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &transientError{method: method, err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var rpcResp response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("rpcclient: %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpcclient: %s: %w", method, rpcResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("rpcclient: %s: decode result: %w", method, err)
	}
	return nil
}

// transientError marks a call failure as worth retrying: a transport-level
// error or a 5xx from the node, as opposed to a well-formed RPC error
// response (which is assumed permanent for the given arguments).
type transientError struct {
	method string
	err    error
}

func (e *transientError) Error() string { return fmt.Sprintf("rpcclient: %s: %v", e.method, e.err) }
func (e *transientError) Unwrap() error { return e.err }

const (
	maxRetries  = 5
	baseBackoff = 500 * time.Millisecond
)

// withRetry calls fn up to maxRetries times in total, with exponential backoff,
// but only when it fails with a transientError — a logical RPC error (bad
// params, node rejected the call) is assumed permanent and returned as-is.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}
		wait := baseBackoff * time.Duration(1<<i)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("rpcclient: max retries reached: %w", lastErr)
}

// GetCurrentHeight maps to getblockcount. Idempotent, so transient
// transport failures are retried with backoff.
func (c *Client) GetCurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := withRetry(ctx, func() error {
		return c.call(ctx, "getblockcount", nil, &height)
	})
	if err != nil {
		return 0, err
	}
	return height, nil
}

// GetBlock maps to getblock(height, 1): a full verbose block including its
// transaction envelopes, no application log. Idempotent, so transient
// transport failures are retried with backoff.
func (c *Client) GetBlock(ctx context.Context, height uint64) (*BlockResult, error) {
	var block BlockResult
	err := withRetry(ctx, func() error {
		return c.call(ctx, "getblock", []any{height, 1}, &block)
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// GetApplicationLog maps to getapplicationlog(hash). T is either the
// block-app-log or transaction-app-log shape.
func GetApplicationLog[T any](ctx context.Context, c *Client, hash string) (*T, error) {
	var out T
	if err := c.call(ctx, "getapplicationlog", []any{hash}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchFullBlock composes GetBlock and GetApplicationLog for a height.
func (c *Client) FetchFullBlock(ctx context.Context, height uint64) (*BlockResult, *BlockAppLog, error) {
	block, err := c.GetBlock(ctx, height)
	if err != nil {
		return nil, nil, err
	}
	appLog, err := GetApplicationLog[BlockAppLog](ctx, c, block.Hash)
	if err != nil {
		return nil, nil, err
	}
	return block, appLog, nil
}

// FetchFullTransaction composes the transaction application log for an
// already-flattened transaction envelope.
func (c *Client) FetchFullTransaction(ctx context.Context, tx TransactionResult) (*TransactionResult, *TransactionAppLog, error) {
	appLog, err := GetApplicationLog[TransactionAppLog](ctx, c, tx.Hash)
	if err != nil {
		return nil, nil, err
	}
	return &tx, appLog, nil
}

// InvokeFunctionHistoric maps to invokefunctionhistoric(block, scriptHash,
// op, [params]).
func (c *Client) InvokeFunctionHistoric(ctx context.Context, block uint64, scriptHash, op string, args []any) (*Execution, error) {
	var exec Execution
	params := []any{block, scriptHash, op, args}
	if err := c.call(ctx, "invokefunctionhistoric", params, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetBalanceOfHistoric invokes balanceOf(Hash160:address) at block and
// returns the parsed balance. A call failure (transport error or rejected
// RPC) propagates rather than defaulting, since it may mean the node
// cannot serve the range at all; only a non-HALT execution or an
// unparseable stack value degrades to a zero balance, matching a contract
// that genuinely reports none.
func (c *Client) GetBalanceOfHistoric(ctx context.Context, block uint64, tokenHash string, addressHash160 []byte) (int64, error) {
	args := []any{
		ObjectParam(Pair("type", "Hash160"), Pair("value", hexEncode(addressHash160))),
	}

	exec, err := c.InvokeFunctionHistoric(ctx, block, tokenHash, "balanceOf", args)
	if err != nil {
		return 0, err
	}
	if exec.State != "HALT" || len(exec.Stack) == 0 {
		return 0, nil
	}

	return parseDecimalInt(exec.Stack[0].Value), nil
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}

func parseDecimalInt(raw any) int64 {
	s, ok := raw.(string)
	if !ok {
		return 0
	}
	var n int64
	var sign int64 = 1
	i := 0
	if len(s) > 0 && s[0] == '-' {
		sign = -1
		i = 1
	}
	if i == len(s) {
		return 0
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		n = n*10 + int64(s[i]-'0')
	}
	return sign * n
}
