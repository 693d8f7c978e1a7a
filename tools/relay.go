package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// RelayCaller submits a relay envelope to a protocol-relay transport and
// returns the decoded response.
type RelayCaller interface {
	CallAction(ctx context.Context, method, url string, headers map[string]string, envelope map[string]any) (any, error)
}

// RelayClient is the default RelayCaller: it posts the envelope as JSON.
type RelayClient struct {
	client *http.Client
}

// NewRelayClient creates a relay transport over the given HTTP client.
func NewRelayClient(client *http.Client) *RelayClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &RelayClient{client: client}
}

var _ RelayCaller = (*RelayClient)(nil)

// CallAction implements RelayCaller.
func (c *RelayClient) CallAction(ctx context.Context, method, url string, headers map[string]string, envelope map[string]any) (any, error) {
	bs, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize envelope")
	}
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bs))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for name, v := range headers {
		req.Header.Set(name, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "relay call failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return decodeResponse(resp.StatusCode, raw, bs)
}

// reserved top-level argument keys for the relay backend.
const (
	relayKeyPath    = "path"
	relayKeyQuery   = "query"
	relayKeyHeaders = "headers"
	relayKeyBody    = "body"
)

// executeRelay partitions the arguments into the four reserved buckets,
// merges any remaining top-level keys into the body bucket, and submits
// one envelope to the relay transport. The caller-supplied Authorization
// header is always stripped: credentials come from the toolset, never
// from arguments.
func (t *Tool) executeRelay(ctx context.Context, args map[string]any, headers map[string]string, dryRun bool) (any, error) {
	cfg := t.config.RPC

	body := map[string]any{}
	pathArgs := map[string]any{}
	queryArgs := map[string]any{}
	headerArgs := map[string]any{}

	for name, v := range args {
		switch name {
		case relayKeyPath:
			mergeBucket(pathArgs, v)
		case relayKeyQuery:
			mergeBucket(queryArgs, v)
		case relayKeyHeaders:
			mergeBucket(headerArgs, v)
		case relayKeyBody:
			mergeBucket(body, v)
		default:
			body[name] = v
		}
	}
	for name := range headerArgs {
		if strings.EqualFold(name, "Authorization") {
			delete(headerArgs, name)
		}
	}

	envelope := map[string]any{
		cfg.Slots.Action: t.name,
	}
	if len(body) > 0 {
		envelope[cfg.Slots.Body] = body
	}
	if len(headerArgs) > 0 {
		envelope[cfg.Slots.Headers] = headerArgs
	}
	if len(pathArgs) > 0 {
		envelope[cfg.Slots.Path] = pathArgs
	}
	if len(queryArgs) > 0 {
		envelope[cfg.Slots.Query] = queryArgs
	}

	if dryRun {
		bs, err := json.Marshal(envelope)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize envelope")
		}
		return &DryRunResult{
			URL:          cfg.URL,
			Method:       cfg.Method,
			Headers:      headers,
			Body:         string(bs),
			MappedParams: args,
		}, nil
	}

	relay := t.relay
	if relay == nil {
		relay = NewRelayClient(t.client)
	}
	return relay.CallAction(ctx, cfg.Method, cfg.URL, headers, envelope)
}

func mergeBucket(dst map[string]any, v any) {
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			dst[k] = val
		}
	}
}
