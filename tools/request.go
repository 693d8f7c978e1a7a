package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// DryRunResult is the stable dry-run contract: the exact request the live
// path would send.
type DryRunResult struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body,omitempty"`
	MappedParams map[string]any    `json:"mappedParams"`
}

// requestPlan is the transport-ready request produced by the builder.
type requestPlan struct {
	method      string
	url         string
	headers     map[string]string
	body        []byte
	contentType string
	mapped      map[string]any
}

func (p *requestPlan) dryRun() *DryRunResult {
	return &DryRunResult{
		URL:          p.url,
		Method:       p.method,
		Headers:      p.headers,
		Body:         string(p.body),
		MappedParams: p.mapped,
	}
}

// buildRequestPlan places each supplied argument into the part of the
// request its declared location names, then serializes the body according
// to the declared encoding. Declared parameters absent from the arguments
// are omitted; arguments without a declared location go to the body; path
// placeholders without a matching argument are left unresolved for the
// remote end to reject.
func buildRequestPlan(cfg *HTTPConfig, args map[string]any, headers map[string]string) (*requestPlan, error) {
	plan := &requestPlan{
		method:  cfg.Method,
		url:     cfg.URL,
		headers: maps.Clone(headers),
		mapped:  args,
	}
	if plan.headers == nil {
		plan.headers = map[string]string{}
	}

	query := url.Values{}
	body := map[string]any{}

	specs := cfg.Params
	if len(specs) == 0 {
		// No wire mapping declared: everything goes to the body.
		for name := range args {
			specs = append(specs, ParamSpec{Name: name, Location: LocationBody})
		}
	} else {
		// Arguments without a declared location default to the body
		// rather than being dropped from the wire.
		declared := make(map[string]bool, len(specs))
		for _, spec := range specs {
			declared[spec.Name] = true
		}
		for name := range args {
			if !declared[name] {
				specs = append(specs, ParamSpec{Name: name, Location: LocationBody})
			}
		}
	}

	for _, spec := range specs {
		v, ok := args[spec.Name]
		if !ok {
			continue
		}
		switch spec.Location {
		case LocationPath:
			plan.url = strings.ReplaceAll(plan.url, "{"+spec.Name+"}", url.PathEscape(coerceString(v)))
		case LocationQuery:
			encodeQueryValue(query, spec.Name, v)
		case LocationHeader:
			plan.headers[spec.Name] = coerceString(v)
		default:
			body[spec.Name] = v
		}
	}

	if enc := query.Encode(); enc != "" {
		sep := "?"
		if strings.Contains(plan.url, "?") {
			sep = "&"
		}
		plan.url += sep + enc
	}

	// An empty body map attaches no body regardless of encoding.
	if len(body) == 0 {
		return plan, nil
	}

	switch cfg.Encoding {
	case EncodingForm:
		form := url.Values{}
		for name, v := range body {
			form.Set(name, coerceString(v))
		}
		plan.body = []byte(form.Encode())
		plan.contentType = "application/x-www-form-urlencoded"
		plan.headers["Content-Type"] = plan.contentType
	case EncodingMultipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, name := range sortedKeys(body) {
			if err := w.WriteField(name, coerceString(body[name])); err != nil {
				return nil, errors.Wrap(err, "failed to write multipart field")
			}
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to finalize multipart body")
		}
		plan.body = buf.Bytes()
		// Content-Type is left unset here: the boundary belongs to the
		// transport, not to the declared headers.
		plan.contentType = w.FormDataContentType()
	default:
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize body")
		}
		plan.body = bs
		plan.contentType = "application/json"
		plan.headers["Content-Type"] = plan.contentType
	}

	return plan, nil
}

// encodeQueryValue stages one query parameter. Object values serialize
// with deep-bracket notation (parent[child]=value, recursively) so
// structured filters round-trip through a flat query string. Empty objects
// produce no parameter at all.
func encodeQueryValue(query url.Values, key string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for _, child := range sortedKeys(val) {
			encodeQueryValue(query, key+"["+child+"]", val[child])
		}
	case []any:
		for _, item := range val {
			query.Add(key, coerceString(item))
		}
	default:
		query.Set(key, coerceString(v))
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case nil:
		return ""
	default:
		bs, _ := json.Marshal(val)
		return string(bs)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (t *Tool) executeHTTP(ctx context.Context, args map[string]any, headers map[string]string, dryRun bool) (any, error) {
	plan, err := buildRequestPlan(t.config.HTTP, args, headers)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return plan.dryRun(), nil
	}

	var body io.Reader
	if len(plan.body) > 0 {
		body = bytes.NewReader(plan.body)
	}
	req, err := http.NewRequestWithContext(ctx, plan.method, plan.url, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for name, v := range plan.headers {
		req.Header.Set(name, v)
	}
	if plan.contentType != "" {
		req.Header.Set("Content-Type", plan.contentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return decodeResponse(resp.StatusCode, raw, plan.body)
}

// decodeResponse parses a response body as JSON, falling back to the raw
// text. Non-2xx responses become *APIError carrying the parsed body and
// the outgoing body for diagnostics.
func decodeResponse(status int, raw, requestBody []byte) (any, error) {
	var parsed any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			parsed = string(raw)
		}
	}
	if status < 200 || status > 299 {
		return nil, &APIError{
			StatusCode:  status,
			Response:    parsed,
			RequestBody: string(requestBody),
		}
	}
	return parsed, nil
}
