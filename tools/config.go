package tools

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Kind selects the execution backend of a tool. The set is closed: each
// kind has exactly one executor, selected by an exhaustive switch in
// Execute.
type Kind string

const (
	// KindHTTP executes by constructing an HTTP request from the declared
	// parameter locations.
	KindHTTP Kind = "http"
	// KindRPC executes by submitting a relay envelope to a protocol-relay
	// transport.
	KindRPC Kind = "rpc"
	// KindLocal executes a pure in-process function.
	KindLocal Kind = "local"
)

// Location tells the request builder where a parameter is placed on the
// wire.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
)

// Encoding selects the HTTP body serialization.
type Encoding string

const (
	EncodingJSON      Encoding = "json"
	EncodingForm      Encoding = "form"
	EncodingMultipart Encoding = "multipart-form"
)

// ParamSpec describes where one declared parameter goes on the wire.
// An empty or unknown location defaults to the body.
type ParamSpec struct {
	Name     string   `json:"name"`
	Location Location `json:"location,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// HTTPConfig describes a direct HTTP operation. The URL may embed
// `{param}` path placeholders.
type HTTPConfig struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Encoding Encoding    `json:"encoding,omitempty"`
	Params   []ParamSpec `json:"params,omitempty"`
}

// SlotKeys maps the logical relay payload slots to the keys used when
// constructing the envelope.
type SlotKeys struct {
	Action  string `json:"action"`
	Body    string `json:"body"`
	Headers string `json:"headers"`
	Path    string `json:"path"`
	Query   string `json:"query"`
}

// DefaultSlotKeys returns the canonical envelope keys.
func DefaultSlotKeys() SlotKeys {
	return SlotKeys{
		Action:  "action",
		Body:    "body",
		Headers: "headers",
		Path:    "path",
		Query:   "query",
	}
}

// RPCConfig describes a relay-backed operation.
type RPCConfig struct {
	Method string   `json:"method"`
	URL    string   `json:"url"`
	Slots  SlotKeys `json:"slots"`
}

// LocalFunc is the in-process execution closure of a local tool.
type LocalFunc func(ctx context.Context, args map[string]any) (any, error)

// LocalConfig describes an in-process tool. Each instance supplies its
// own Run closure; there is no generic local behavior.
type LocalConfig struct {
	ID          string
	Description string
	Run         LocalFunc
}

// ExecuteConfig is the tagged union describing how a tool performs its
// side effect. Kind never changes after construction.
type ExecuteConfig struct {
	Kind  Kind
	HTTP  *HTTPConfig
	RPC   *RPCConfig
	Local *LocalConfig
}

// NewHTTPConfig creates an http-backed execute config.
func NewHTTPConfig(cfg HTTPConfig) *ExecuteConfig {
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingJSON
	}
	return &ExecuteConfig{Kind: KindHTTP, HTTP: &cfg}
}

// NewRPCConfig creates an rpc-backed execute config.
func NewRPCConfig(cfg RPCConfig) *ExecuteConfig {
	if cfg.Slots == (SlotKeys{}) {
		cfg.Slots = DefaultSlotKeys()
	}
	return &ExecuteConfig{Kind: KindRPC, RPC: &cfg}
}

// NewLocalConfig creates a local execute config.
func NewLocalConfig(cfg LocalConfig) *ExecuteConfig {
	return &ExecuteConfig{Kind: KindLocal, Local: &cfg}
}

// Validate checks that the config carries the payload its kind requires.
func (c *ExecuteConfig) Validate() error {
	switch c.Kind {
	case KindHTTP:
		if c.HTTP == nil || c.HTTP.Method == "" || c.HTTP.URL == "" {
			return errors.New("http config requires method and url")
		}
	case KindRPC:
		if c.RPC == nil || c.RPC.URL == "" {
			return errors.New("rpc config requires url")
		}
	case KindLocal:
		if c.Local == nil || c.Local.Run == nil {
			return errors.New("local config requires a run function")
		}
	default:
		return errors.Errorf("unknown execute kind: %q", c.Kind)
	}
	return nil
}
