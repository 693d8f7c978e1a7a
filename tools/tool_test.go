package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/employees", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var args map[string]any
		require.NoError(t, json.Unmarshal(body, &args))
		assert.Equal(t, "Ada", args["first_name"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"e1","first_name":"Ada"}`))
	}))
	defer srv.Close()

	tool, err := tools.New("hris_create_employee", "Creates an employee.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodPost,
			URL:    srv.URL + "/employees",
			Params: []tools.ParamSpec{
				{Name: "first_name", Type: "string"},
			},
		}),
		tools.WithHeaders(map[string]string{"Authorization": "Bearer token-1"}),
	)
	require.NoError(t, err)

	res, err := tool.Execute(t.Context(), map[string]any{"first_name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "e1", "first_name": "Ada"}, res)
}

func TestExecuteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"first_name is required"}`))
	}))
	defer srv.Close()

	tool, err := tools.New("hris_create_employee", "Creates an employee.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodPost,
			URL:    srv.URL + "/employees",
			Params: []tools.ParamSpec{
				{Name: "last_name", Type: "string"},
			},
		}))
	require.NoError(t, err)

	_, err = tool.Execute(t.Context(), map[string]any{"last_name": "Lovelace"})
	require.Error(t, err)

	var te *tools.ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "hris_create_employee", te.Tool)

	var apiErr *tools.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, map[string]any{"error": "first_name is required"}, apiErr.Response)
	assert.Contains(t, apiErr.RequestBody, "Lovelace")
}

func TestExecuteStringArguments(t *testing.T) {
	tool, err := tools.New("hris_get_employee", "Gets one employee.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodGet,
			URL:    "https://api.example.com/employees/{id}",
			Params: []tools.ParamSpec{
				{Name: "id", Location: tools.LocationPath, Type: "string"},
			},
		}))
	require.NoError(t, err)

	// LLM-style payload with prose and backticks around the JSON
	res, err := tool.Execute(t.Context(), "```json\n{\"id\": \"e1\"}\n```", tools.WithDryRun())
	require.NoError(t, err)
	dr := res.(*tools.DryRunResult)
	assert.Equal(t, "https://api.example.com/employees/e1", dr.URL)
}

func TestExecuteRejectsBadArguments(t *testing.T) {
	tool, err := tools.New("hris_get_employee", "Gets one employee.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodGet,
			URL:    "https://api.example.com/employees",
		}))
	require.NoError(t, err)

	_, err = tool.Execute(t.Context(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrInvalidArguments))

	_, err = tool.Execute(t.Context(), "not json at all")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrInvalidArguments))
}

func TestPerCallHeadersDoNotMutateTool(t *testing.T) {
	tool, err := tools.New("hris_list_employees", "Lists employees.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodGet,
			URL:    "https://api.example.com/employees",
		}),
		tools.WithHeaders(map[string]string{"X-Account-Id": "acct_1"}),
	)
	require.NoError(t, err)

	dr := dryRun(t, tool, nil)
	assert.Equal(t, "acct_1", dr.Headers["X-Account-Id"])

	res, err := tool.Execute(t.Context(), nil,
		tools.WithDryRun(),
		tools.WithCallHeaders(map[string]string{"X-Account-Id": "acct_2"}))
	require.NoError(t, err)
	assert.Equal(t, "acct_2", res.(*tools.DryRunResult).Headers["X-Account-Id"])

	// the tool's own headers are unchanged
	assert.Equal(t, "acct_1", tool.Headers()["X-Account-Id"])
}

func TestSetHeadersReplacesMap(t *testing.T) {
	tool, err := tools.New("hris_list_employees", "Lists employees.", nil,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodGet,
			URL:    "https://api.example.com/employees",
		}))
	require.NoError(t, err)

	before := tool.Headers()
	tool.SetHeaders(map[string]string{"X-Account-Id": "acct_9"})
	assert.Empty(t, before)
	assert.Equal(t, "acct_9", tool.Headers()["X-Account-Id"])
}

func TestLocalTool(t *testing.T) {
	tool, err := tools.New("local_echo", "Echoes arguments.", nil,
		tools.NewLocalConfig(tools.LocalConfig{
			ID: "local_echo",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return args, nil
			},
		}))
	require.NoError(t, err)

	res, err := tool.Execute(t.Context(), map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, res)
}

func TestToolCallbackEvents(t *testing.T) {
	cb := &recordingCallback{}
	tool, err := tools.New("local_fail", "Always fails.", nil,
		tools.NewLocalConfig(tools.LocalConfig{
			ID: "local_fail",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return nil, errors.New("boom")
			},
		}),
		tools.WithToolCallback(cb),
	)
	require.NoError(t, err)

	_, err = tool.Execute(t.Context(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, cb.started)
	assert.Equal(t, 1, cb.failed)
	assert.Equal(t, 0, cb.ended)
}

type recordingCallback struct {
	started int
	ended   int
	failed  int
}

func (c *recordingCallback) OnToolStart(ctx context.Context, tool tools.ITool, args map[string]any) {
	c.started++
}

func (c *recordingCallback) OnToolEnd(ctx context.Context, tool tools.ITool, result any) {
	c.ended++
}

func (c *recordingCallback) OnToolError(ctx context.Context, tool tools.ITool, err error) {
	c.failed++
}

func TestNewValidation(t *testing.T) {
	_, err := tools.New("", "no name", nil, tools.NewHTTPConfig(tools.HTTPConfig{
		Method: http.MethodGet,
		URL:    "https://api.example.com",
	}))
	require.Error(t, err)

	_, err = tools.New("x", "no config", nil, nil)
	require.Error(t, err)

	_, err = tools.New("x", "bad http", nil, tools.NewHTTPConfig(tools.HTTPConfig{}))
	require.Error(t, err)

	_, err = tools.New("x", "bad local", nil, tools.NewLocalConfig(tools.LocalConfig{ID: "x"}))
	require.Error(t, err)
}
