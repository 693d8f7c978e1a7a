package tools_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/tools"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadTool(t *testing.T) *tools.Tool {
	t.Helper()
	params := tools.NewParameters().
		WithProperty("file_content", &jsonschema.Schema{Type: "string"}, true).
		WithProperty("file_name", &jsonschema.Schema{Type: "string"}, true).
		WithProperty("file_format", &jsonschema.Schema{Type: "string"}, false).
		WithProperty("category", &jsonschema.Schema{Type: "string"}, false)

	tool, err := tools.New("documents_upload", "Uploads a document.", params,
		tools.NewHTTPConfig(tools.HTTPConfig{
			Method: http.MethodPost,
			URL:    "https://api.example.com/documents",
			Params: []tools.ParamSpec{
				{Name: "file_content", Type: "string"},
				{Name: "file_name", Type: "string"},
				{Name: "file_format", Type: "string"},
				{Name: "category", Type: "string"},
			},
		}))
	require.NoError(t, err)
	return tool
}

func TestDeriveSchemaOverrideAndRoundTrip(t *testing.T) {
	tool := newUploadTool(t)

	derived, err := tools.Derive(tool, tools.DeriveConfig{
		Override: func(p *tools.Parameters) *tools.Parameters {
			np := p.WithoutProperties("file_content", "file_name", "file_format")
			return np.WithProperty("file_ref", &jsonschema.Schema{
				Type:        "string",
				Description: "Reference to an uploaded file.",
			}, true)
		},
		PreExecute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			ref, ok := args["file_ref"].(string)
			if !ok {
				return nil, errors.New("file_ref is not set")
			}
			out := map[string]any{
				"file_content": base64.StdEncoding.EncodeToString([]byte("content of " + ref)),
				"file_name":    ref,
				"file_format":  "txt",
			}
			if cat, ok := args["category"]; ok {
				out["category"] = cat
			}
			return out, nil
		},
	})
	require.NoError(t, err)

	// advertised schema has the simplified shape
	names := derived.Parameters().Names()
	assert.NotContains(t, names, "file_content")
	assert.Contains(t, names, "file_ref")
	assert.True(t, derived.Parameters().IsRequired("file_ref"))

	// the original tool is untouched
	assert.Contains(t, tool.Parameters().Names(), "file_content")

	dr := dryRun(t, derived, map[string]any{"file_ref": "notes.txt"})
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(dr.Body), &body))
	assert.Equal(t, "notes.txt", body["file_name"])
	assert.Equal(t, "txt", body["file_format"])
	assert.NotEmpty(t, body["file_content"])
	assert.NotContains(t, body, "file_ref")
	assert.NotContains(t, dr.MappedParams, "file_ref")
}

func TestDerivePreservesSurvivingRequired(t *testing.T) {
	tool := newUploadTool(t)

	derived, err := tools.Derive(tool, tools.DeriveConfig{
		Override: func(p *tools.Parameters) *tools.Parameters {
			// an override dropping file_name from required without
			// removing the property does not get to demote it
			np := p.WithoutProperties("file_content")
			np.Required = []string{}
			return np
		},
	})
	require.NoError(t, err)
	assert.True(t, derived.Parameters().IsRequired("file_name"))
	assert.False(t, derived.Parameters().IsRequired("file_content"))
}

func TestDeriveFailureIsFatal(t *testing.T) {
	tool := newUploadTool(t)

	derived, err := tools.Derive(tool, tools.DeriveConfig{
		PreExecute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, errors.New("referenced resource does not exist")
		},
	})
	require.NoError(t, err)

	_, err = derived.Execute(t.Context(), map[string]any{"file_ref": "gone.txt"}, tools.WithDryRun())
	require.Error(t, err)

	var de *tools.DerivationError
	require.True(t, errors.As(err, &de))
}

func TestExpandField(t *testing.T) {
	pre := tools.ExpandField("file_ref", map[string]tools.FieldFunc{
		"file_name": func(v any) (any, error) {
			return v, nil
		},
		"file_format": func(v any) (any, error) {
			return tools.NoValue, nil
		},
	})

	out, err := pre(t.Context(), map[string]any{"file_ref": "notes.txt", "category": "hr"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"file_name": "notes.txt", "category": "hr"}, out)
}

func TestExpandFieldMissingSource(t *testing.T) {
	pre := tools.ExpandField("file_ref", map[string]tools.FieldFunc{
		"file_name": func(v any) (any, error) {
			return v, nil
		},
	})

	_, err := pre(t.Context(), map[string]any{"category": "hr"})
	require.Error(t, err)

	var de *tools.DerivationError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "file_ref", de.Source)
	assert.Equal(t, []string{"file_name"}, de.Targets)
}

func TestExpandFieldTargetError(t *testing.T) {
	pre := tools.ExpandField("file_ref", map[string]tools.FieldFunc{
		"file_content": func(v any) (any, error) {
			return nil, errors.New("no such file")
		},
	})

	_, err := pre(t.Context(), map[string]any{"file_ref": "gone.txt"})
	require.Error(t, err)

	var de *tools.DerivationError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"file_content"}, de.Targets)
}

func TestDerivedToolSharesConfigAndHeaders(t *testing.T) {
	tool := newUploadTool(t)
	tool.SetHeaders(map[string]string{"X-Account-Id": "acct_1"})

	derived, err := tools.Derive(tool, tools.DeriveConfig{
		Name: "documents_upload_simple",
	})
	require.NoError(t, err)
	assert.Equal(t, "documents_upload_simple", derived.Name())
	assert.Same(t, tool.Config(), derived.Config())
	assert.Equal(t, "acct_1", derived.Headers()["X-Account-Id"])
}
