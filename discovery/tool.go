package discovery

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/effective-security/agentools/pkg/schema"
	"github.com/effective-security/agentools/tools"
)

// ToolName is the name of the local search tool.
const ToolName = "search_tools"

// Tool exposes the index as a local tool, so an agent can discover
// relevant tools by free-text query.
func (idx *Index) Tool() (*tools.Tool, error) {
	params, err := schema.New(reflect.TypeOf(Query{}))
	if err != nil {
		return nil, err
	}

	return tools.New(
		ToolName,
		"Finds the most relevant tools for a task described in natural language.",
		params,
		tools.NewLocalConfig(tools.LocalConfig{
			ID:          ToolName,
			Description: "lexical relevance search over the tool collection",
			Run:         idx.run,
		}),
	)
}

func (idx *Index) run(ctx context.Context, args map[string]any) (any, error) {
	var q Query
	bs, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bs, &q); err != nil {
		return nil, err
	}

	hits := idx.Search(q)
	res := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		res = append(res, map[string]any{
			"name":        hit.Name,
			"description": hit.Tool.Description(),
			"parameters":  hit.Tool.Parameters(),
			"score":       hit.Score,
		})
	}
	return res, nil
}
