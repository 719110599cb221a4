package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/annoq/internal/contract"
	mcp_internal "github.com/huangsam/annoq/internal/mcp"
	"github.com/huangsam/annoq/internal/store"
	"github.com/huangsam/annoq/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *contract.Config {
	t.Helper()
	data := filepath.Join(t.TempDir(), "people.jsonl")
	require.NoError(t, os.WriteFile(data, []byte("{\"text\": \"a\"}\n{\"text\": \"b\"}\n{\"text\": \"c\"}\n"), 0o644))
	return &contract.Config{
		Workers:         1,
		Seed:            7,
		MaxPerAnnotator: 2,
		MaxPerDP:        1,
		Tasks: map[string]schema.Task{
			"people": {
				ID:         "people",
				Name:       "people",
				EntityType: "Person",
				Labels:     []string{"famous"},
				Annotators: []schema.AnnotatorID{"u1", "u2"},
				DataFiles:  []string{data},
			},
		},
	}
}

func callTool(t *testing.T, cfg *contract.Config, mgr contract.StoreManager, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, mgr)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	cfg := baseConfig(t)

	// A nil manager is never reached because validation fails first
	var mgr contract.StoreManager

	for _, name := range []string{"generate_requests", "compute_statistics", "compare_annotators", "list_requests"} {
		t.Run(name+" missing task_id", func(t *testing.T) {
			res := callTool(t, cfg, mgr, name, map[string]any{"task_id": ""})
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), "task_id is required")
		})

		t.Run(name+" unknown task", func(t *testing.T) {
			res := callTool(t, cfg, mgr, name, map[string]any{"task_id": "nope"})
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(res), "unknown task")
		})
	}

	t.Run("generate_requests undeclared label", func(t *testing.T) {
		res := callTool(t, cfg, mgr, "generate_requests", map[string]any{"task_id": "people", "label": "rich"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "not declared")
	})
}

func TestMCPServerHandlers_ListTasks(t *testing.T) {
	res := callTool(t, baseConfig(t), nil, "list_tasks", map[string]any{})
	require.False(t, res.IsError)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "people", tasks[0]["id"])
	assert.Equal(t, "Person", tasks[0]["entity_type"])
}

func TestMCPServerHandlers_GenerateDryRun(t *testing.T) {
	mgr := &store.MockStoreManager{}
	mgr.On("GetTaskStore").Return(nil)
	mgr.On("GetScoreCache").Return(nil)

	res := callTool(t, baseConfig(t), mgr, "generate_requests", map[string]any{
		"task_id":           "people",
		"max_per_annotator": 1.0,
	})
	require.False(t, res.IsError, resultText(res))

	var result schema.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &result))
	assert.False(t, result.Persisted)
	assert.Equal(t, int64(7), result.Seed)
	assert.Equal(t, 3, result.TotalCandidates)
	assert.Len(t, result.Requests["u1"], 1)
	assert.Len(t, result.Requests["u2"], 1)
}

func TestMCPServerHandlers_NoStore(t *testing.T) {
	mgr := &store.MockStoreManager{}
	mgr.On("GetTaskStore").Return(nil)

	res := callTool(t, baseConfig(t), mgr, "compute_statistics", map[string]any{"task_id": "people"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "task store is not initialized")
}
