package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/annoq/core"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// comparisonResult is the payload of compare_annotators.
type comparisonResult struct {
	KappaPairs []schema.KappaPair     `json:"kappa_pairs"`
	Comparison schema.ComparisonTable `json:"comparison"`
}

// requireTaskID reads the task_id argument and returns a tool error when it is missing.
func requireTaskID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	taskID := strings.TrimSpace(request.GetString("task_id", ""))
	if taskID == "" {
		return "", mcp.NewToolResultError("task_id is required")
	}
	return taskID, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListTasks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks := make([]schema.Task, 0, len(h.baseCfg.Tasks))
	for _, id := range h.baseCfg.TaskIDs() {
		tasks = append(tasks, h.baseCfg.Tasks[id])
	}
	return jsonResult(tasks)
}

func (h *toolHandler) handleGenerateRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, errResult := requireTaskID(request)
	if errResult != nil {
		return errResult, nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Label = request.GetString("label", cfg.Label)
	if u := request.GetString("users", ""); u != "" {
		cfg.Users = contract.ParseUsers(u)
	}
	if n := request.GetInt("max_per_annotator", -1); n >= 0 {
		cfg.MaxPerAnnotator = n
	}
	if n := request.GetInt("max_per_dp", -1); n >= 0 {
		cfg.MaxPerDP = n
	}
	if seed := request.GetInt("seed", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}
	cfg.DryRun = request.GetBool("dry_run", true)

	result, _, err := core.GetGenerateResults(core.WithSuppressHeader(ctx), cfg, h.mgr, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleComputeStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, errResult := requireTaskID(request)
	if errResult != nil {
		return errResult, nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Label = request.GetString("label", cfg.Label)
	cfg.Users = nil

	stats, _, err := core.GetStatisticsResults(core.WithSuppressHeader(ctx), cfg, h.mgr, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("statistics failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func (h *toolHandler) handleCompareAnnotators(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, errResult := requireTaskID(request)
	if errResult != nil {
		return errResult, nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Label = request.GetString("label", cfg.Label)
	cfg.Users = contract.ParseUsers(request.GetString("users", ""))

	stats, _, err := core.GetStatisticsResults(core.WithSuppressHeader(ctx), cfg, h.mgr, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(comparisonResult{KappaPairs: stats.KappaPairs, Comparison: stats.Comparison})
}

func (h *toolHandler) handleListRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, errResult := requireTaskID(request)
	if errResult != nil {
		return errResult, nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Users = contract.ParseUsers(request.GetString("users", ""))

	requests, err := core.GetRequestListResults(ctx, cfg, h.mgr, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing requests failed: %v", err)), nil
	}
	if requests == nil {
		requests = []schema.StoredRequest{}
	}
	return jsonResult(requests)
}
