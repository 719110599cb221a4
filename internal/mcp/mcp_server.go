// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Annoq MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Annoq Annotation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: list_tasks ---
	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the annotation tasks declared in the configuration."),
	), h.handleListTasks)

	// --- 2. Tool: generate_requests ---
	s.AddTool(mcp.NewTool("generate_requests",
		mcp.WithDescription("Score the task's data files and assign annotation requests to annotators."),
		mcp.WithString("task_id", mcp.Description("The task to generate requests for."), mcp.Required()),
		mcp.WithString("label", mcp.Description("Label to generate for (defaults to the task's first label).")),
		mcp.WithString("users", mcp.Description("Comma separated annotators (defaults to the task's annotators).")),
		mcp.WithNumber("max_per_annotator", mcp.Description("Maximum requests per annotator.")),
		mcp.WithNumber("max_per_dp", mcp.Description("Maximum annotators per data point.")),
		mcp.WithNumber("seed", mcp.Description("Seed for a reproducible interleave.")),
		mcp.WithBoolean("dry_run", mcp.Description("Assign without persisting. Defaults to true.")),
	), h.handleGenerateRequests)

	// --- 3. Tool: compute_statistics ---
	s.AddTool(mcp.NewTool("compute_statistics",
		mcp.WithDescription("Compute annotation counts, Cohen's kappa and contentious entities for a task."),
		mcp.WithString("task_id", mcp.Description("The task to report on."), mcp.Required()),
		mcp.WithString("label", mcp.Description("Label to report on (defaults to the task's first label).")),
	), h.handleComputeStatistics)

	// --- 4. Tool: compare_annotators ---
	s.AddTool(mcp.NewTool("compare_annotators",
		mcp.WithDescription("Compare the judgments of annotators side by side for a task label."),
		mcp.WithString("task_id", mcp.Description("The task to compare."), mcp.Required()),
		mcp.WithString("label", mcp.Description("Label to compare.")),
		mcp.WithString("users", mcp.Description("Comma separated annotators to compare (defaults to everyone).")),
	), h.handleCompareAnnotators)

	// --- 5. Tool: list_requests ---
	s.AddTool(mcp.NewTool("list_requests",
		mcp.WithDescription("List the stored annotation requests of a task in assignment order."),
		mcp.WithString("task_id", mcp.Description("The task to list."), mcp.Required()),
		mcp.WithString("users", mcp.Description("Comma separated annotators to list (defaults to everyone).")),
	), h.handleListRequests)

	return s
}

// StartMCPServer starts the Annoq MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
