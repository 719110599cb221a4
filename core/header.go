package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// showHeader reports whether progress headers go to stdout. Machine readable
// output never gets one.
func showHeader(ctx context.Context, cfg *contract.Config) bool {
	if shouldSuppressHeader(ctx) {
		return false
	}
	return cfg.Output == "" || cfg.Output == schema.TextOut
}

// headerLine prints one header line, with its emoji only when enabled.
func headerLine(cfg *contract.Config, emoji, format string, args ...any) {
	if cfg.UseEmojis {
		format = emoji + " " + format
	}
	fmt.Printf(format+"\n", args...)
}

// LogGenerateHeader prints a concise, 2-line header for a generation run.
func LogGenerateHeader(cfg *contract.Config, task schema.Task, label string, annotators []schema.AnnotatorID) {
	// Line 1: The task summary (Task and Label)
	headerLine(cfg, "🧾", "Task: %s (Label: %s, Entity: %s)", task.ID, label, task.EntityType)

	// Line 2: Who gets requests and how many
	mode := ""
	if cfg.DryRun {
		mode = ", dry run"
	}
	headerLine(cfg, "👥", "Annotators: %s (max %d each, %d per item, seed %d%s)",
		joinAnnotators(annotators), cfg.MaxPerAnnotator, cfg.MaxPerDP, cfg.Seed, mode)
}

// LogStatisticsHeader prints a header for agreement statistics.
func LogStatisticsHeader(cfg *contract.Config, task schema.Task, label string) {
	headerLine(cfg, "🧾", "Task: %s (Label: %s, Entity: %s)", task.ID, label, task.EntityType)
	compared := "everyone"
	if len(cfg.Users) > 0 {
		compared = joinAnnotators(cfg.Users)
	}
	headerLine(cfg, "📊", "Comparing: %s", compared)
}

func joinAnnotators(ids []schema.AnnotatorID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
