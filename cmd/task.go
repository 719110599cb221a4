package cmd

import (
	"github.com/huangsam/annoq/core"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/outwriter"
	"github.com/spf13/cobra"
)

// runTaskExecutor runs one task-scoped executor and exits on failure.
func runTaskExecutor(msg string, executeFunc core.ExecutorFunc, taskID string) {
	if err := executeFunc(rootCtx, cfg, storeManager, taskID); err != nil {
		contract.LogFatal(msg, err)
	}
}

// tasksCmd lists the declared tasks.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the annotation tasks declared in the config file",
	Long: `List every task declared under 'tasks:' in .annoq.yaml with its entity type,
labels, annotators and data files.

Examples:
  annoq tasks
  annoq tasks --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.PrintTasks(cfg.Tasks, cfg); err != nil {
			contract.LogFatal("Cannot list tasks", err)
		}
	},
}

// generateCmd builds and assigns annotation requests for one task.
var generateCmd = &cobra.Command{
	Use:   "generate <task-id>",
	Short: "Generate annotation requests for a task",
	Long: `Score every line of the task's data files, interleave the sources and hand the
best candidates out to annotators.

Each annotator gets at most --max-per-annotator requests and each data point goes
to at most --max-per-dp annotators. Entities an annotator already judged are skipped.
A new run replaces the pending requests of every annotator it assigns to.

Sources:
- random  - uniform scores, seeded by --seed
- pattern - token matches from the task's pattern_file (when declared)

Examples:
  # Preview the assignment without touching the store
  annoq generate companies --dry-run

  # Reproducible run for two annotators
  annoq generate companies --users alice,bob --seed 42

  # Export the run as CSV
  annoq generate companies --output csv --output-file requests.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		runTaskExecutor("Cannot generate requests", core.ExecuteGenerate, args[0])
	},
}

// statsCmd reports agreement for one task label.
var statsCmd = &cobra.Command{
	Use:   "stats <task-id>",
	Short: "Show annotation counts and inter-annotator agreement",
	Long: `Report on the judgments collected for a task label.

Shows:
- Total annotations and distinct annotated entities
- Annotations per annotator and per value
- Cohen's kappa for every pair of annotators
- The most contentious entities
- Outstanding requests per annotator

Examples:
  annoq stats companies
  annoq stats companies --label vip --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		runTaskExecutor("Cannot compute statistics", core.ExecuteStatistics, args[0])
	},
}

// compareCmd shows annotators side by side.
var compareCmd = &cobra.Command{
	Use:   "compare <task-id>",
	Short: "Compare annotator judgments side by side",
	Long: `Show one row per annotated entity with a column per annotator, most contentious first.
Pairwise kappa values for the compared annotators are printed above the table.

Examples:
  annoq compare companies --users alice,bob
  annoq compare companies --output csv --output-file compare.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		runTaskExecutor("Cannot compare annotators", core.ExecuteCompare, args[0])
	},
}
