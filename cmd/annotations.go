package cmd

import (
	"github.com/huangsam/annoq/core"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/spf13/cobra"
)

// annotationsCmd focused on completed judgments.
var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Manage completed annotations",
	Long: `Load the judgments annotators produced back into the task store.

Subcommands:
  import - Read annotations from a JSONL file`,
}

// annotationsImportCmd imports judgments from a JSONL file.
var annotationsImportCmd = &cobra.Command{
	Use:   "import <task-id> <file>",
	Short: "Import annotations from a JSONL file",
	Long: `Read one judgment per line and store it under the task. Pending requests that
match an imported judgment are completed.

Each line looks like:
  {"entity": "Acme", "annotator": "alice", "label": "b2b", "value": 1}

Values are -1 (negative), 0 (unknown) or 1 (positive). Lines without a task or
entity type are attributed to the given task.

Examples:
  annoq annotations import companies answers.jsonl`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteAnnotationImport(rootCtx, cfg, storeManager, args[0], args[1]); err != nil {
			contract.LogFatal("Cannot import annotations", err)
		}
	},
}
