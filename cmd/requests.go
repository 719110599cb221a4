package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/annoq/core"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/spf13/cobra"
)

// requestsCmd focused on stored annotation requests.
var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Inspect and update stored annotation requests",
	Long: `Work with the annotation requests persisted by 'annoq generate'.

Subcommands:
  status   - Count outstanding requests per annotator
  list     - List requests in assignment order
  complete - Mark one request as done`,
}

// requestsStatusCmd counts outstanding requests.
var requestsStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Count outstanding requests per annotator",
	Long: `Show how many pending requests every annotator still has for a task.

Examples:
  annoq requests status companies`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		runTaskExecutor("Cannot get request status", core.ExecuteRequestStatus, args[0])
	},
}

// requestsListCmd lists stored requests.
var requestsListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List stored requests in assignment order",
	Long: `List the stored requests of a task, grouped by annotator and in the order they
should be worked on. Use --users to restrict the listing.

Parquet output is supported and requires --output-file.

Examples:
  annoq requests list companies --users alice
  annoq requests list companies --output parquet --output-file requests.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		runTaskExecutor("Cannot list requests", core.ExecuteRequestList, args[0])
	},
}

// requestsCompleteCmd marks a request as done.
var requestsCompleteCmd = &cobra.Command{
	Use:   "complete <request-id>",
	Short: "Mark a stored request as completed",
	Long: `Flag one request as done without importing a judgment for it.

Examples:
  annoq requests complete 17`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		requestID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			contract.LogFatal("Cannot complete request", fmt.Errorf("invalid request id %q: %w", args[0], err))
		}
		if err := core.ExecuteRequestComplete(rootCtx, storeManager, requestID); err != nil {
			contract.LogFatal("Cannot complete request", err)
		}
	},
}
