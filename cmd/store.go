package cmd

import (
	"fmt"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/store"
	"github.com/huangsam/annoq/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromConfig reads and validates the task store backend settings.
func storeBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no score cache for store commands)
	if err := store.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize task store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// This does NOT initialize stores or create tables, allowing migrations to run on a fresh database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on task store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup. This avoids task validation for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the task store of runs, requests and annotations",
	Long: `Manage the task store that holds generation runs, annotation requests and
completed annotations.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics and connection info
  export  - Export data to Parquet for analytics
  clear   - Remove all stored data
  migrate - Run database schema migrations

Examples:
  # Check store status
  annoq store status

  # Export for analysis in pandas/DuckDB
  annoq store export --output-file annoq-data`,
}

// storeClearCmd clears the task store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all generation runs, requests and annotations",
	Long: `Delete every stored generation run, annotation request and annotation.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store tables

Examples:
  annoq store export --output-file backup
  annoq store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before removing it
		store.CloseStores()
		if err := store.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear task store", err)
		}
		fmt.Println("Task store cleared successfully.")
	},
}

// storeStatusCmd shows task store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display task store statistics and connection details",
	Long: `Show detailed information about the task store.

Displays:
- Backend type and connection status
- Total generation runs, requests and annotations
- Last and oldest generation run timestamps
- Database table sizes

Examples:
  annoq store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetTaskStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(status)
	},
}

// storeExportCmd exports the task store to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored data to Parquet for BI tools and analytics",
	Long: `Export all stored data to Parquet format for use with analytics tools.

Writes three files next to --output-file:
- <output-file>.generation_runs.parquet
- <output-file>.annotation_requests.parquet
- <output-file>.annotations.parquet

Requires: --output-file parameter

Examples:
  annoq store export --output-file annoq-data
  duckdb -c "SELECT * FROM read_parquet('annoq-data.annotations.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if _, err := store.ExecuteStoreExport(rootCtx, storeManager.GetTaskStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export task store", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the task store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the task store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  annoq store migrate

  # Rollback to initial state
  annoq store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
