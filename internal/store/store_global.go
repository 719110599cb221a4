package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// Global Manager instance for main logic.
var (
	Global    = &Manager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the task store and the score cache.
// An empty cacheBackend leaves the score cache unset.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, cacheBackend schema.DatabaseBackend, cacheConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		tasks, err := NewTaskStore(storeBackend, storeConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize task store: %w", err)
			return
		}

		var scores contract.CacheStore
		if cacheBackend != "" {
			scores, err = NewCacheStore(scoreCacheTable, cacheBackend, cacheConnStr)
			if err != nil {
				_ = tasks.Close()
				initErr = fmt.Errorf("failed to initialize score cache: %w", err)
				return
			}
		}

		Global.Lock()
		defer Global.Unlock()
		Global.tasks = tasks
		Global.scores = scores
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Global.Lock()
		defer Global.Unlock()
		if Global.tasks != nil {
			_ = Global.tasks.Close()
		}
		if Global.scores != nil {
			_ = Global.scores.Close()
		}
	})
}

// ClearStore removes every generation run, request and annotation.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables and the migration history.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, connStr string) error {
	return clearBackend(backend, connStr, contract.GetStoreDBFilePath(),
		append([]string{"schema_migrations"}, storeTables...))
}

// ClearCache removes every cached score.
func ClearCache(backend schema.DatabaseBackend, connStr string) error {
	return clearBackend(backend, connStr, contract.GetCacheDBFilePath(), []string{scoreCacheTable})
}

// clearBackend wipes the tables of one backend. Tables are dropped in reverse order.
func clearBackend(backend schema.DatabaseBackend, connStr, defaultPath string, tables []string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = defaultPath
		}
		if dbFilePath == ":memory:" {
			return nil
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, tables)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables []string) error {
	db, err := sql.Open(driverName(backend), connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	for i := len(tables) - 1; i >= 0; i-- {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tables[i], backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", tables[i], err)
		}
	}
	return nil
}
