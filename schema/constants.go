// Package schema has configs, models and constants for all parts of annoq.
package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the task store and score cache.
	DatabaseBackend string

	// RequestStatus represents the lifecycle state of a stored annotation request.
	RequestStatus string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All request states supported.
const (
	PendingStatus  RequestStatus = "pending"
	CompleteStatus RequestStatus = "complete"
)

// Names of the built-in candidate scorers.
const (
	RandomModel  = "random"
	PatternModel = "pattern"
)

// Default source proportions when a task does not configure its own.
const (
	DefaultRandomProportion  = 1.0
	DefaultPatternProportion = 3.0
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidRequestStatuses lists all valid request states.
var ValidRequestStatuses = map[RequestStatus]struct{}{
	PendingStatus:  {},
	CompleteStatus: {},
}
