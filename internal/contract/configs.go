package contract

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/annoq/schema"
)

// Default values for configuration.
const (
	DefaultMaxPerAnnotator = 100
	DefaultMaxPerDP        = 2
	DefaultPrecision       = 2
	MaxPrecision           = 4
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	Seed            int64
	MaxPerAnnotator int
	MaxPerDP        int
	DryRun          bool
	Label           string
	Users           []schema.AnnotatorID

	// Tasks is a mapping of [TaskID] = Task, as declared in the config file
	Tasks map[string]schema.Task

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile     string `mapstructure:"output-file"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	Width          int    `mapstructure:"width"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Fields from generateCmd.Flags() ---
	Seed            int64 `mapstructure:"seed"`
	MaxPerAnnotator int   `mapstructure:"max-per-annotator"`
	MaxPerDP        int   `mapstructure:"max-per-dp"`
	DryRun          bool  `mapstructure:"dry-run"`

	// --- Fields from statsCmd and compareCmd ---
	Label string `mapstructure:"label"`
	Users string `mapstructure:"users"`

	// --- Task declarations from config file ---
	Tasks map[string]schema.Task `mapstructure:"tasks"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Users != nil {
		clone.Users = slices.Clone(c.Users)
	}
	if c.Tasks != nil {
		clone.Tasks = make(map[string]schema.Task, len(c.Tasks))
		for id, task := range c.Tasks {
			task.Labels = slices.Clone(task.Labels)
			task.Annotators = slices.Clone(task.Annotators)
			task.DataFiles = slices.Clone(task.DataFiles)
			clone.Tasks[id] = task
		}
	}
	return &clone
}

// TaskIDs returns the declared task ids in sorted order.
func (c *Config) TaskIDs() []string {
	return slices.Sorted(maps.Keys(c.Tasks))
}

// LookupTask returns the declared task with the given id.
func (c *Config) LookupTask(id string) (schema.Task, error) {
	task, ok := c.Tasks[id]
	if !ok {
		known := c.TaskIDs()
		return schema.Task{}, fmt.Errorf("task %q (known: %s): %w", id, strings.Join(known, ", "), ErrUnknownTask)
	}
	return task, nil
}

// ResolveLabel picks the label to work with for a task.
// The --label flag wins over the task's first label and must be one the task declares.
func (c *Config) ResolveLabel(task schema.Task) (string, error) {
	if c.Label == "" {
		return task.DefaultLabel(), nil
	}
	if !task.HasLabel(c.Label) {
		return "", fmt.Errorf("label %q is not declared by task %q (labels: %s)", c.Label, task.ID, strings.Join(task.Labels, ", "))
	}
	return c.Label, nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processGenerateInputs(cfg, input); err != nil {
		return err
	}
	if err := processTasks(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// parseBackend lowercases and checks one backend flag. Empty means sqlite.
func parseBackend(flag, raw string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(raw))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid %s '%s'. must be sqlite, mysql, postgresql, none", flag, raw)
	}
	return backend, nil
}

// validateBackendConfigs validates store and cache backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	var err error

	// --- Store Backend Validation ---
	if cfg.StoreBackend, err = parseBackend("store-backend", input.StoreBackend); err != nil {
		return err
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("store-db-connect: %w", err)
	}

	// --- Cache Backend Validation ---
	if cfg.CacheBackend, err = parseBackend("cache-backend", input.CacheBackend); err != nil {
		return err
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.CacheBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		if storePath == cachePath && storePath != ":memory:" {
			return fmt.Errorf("store and cache must use different SQLite database files. Both resolve to %q", storePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return nil
}

// processGenerateInputs handles the generation caps, seed and user filter.
func processGenerateInputs(cfg *Config, input *ConfigRawInput) error {
	if input.MaxPerAnnotator < 0 {
		return fmt.Errorf("max-per-annotator cannot be negative (received %d)", input.MaxPerAnnotator)
	}
	if input.MaxPerDP < 0 {
		return fmt.Errorf("max-per-dp cannot be negative (received %d)", input.MaxPerDP)
	}
	cfg.MaxPerAnnotator = input.MaxPerAnnotator
	cfg.MaxPerDP = input.MaxPerDP
	cfg.DryRun = input.DryRun
	cfg.Label = strings.TrimSpace(input.Label)

	// Seed 0 asks for a fresh seed; the chosen one is recorded with the run
	cfg.Seed = input.Seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	cfg.Users = ParseUsers(input.Users)
	return nil
}

// processTasks copies task declarations and fills in their ids.
func processTasks(cfg *Config, input *ConfigRawInput) error {
	cfg.Tasks = make(map[string]schema.Task, len(input.Tasks))

	for _, id := range slices.Sorted(maps.Keys(input.Tasks)) {
		task := input.Tasks[id]
		task.ID = id
		if task.Name == "" {
			task.Name = id
		}
		if strings.TrimSpace(task.EntityType) == "" {
			return fmt.Errorf("task %q must declare an entity_type", id)
		}
		if len(task.Labels) == 0 {
			return fmt.Errorf("task %q must declare at least one label", id)
		}
		seen := make(map[schema.AnnotatorID]struct{}, len(task.Annotators))
		for _, a := range task.Annotators {
			if _, dup := seen[a]; dup {
				return fmt.Errorf("task %q lists annotator %q more than once", id, a)
			}
			seen[a] = struct{}{}
		}
		cfg.Tasks[id] = task
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
