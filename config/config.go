package config

import (
	"time"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/invariant"
)

// Config is the root configuration for a factmesh deployment.
type Config struct {
	// Engine tunes the execution machinery.
	Engine EngineConfig `yaml:"engine"`

	// Budget is the default budget applied to runs that do not bring their
	// own. The zero value places no limits.
	Budget BudgetConfig `yaml:"budget"`

	// Invariants are externally authored rules compiled into checks at
	// startup.
	Invariants []invariant.RuleSpec `yaml:"invariants"`

	// Logging configures the structured run logger.
	Logging LoggingConfig `yaml:"logging"`

	// Snapshots selects where halted runs are persisted for resumption.
	Snapshots SnapshotsConfig `yaml:"snapshots"`

	// Journal configures the durable audit trail of commits.
	Journal JournalConfig `yaml:"journal"`
}

// EngineConfig tunes the execution machinery of the engine.
type EngineConfig struct {
	// MaxWorkers bounds how many agents execute concurrently within one
	// cycle.
	MaxWorkers int `yaml:"max_workers" validate:"min=1,max=256"`

	// AgentTimeout is the hard per-execution deadline. Zero disables it.
	AgentTimeout time.Duration `yaml:"agent_timeout" validate:"min=0"`

	// EventBufferSize is the channel capacity for streamed run events.
	EventBufferSize int `yaml:"event_buffer_size" validate:"min=1,max=65536"`
}

// BudgetConfig mirrors core.Budget in config form.
type BudgetConfig struct {
	MaxCycles int           `yaml:"max_cycles" validate:"min=0"`
	MaxFacts  int           `yaml:"max_facts" validate:"min=0"`
	MaxTime   time.Duration `yaml:"max_time" validate:"min=0"`
}

// Budget converts the config section into the core type.
func (b BudgetConfig) Budget() core.Budget {
	return core.Budget{
		MaxCycles: b.MaxCycles,
		MaxFacts:  b.MaxFacts,
		MaxTime:   b.MaxTime,
	}
}

// LoggingConfig configures the structured run logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is text or json.
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`

	// AddSource includes source positions in log records.
	AddSource bool `yaml:"add_source"`
}

// SnapshotsConfig selects the snapshot persistence backend.
type SnapshotsConfig struct {
	// Backend is one of memory, file or badger.
	Backend string `yaml:"backend" validate:"omitempty,oneof=memory file badger"`

	// Path is the directory for the file and badger backends.
	Path string `yaml:"path"`
}

// JournalConfig configures the SQLite audit trail.
type JournalConfig struct {
	// Enabled switches journaling on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// CompileInvariants turns the configured rule specs into engine invariants.
func (c *Config) CompileInvariants() ([]core.Invariant, error) {
	return invariant.Compile(c.Invariants)
}
