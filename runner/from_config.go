package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/factmesh/config"
	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/engine"
	"github.com/hupe1980/factmesh/journal"
	"github.com/hupe1980/factmesh/logging"
	"github.com/hupe1980/factmesh/snapshot"
	"github.com/hupe1980/factmesh/snapshot/badger"
)

// FromConfig builds a Runner with the logging, snapshot and journal backends
// the configuration names. Backends opened here are owned by the runner;
// call Close when done with it. Additional option functions are applied
// after the config-derived options and win on conflict.
func FromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Runner, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	config.ApplyDefaults(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLogLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Output:    os.Stdout,
		AddSource: cfg.Logging.AddSource,
	})

	invariants, err := cfg.CompileInvariants()
	if err != nil {
		return nil, err
	}

	var closers []io.Closer

	store, closer, err := buildSnapshotStore(cfg.Snapshots)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var recorder core.Recorder
	if cfg.Journal.Enabled {
		j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, fmt.Errorf("open journal: %w", err)
		}
		recorder = j
		closers = append(closers, j)
	}

	fns := append([]func(o *Options){func(o *Options) {
		o.Engine = engine.Config{
			MaxWorkers:      cfg.Engine.MaxWorkers,
			AgentTimeout:    cfg.Engine.AgentTimeout,
			EventBufferSize: cfg.Engine.EventBufferSize,
		}
		o.Budget = cfg.Budget.Budget()
		o.Snapshots = store
		o.Recorder = recorder
		o.Invariants = invariants
		o.Logger = logger
	}}, optFns...)

	r := New(fns...)
	r.closers = closers
	return r, nil
}

func buildSnapshotStore(cfg config.SnapshotsConfig) (core.SnapshotStore, io.Closer, error) {
	switch cfg.Backend {
	case "", "memory":
		return snapshot.NewInMemoryStore(), nil, nil
	case "file":
		store, err := snapshot.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("file snapshot store: %w", err)
		}
		return store, nil, nil
	case "badger":
		store, err := badger.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("badger snapshot store: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
