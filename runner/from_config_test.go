package runner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/factmesh/config"
	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/testutil"
	"github.com/hupe1980/factmesh/invariant"
	"github.com/hupe1980/factmesh/journal"
	"github.com/hupe1980/factmesh/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"
	return cfg
}

func TestFromConfig_Defaults(t *testing.T) {
	r, err := FromConfig(quietConfig())
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Converged())

	snap, err := r.Snapshots().Load(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, snap.RunID)
}

func TestFromConfig_NilUsesDefaults(t *testing.T) {
	r, err := FromConfig(nil)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	_, err = r.Run(context.Background(), nil)
	require.NoError(t, err)
}

func TestFromConfig_InvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.Logging.Level = "verbose"

	_, err := FromConfig(cfg)
	require.Error(t, err)
}

func TestFromConfig_UnknownSnapshotBackend(t *testing.T) {
	cfg := quietConfig()
	cfg.Snapshots.Backend = "memory"

	// Validation catches unknown backends before construction does; exercise
	// the construction path directly.
	_, _, err := buildSnapshotStore(config.SnapshotsConfig{Backend: "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown snapshot backend")

	_, err = FromConfig(cfg)
	require.NoError(t, err)
}

func TestFromConfig_FileBackendSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	build := func() *Runner {
		cfg := quietConfig()
		cfg.Snapshots.Backend = "file"
		cfg.Snapshots.Path = dir
		cfg.Invariants = []invariant.RuleSpec{
			{Type: "require_key", Key: "constraints", Class: "acceptance", Authority: true},
		}

		r, err := FromConfig(cfg)
		require.NoError(t, err)
		require.NoError(t, r.Register(
			testutil.Emitter("planner", nil, core.NewFact(core.KeyStrategies, "s-1", "scale out")),
		))
		return r
	}

	first := build()
	res, err := first.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, core.HaltAwaitingAuthority, res.Halt.Kind)
	require.NoError(t, first.Close())

	// A fresh process with the same config resumes from the file store.
	second := build()
	defer second.Close()

	resumed, err := second.Resume(context.Background(),
		res.RunID,
		core.NewFact(core.KeyConstraints, "c-1", "budget approved"),
	)
	require.NoError(t, err)
	assert.True(t, resumed.Converged())
}

func TestFromConfig_JournalRecordsRun(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	cfg := quietConfig()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = journalPath

	r, err := FromConfig(cfg)
	require.NoError(t, err)

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// Reopen the journal the runner wrote and audit the trail.
	j, err := journal.NewSQLiteJournal(journalPath)
	require.NoError(t, err)
	defer j.Close()

	rec, err := j.Run(res.RunID)
	require.NoError(t, err)
	require.NotNil(t, rec.Halt)
	assert.Equal(t, core.HaltConverged, rec.Halt.Kind)

	facts, err := j.Facts(res.RunID)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "load rising", facts[0].Fact.Content)
	assert.Equal(t, "scout", facts[0].Fact.Provenance.Agent)
}

func TestFromConfig_BadgerBackend(t *testing.T) {
	cfg := quietConfig()
	cfg.Snapshots.Backend = "badger"
	cfg.Snapshots.Path = filepath.Join(t.TempDir(), "snapshots")

	r, err := FromConfig(cfg)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	snap, err := r.Snapshots().Load(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Context.Len(), snap.Context.Len())
}

func TestFromConfig_OptionOverridesWin(t *testing.T) {
	custom := snapshot.NewInMemoryStore()

	r, err := FromConfig(quietConfig(), func(o *Options) {
		o.Snapshots = custom
	})
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	_, err = custom.Load(res.RunID)
	assert.NoError(t, err, "the caller-supplied store should receive the snapshot")
}

func TestFromConfig_ConfiguredInvariantsEnforced(t *testing.T) {
	cfg := quietConfig()
	cfg.Budget.MaxCycles = 2
	cfg.Invariants = []invariant.RuleSpec{
		{Type: "require_key", Key: "constraints", Class: "semantic"},
	}

	r, err := FromConfig(cfg)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Register(
		testutil.Emitter("scout", nil, core.NewFact(core.KeySignals, "sig-1", "load rising")),
	))

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	// The configured semantic rule never resolves, so the run exhausts its
	// cycle budget instead of converging.
	assert.Equal(t, core.HaltBudgetExhausted, res.Halt.Kind)
	assert.NotEmpty(t, res.Context.Get(core.KeyDiagnostic))
}
