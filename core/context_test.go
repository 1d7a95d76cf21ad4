package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestContext_AddFactAppendsAndVersions(t *testing.T) {
	c := NewContext()

	if err := c.AddFact(NewFact(KeySeeds, "s1", "alpha")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}
	if err := c.AddFact(NewFact(KeyHypotheses, "h1", "beta")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	if c.Version() != 2 {
		t.Errorf("expected version 2, got %d", c.Version())
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 facts, got %d", c.Len())
	}
	if got := c.Get(KeySeeds); len(got) != 1 || got[0].Content != "alpha" {
		t.Errorf("unexpected seeds facts: %+v", got)
	}
}

func TestContext_IdenticalDuplicateIsNoOp(t *testing.T) {
	c := NewContext()
	f := NewFact(KeySignals, "sig-1", "stable")

	if err := c.AddFact(f); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}
	before := c.Version()

	if err := c.AddFact(f); err != nil {
		t.Fatalf("identical duplicate should be a no-op, got %v", err)
	}
	if c.Version() != before {
		t.Errorf("no-op must not bump version: %d -> %d", before, c.Version())
	}
	if len(c.Get(KeySignals)) != 1 {
		t.Errorf("no-op must not append")
	}
}

func TestContext_ConflictingDuplicateFails(t *testing.T) {
	c := NewContext()
	if err := c.AddFact(NewFact(KeySignals, "sig-1", "stable")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	err := c.AddFact(NewFact(KeySignals, "sig-1", "degraded"))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.Existing != "stable" || conflict.Incoming != "degraded" {
		t.Errorf("conflict should carry both contents: %+v", conflict)
	}

	// The original fact stays committed and untouched.
	if got := c.Get(KeySignals); len(got) != 1 || got[0].Content != "stable" {
		t.Errorf("conflict must leave existing fact intact: %+v", got)
	}
}

func TestContext_RejectsUnknownKeyAndEmptyID(t *testing.T) {
	c := NewContext()

	if err := c.AddFact(NewFact(ContextKey("bogus"), "x", "y")); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	if err := c.AddFact(NewFact(KeySeeds, "", "y")); !errors.Is(err, ErrEmptyFactID) {
		t.Errorf("expected ErrEmptyFactID, got %v", err)
	}
	if c.Version() != 0 {
		t.Errorf("rejected facts must not bump version")
	}
}

func TestContext_DirtyTracking(t *testing.T) {
	c := NewContext()

	if err := c.AddFact(NewFact(KeySeeds, "s1", "a")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}
	if err := c.AddFact(NewFact(KeyDiagnostic, "d1", "note")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	dirty := c.DirtyKeys()
	if len(dirty) != 1 || dirty[0] != KeySeeds {
		t.Errorf("diagnostic must never be dirty, got %v", dirty)
	}

	c.ClearDirty()
	if len(c.DirtyKeys()) != 0 {
		t.Errorf("ClearDirty should empty the dirty set")
	}

	// Re-adding the identical fact is a no-op and leaves the set clean.
	if err := c.AddFact(NewFact(KeySeeds, "s1", "a")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}
	if len(c.DirtyKeys()) != 0 {
		t.Errorf("idempotent re-add must not dirty the key")
	}
}

func TestContext_SeedStampsProvenance(t *testing.T) {
	c := NewContext()
	if err := c.Seed(NewFact(KeySeeds, "s1", "goal")); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	got := c.Get(KeySeeds)
	if len(got) != 1 || got[0].Provenance.Agent != ProvenanceSeed {
		t.Errorf("seed should carry seed provenance: %+v", got)
	}
	if dirty := c.DirtyKeys(); len(dirty) != 1 || dirty[0] != KeySeeds {
		t.Errorf("seeding should dirty the key for the first cycle: %v", dirty)
	}
}

func TestContext_GetReturnsCopy(t *testing.T) {
	c := NewContext()
	if err := c.AddFact(NewFact(KeySeeds, "s1", "a")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	got := c.Get(KeySeeds)
	got[0].Content = "mutated"
	if c.Get(KeySeeds)[0].Content != "a" {
		t.Error("facts slice should be copied on read")
	}
}

func TestContext_SnapshotIsConsistent(t *testing.T) {
	c := NewContext()
	if err := c.AddFact(NewFact(KeySeeds, "s1", "a")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	view := c.Snapshot()
	if err := c.AddFact(NewFact(KeySignals, "sig-1", "later")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	if view.Version() != 1 {
		t.Errorf("view version pinned at snapshot time, got %d", view.Version())
	}
	if view.Has(KeySignals) {
		t.Error("view must not observe facts committed after the snapshot")
	}
	if !view.Dirty(KeySeeds) {
		t.Error("view should carry the dirty set captured at snapshot time")
	}
}

func TestContext_JSONRoundTrip(t *testing.T) {
	c := NewContext()
	if err := c.Seed(NewFact(KeySeeds, "s1", "goal")); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if err := c.AddFact(NewFact(KeyStrategies, "st1", "plan-a")); err != nil {
		t.Fatalf("AddFact failed: %v", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored := NewContext()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.Version() != c.Version() {
		t.Errorf("version lost in round trip: %d != %d", restored.Version(), c.Version())
	}
	if got := restored.Get(KeyStrategies); len(got) != 1 || got[0].Content != "plan-a" {
		t.Errorf("facts lost in round trip: %+v", got)
	}
	if len(restored.DirtyKeys()) != 0 {
		t.Error("dirty keys must not survive serialization")
	}

	// The rebuilt index still detects conflicts.
	err = restored.AddFact(NewFact(KeyStrategies, "st1", "plan-b"))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("restored context should detect conflicts, got %v", err)
	}
}
