package backup

import (
	"testing"
	"time"
)

func TestEnforceEvictsOldestBeyondLimit(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		plantArtifact(t, dir, "alice", base.Add(time.Duration(i)*time.Minute))
	}

	catalog := NewCatalog(dir)
	if err := NewRetention(catalog).Enforce("alice", 5); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}

	artifacts, _ := catalog.List("alice")
	if len(artifacts) != 5 {
		t.Fatalf("after enforce: %d artifacts, want 5", len(artifacts))
	}
	// The two oldest must be the ones that are gone.
	oldest := artifacts[len(artifacts)-1].CreatedAt
	if !oldest.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("oldest surviving artifact at %v, want %v", oldest, base.Add(2*time.Minute))
	}
}

func TestEnforceNoExcessIsNoop(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		plantArtifact(t, dir, "alice", base.Add(time.Duration(i)*time.Minute))
	}

	catalog := NewCatalog(dir)
	if err := NewRetention(catalog).Enforce("alice", 5); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	count, _ := catalog.Count("alice")
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestEnforceAfterLoweringLimit(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		plantArtifact(t, dir, "alice", base.Add(time.Duration(i)*time.Minute))
	}

	catalog := NewCatalog(dir)
	if err := NewRetention(catalog).Enforce("alice", 5); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	count, _ := catalog.Count("alice")
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestEnforceClampsLimit(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		plantArtifact(t, dir, "alice", base.Add(time.Duration(i)*time.Minute))
	}

	catalog := NewCatalog(dir)
	// A limit below the supported minimum is raised to it.
	if err := NewRetention(catalog).Enforce("alice", 1); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	count, _ := catalog.Count("alice")
	if count != 5 {
		t.Errorf("count = %d, want 5 (clamped minimum)", count)
	}
}

func TestEnforceLeavesOtherUsersAlone(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		plantArtifact(t, dir, "alice", base.Add(time.Duration(i)*time.Minute))
	}
	plantArtifact(t, dir, "bob", base)

	catalog := NewCatalog(dir)
	if err := NewRetention(catalog).Enforce("alice", 5); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	bobs, _ := catalog.Count("bob")
	if bobs != 1 {
		t.Errorf("bob's count = %d, want 1", bobs)
	}
}
