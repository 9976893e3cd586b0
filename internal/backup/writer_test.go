package backup

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

func testDocument(username string) *models.SnapshotDocument {
	return &models.SnapshotDocument{
		ExportMeta: models.ExportMeta{
			Username:   username,
			ExportedAt: time.Now().UTC(),
			AppVersion: "test",
		},
		Entities: map[string][]json.RawMessage{
			"products":  {json.RawMessage(`{"id":1,"name":"widget"}`)},
			"customers": {json.RawMessage(`{"id":7,"name":"acme"}`)},
		},
	}
}

func TestWriteCommitsArtifact(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	artifact, err := w.Write(testDocument("alice"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if artifact.Status != models.ArtifactCommitted {
		t.Errorf("status = %q, want %q", artifact.Status, models.ArtifactCommitted)
	}
	if artifact.OwnerUsername != "alice" {
		t.Errorf("owner = %q, want %q", artifact.OwnerUsername, "alice")
	}

	info, err := os.Stat(artifact.Path)
	if err != nil {
		t.Fatalf("committed file missing: %v", err)
	}
	if info.Size() != artifact.SizeBytes {
		t.Errorf("size = %d, want %d", artifact.SizeBytes, info.Size())
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), pendingSuffix) {
			t.Errorf("temp file %s left behind after commit", e.Name())
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	doc := testDocument("alice")
	artifact, err := w.Write(doc)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read committed file: %v", err)
	}
	var got models.SnapshotDocument
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal committed file: %v", err)
	}
	if got.ExportMeta.Username != "alice" {
		t.Errorf("meta username = %q, want %q", got.ExportMeta.Username, "alice")
	}
	if len(got.Entities["products"]) != 1 {
		t.Errorf("products = %d records, want 1", len(got.Entities["products"]))
	}
}

func TestWriteBumpsTimestampOnCollision(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	var ids []string
	for i := 0; i < 3; i++ {
		artifact, err := w.Write(testDocument("alice"))
		if err != nil {
			t.Fatalf("Write() #%d error = %v", i, err)
		}
		ids = append(ids, artifact.ID)
	}

	seen := map[string]bool{}
	for i, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate artifact id %q", id)
		}
		seen[id] = true
		if i > 0 && !(ids[i-1] < id) {
			t.Errorf("ids not ascending: %q then %q", ids[i-1], id)
		}
	}
}

func TestWriteSerializationError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	doc := testDocument("alice")
	doc.Entities["products"] = []json.RawMessage{json.RawMessage(`{not json`)}

	_, err := w.Write(doc)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Write() error = %v, want SerializationError", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory not empty after failed write: %v", entries)
	}
}

func TestWriteSanitizesOwnerInFilename(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	artifact, err := w.Write(testDocument("bob_o'brien"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.ContainsAny(filepath.Base(artifact.FileName), "'") {
		t.Errorf("unsanitized filename %q", artifact.FileName)
	}
	owner, _, ok := parseArtifactFileName(artifact.FileName)
	if !ok {
		t.Fatalf("committed name %q does not match the convention", artifact.FileName)
	}
	if owner != sanitizeUsername("bob_o'brien") {
		t.Errorf("parsed owner = %q, want %q", owner, sanitizeUsername("bob_o'brien"))
	}
}
