package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// minFreeBytes is the slack the writer requires on top of the payload size
// before it will start a write.
const minFreeBytes = 16 << 20

// Writer commits snapshot documents to the backup directory. The write is
// atomic from the catalog's point of view: the payload goes to a temp file,
// is flushed to disk, and only then renamed to its committed name. Rename is
// the only step assumed atomic by the filesystem, so a crash at any earlier
// point leaves nothing but a discardable temp file.
type Writer struct {
	dir string
}

// NewWriter creates a Writer targeting the given backup directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write serializes the document and durably commits it. No retries happen at
// this layer; the temp file is removed on every failure path.
func (w *Writer) Write(doc *models.SnapshotDocument) (models.BackupArtifact, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.BackupArtifact{}, &SerializationError{Err: err}
	}

	if err := w.checkFreeSpace(int64(len(data))); err != nil {
		return models.BackupArtifact{}, err
	}

	createdAt, finalPath := w.reservePath(doc.ExportMeta.Username)
	tmpPath := finalPath + pendingSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return models.BackupArtifact{}, &WriteError{Op: "create temp", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return models.BackupArtifact{}, &WriteError{Op: "write", Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return models.BackupArtifact{}, &WriteError{Op: "sync", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return models.BackupArtifact{}, &WriteError{Op: "close", Err: err}
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return models.BackupArtifact{}, &WriteError{Op: "rename", Err: err}
	}

	// Directory sync is best effort; the artifact is already committed.
	if err := syncDir(w.dir); err != nil {
		log.Warn().Err(err).Str("dir", w.dir).Msg("Backup directory sync failed")
	}

	return models.BackupArtifact{
		ID:            createdAt.Format(timestampLayout),
		OwnerUsername: sanitizeUsername(doc.ExportMeta.Username),
		FileName:      filepath.Base(finalPath),
		Path:          finalPath,
		SizeBytes:     int64(len(data)),
		Status:        models.ArtifactCommitted,
		CreatedAt:     createdAt,
	}, nil
}

// reservePath picks the committed filename for a snapshot starting now.
// Artifact IDs have second resolution, so back-to-back snapshots bump the
// timestamp forward until the name is free.
func (w *Writer) reservePath(username string) (time.Time, string) {
	ts := time.Now().UTC().Truncate(time.Second)
	for {
		path := filepath.Join(w.dir, artifactFileName(username, ts))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return ts, path
		}
		ts = ts.Add(time.Second)
	}
}

// checkFreeSpace refuses the write up front when the volume clearly cannot
// hold the payload. A probe failure is not fatal; the write itself will
// surface real disk errors.
func (w *Writer) checkFreeSpace(payload int64) error {
	usage, err := disk.Usage(w.dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", w.dir).Msg("Disk usage probe failed, continuing")
		return nil
	}
	if usage.Free < uint64(payload)+minFreeBytes {
		return &WriteError{Op: "preflight", Err: ErrInsufficientSpace}
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
