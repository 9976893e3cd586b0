package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Recovery cleans up after an unclean shutdown. It runs exactly once, at
// process startup and before any scheduling, so the catalog can never offer
// a truncated artifact for restore.
type Recovery struct {
	dir string
}

// NewRecovery creates a Recovery over the given backup directory.
func NewRecovery(dir string) *Recovery {
	return &Recovery{dir: dir}
}

// RecoverFromPriorExit deletes every pending temp artifact left behind by a
// crash or forced kill and reports how many were removed. A pending artifact
// is always discarded, never promoted; the in-flight backup it belonged to
// is simply lost and the next tick produces a fresh one.
func (r *Recovery) RecoverFromPriorExit() (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("scan backup directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, pendingSuffix) {
			continue
		}
		if _, _, ok := parseArtifactFileName(strings.TrimSuffix(name, pendingSuffix)); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove pending artifact %s: %w", name, err)
		}
		log.Warn().Str("file", name).Msg("Discarded pending backup artifact from prior exit")
		removed++
	}
	return removed, nil
}

// EnsureWritableDir creates the backup directory if needed and verifies it
// accepts writes. Failure here is the one fatal startup condition.
func EnsureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return fmt.Errorf("backup directory not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}
