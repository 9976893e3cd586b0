package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// Catalog lists committed backup artifacts by scanning the backup directory.
// The directory is the catalog; there is no separate index to drift out of
// sync with the files.
type Catalog struct {
	dir string
}

// NewCatalog creates a Catalog over the given backup directory.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the user's committed artifacts, newest first. Equal timestamps
// fall back to filename order so the result is deterministic. Pending temp
// files never match the committed naming convention and are invisible here.
func (c *Catalog) List(username string) ([]models.BackupArtifact, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("scan backup directory: %w", err)
	}

	owner := sanitizeUsername(username)
	var artifacts []models.BackupArtifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		fileOwner, createdAt, ok := parseArtifactFileName(name)
		if !ok || fileOwner != owner {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable backup artifact")
			continue
		}
		artifacts = append(artifacts, models.BackupArtifact{
			ID:            createdAt.Format(timestampLayout),
			OwnerUsername: fileOwner,
			FileName:      name,
			Path:          filepath.Join(c.dir, name),
			SizeBytes:     info.Size(),
			Status:        models.ArtifactCommitted,
			CreatedAt:     createdAt,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
		}
		return artifacts[i].FileName > artifacts[j].FileName
	})
	return artifacts, nil
}

// Count returns the number of committed artifacts for the user.
func (c *Catalog) Count(username string) (int, error) {
	artifacts, err := c.List(username)
	if err != nil {
		return 0, err
	}
	return len(artifacts), nil
}

// DeleteAll removes every committed artifact for the user and reports how
// many were removed. An empty catalog is not an error; the result is 0.
func (c *Catalog) DeleteAll(username string) (int, error) {
	artifacts, err := c.List(username)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, artifact := range artifacts {
		if err := os.Remove(artifact.Path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, fmt.Errorf("delete %s: %w", artifact.FileName, err)
		}
		deleted++
	}
	return deleted, nil
}
