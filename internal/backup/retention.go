package backup

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// Retention bounds the catalog after each successful backup. Lowering the
// limit does not evict immediately; the next successful backup brings the
// count down to the new bound.
type Retention struct {
	catalog *Catalog
}

// NewRetention creates a Retention over the given catalog.
func NewRetention(catalog *Catalog) *Retention {
	return &Retention{catalog: catalog}
}

// Enforce deletes the oldest committed artifacts until at most maxCount
// remain. Equal timestamps delete in filename order, oldest name first. An
// artifact that vanished externally counts as evicted; the goal state is
// already reached.
func (r *Retention) Enforce(username string, maxCount int) error {
	maxCount = models.ClampRetention(maxCount)

	artifacts, err := r.catalog.List(username)
	if err != nil {
		return err
	}

	if len(artifacts) <= maxCount {
		return nil
	}

	// List is newest first; everything past maxCount is over the bound.
	// Walk from the tail so the single oldest goes first each round.
	excess := artifacts[maxCount:]
	for i := len(excess) - 1; i >= 0; i-- {
		artifact := excess[i]
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			return &EvictionError{Path: artifact.Path, Err: err}
		}
		log.Info().
			Str("file", artifact.FileName).
			Str("username", username).
			Msg("Evicted backup artifact beyond retention limit")
	}
	return nil
}

// IsEvictionError reports whether err is a retention eviction failure.
func IsEvictionError(err error) bool {
	var ev *EvictionError
	return errors.As(err, &ev)
}
