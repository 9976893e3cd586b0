package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// Source supplies entity collections for the authenticated user. Implemented
// by the remote API client.
type Source interface {
	ListAll(ctx context.Context, kind string) ([]json.RawMessage, error)
}

// FetchError reports that one entity collection could not be retrieved. Any
// FetchError aborts the whole snapshot; there is no partial document.
type FetchError struct {
	Kind string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Builder assembles snapshot documents from the remote repositories. It
// performs no disk I/O; writing is the Atomic Writer's job.
type Builder struct {
	source     Source
	appVersion string
	timeout    time.Duration
}

// NewBuilder creates a Builder fetching through the given source. The timeout
// bounds the whole fetch phase so a hung repository cannot hold the in-flight
// guard forever.
func NewBuilder(source Source, appVersion string, timeout time.Duration) *Builder {
	return &Builder{
		source:     source,
		appVersion: appVersion,
		timeout:    timeout,
	}
}

// Build fetches every entity collection in parallel and assembles a single
// document. One failed collection fails the build. User settings are never
// fetched here, so credentials cannot leak into a snapshot by construction.
func (b *Builder) Build(ctx context.Context, username string) (*models.SnapshotDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	doc := &models.SnapshotDocument{
		ExportMeta: models.ExportMeta{
			Username:   username,
			ExportedAt: time.Now().UTC(),
			AppVersion: b.appVersion,
		},
		Entities: make(map[string][]json.RawMessage, len(models.EntityKinds)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range models.EntityKinds {
		g.Go(func() error {
			records, err := b.source.ListAll(ctx, kind)
			if err != nil {
				return &FetchError{Kind: kind, Err: err}
			}
			if records == nil {
				records = []json.RawMessage{}
			}
			mu.Lock()
			doc.Entities[kind] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return doc, nil
}
