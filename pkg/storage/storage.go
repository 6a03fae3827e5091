// Package storage persists fetched tempo days so a restarted service can
// answer queries before its first successful fetch.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/types"
)

// Database defines the interface for persisting tempo days.
type Database interface {
	// UpsertTempoDays adds or updates both views of the given days, keyed by
	// calendar date. Both slices come from one fetch and are index-aligned.
	UpsertTempoDays(ctx context.Context, adjusted, dateonly []types.TempoDay, version int) error

	// GetTempoDays returns the persisted days whose calendar date falls in
	// [start, end], in date order. Records written with an older encoding
	// version are skipped.
	GetTempoDays(ctx context.Context, start, end time.Time) (adjusted, dateonly []types.TempoDay, err error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "none", "Storage provider to use (available: firestore, none)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "none":
			p.Database = None{}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// None is a Database that stores nothing; with it the cache stays empty
// until the first successful fetch.
type None struct{}

func (None) UpsertTempoDays(ctx context.Context, adjusted, dateonly []types.TempoDay, version int) error {
	return nil
}

func (None) GetTempoDays(ctx context.Context, start, end time.Time) ([]types.TempoDay, []types.TempoDay, error) {
	return nil, nil, nil
}

func (None) Close() error {
	return nil
}
