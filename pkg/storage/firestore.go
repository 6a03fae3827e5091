package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const tempoDaysCollection = "tempo_days"

// storedDay is the persisted encoding of one calendar day: both views
// derived from the same fetch.
type storedDay struct {
	Adjusted types.TempoDay `json:"adjusted"`
	DateOnly types.TempoDay `json:"dateOnly"`
}

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore, one document per calendar date.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// dayDocID keys a day by its calendar date for lexicographic range queries.
func dayDocID(day types.TempoDay) string {
	return day.Start.Format("2006-01-02")
}

// UpsertTempoDays writes both views of each fetched day. The slices are
// index-aligned, one pair per calendar date.
func (f *FirestoreProvider) UpsertTempoDays(ctx context.Context, adjusted, dateonly []types.TempoDay, version int) error {
	if len(adjusted) != len(dateonly) {
		return fmt.Errorf("mismatched view lengths: %d adjusted, %d dateonly", len(adjusted), len(dateonly))
	}

	coll := f.client.Collection(tempoDaysCollection)
	bw := f.client.BulkWriter(ctx)
	for i := range dateonly {
		jsonBytes, err := json.Marshal(storedDay{Adjusted: adjusted[i], DateOnly: dateonly[i]})
		if err != nil {
			return fmt.Errorf("failed to marshal tempo day: %w", err)
		}
		_, err = bw.Set(coll.Doc(dayDocID(dateonly[i])), map[string]interface{}{
			"json":      string(jsonBytes),
			"timestamp": dateonly[i].Start,
			"version":   version,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert tempo day: %w", err)
		}
	}
	bw.End()
	return nil
}

// GetTempoDays retrieves persisted days whose calendar date falls within
// [start, end], in date order.
func (f *FirestoreProvider) GetTempoDays(ctx context.Context, start, end time.Time) ([]types.TempoDay, []types.TempoDay, error) {
	coll := f.client.Collection(tempoDaysCollection)
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start.Format("2006-01-02"))).
		Where(firestore.DocumentID, "<=", coll.Doc(end.Format("2006-01-02"))).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var adjusted, dateonly []types.TempoDay
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil, nil
			}
			return nil, nil, fmt.Errorf("error iterating tempo days: %w", err)
		}

		if v, err := doc.DataAt("version"); err == nil {
			if vInt, ok := v.(int64); ok && int(vInt) < types.CurrentTempoDayVersion {
				continue
			}
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "tempo day doc missing json", slog.String("date", doc.Ref.ID), slog.Any("err", err))
			return nil, nil, fmt.Errorf("tempo day document %s missing 'json' field: %w", doc.Ref.ID, err)
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "tempo day doc json not string", slog.String("date", doc.Ref.ID))
			return nil, nil, fmt.Errorf("tempo day document %s 'json' field is not string", doc.Ref.ID)
		}

		var d storedDay
		if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal tempo day", slog.String("date", doc.Ref.ID), slog.Any("err", err))
			return nil, nil, fmt.Errorf("failed to unmarshal tempo day (date=%s): %w", doc.Ref.ID, err)
		}
		adjusted = append(adjusted, d.Adjusted)
		dateonly = append(dateonly, d.DateOnly)
	}
	return adjusted, dateonly, nil
}
