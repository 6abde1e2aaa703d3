package tagfield

import (
	"context"

	"github.com/kailas-cloud/taginput/internal/domain/record"
)

// RecordStore is the host storage a tag field reads from and writes to.
type RecordStore interface {
	// Describe returns what a record type exposes (relations, attributes).
	Describe(ctx context.Context, recordType string) (record.Descriptor, error)
	// Get loads a record; domain.ErrRecordNotFound when missing.
	Get(ctx context.Context, recordType, id string) (record.Record, error)
	// Persist creates or updates a record, assigning an ID to new records.
	Persist(ctx context.Context, rec *record.Record) error
	// Search returns records matching a substring query.
	Search(ctx context.Context, q record.Query) ([]record.Record, error)
	// FindByAttribute returns the first record whose attribute equals value exactly;
	// domain.ErrRecordNotFound when none does.
	FindByAttribute(ctx context.Context, recordType, attribute, value string) (record.Record, error)
	// Related returns the records joined to rec through relation.
	Related(ctx context.Context, rec record.Record, relation string) ([]record.Record, error)
	// ReplaceRelated drops every association of rec through relation and
	// attaches relatedIDs instead.
	ReplaceRelated(ctx context.Context, rec record.Record, relation string, relatedIDs []string) error
}
