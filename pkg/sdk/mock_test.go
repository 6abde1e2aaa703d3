package taginput

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
	healthuc "github.com/kailas-cloud/taginput/internal/usecase/health"
)

// --- fieldUseCase mock ---

type mockFieldUC struct {
	field     *field.Field
	modeFn    func(ctx context.Context) (record.Mode, error)
	suggestFn func(ctx context.Context, query string) ([]string, error)
	loadFn    func(ctx context.Context, id string) (record.Record, string, error)
	submitFn  func(ctx context.Context, id, raw string, submitted bool) (record.Record, string, error)
}

func (m *mockFieldUC) Field() *field.Field { return m.field }

func (m *mockFieldUC) Mode(ctx context.Context) (record.Mode, error) {
	return m.modeFn(ctx)
}

func (m *mockFieldUC) Suggest(ctx context.Context, query string) ([]string, error) {
	return m.suggestFn(ctx, query)
}

func (m *mockFieldUC) Load(ctx context.Context, id string) (record.Record, string, error) {
	return m.loadFn(ctx, id)
}

func (m *mockFieldUC) Submit(ctx context.Context, id, raw string, submitted bool) (record.Record, string, error) {
	return m.submitFn(ctx, id, raw, submitted)
}

// --- backend mock ---

type mockBackend struct {
	pingErr error
	closed  bool
}

func (m *mockBackend) Ping(_ context.Context) error { return m.pingErr }

func (m *mockBackend) Close() { m.closed = true }

func (m *mockBackend) WaitForReady(_ context.Context, _ time.Duration) error { return m.pingErr }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- RecordStore stub: describes a schema, stores nothing ---

var errNotStored = errors.New("stub store holds no records")

type schemaOnlyStore struct {
	schema record.Schema
}

func (s *schemaOnlyStore) Describe(_ context.Context, recordType string) (record.Descriptor, error) {
	return s.schema.Describe(recordType)
}

func (s *schemaOnlyStore) Get(_ context.Context, _, _ string) (record.Record, error) {
	return record.Record{}, errNotStored
}

func (s *schemaOnlyStore) Persist(_ context.Context, _ *record.Record) error { return errNotStored }

func (s *schemaOnlyStore) Search(_ context.Context, _ record.Query) ([]record.Record, error) {
	return nil, errNotStored
}

func (s *schemaOnlyStore) FindByAttribute(_ context.Context, _, _, _ string) (record.Record, error) {
	return record.Record{}, errNotStored
}

func (s *schemaOnlyStore) Related(_ context.Context, _ record.Record, _ string) ([]record.Record, error) {
	return nil, errNotStored
}

func (s *schemaOnlyStore) ReplaceRelated(_ context.Context, _ record.Record, _ string, _ []string) error {
	return errNotStored
}
