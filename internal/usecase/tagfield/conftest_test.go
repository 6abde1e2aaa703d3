package tagfield

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/kailas-cloud/taginput/internal/domain"
	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
)

// fakeStore is an in-memory RecordStore. Records keep insertion order.
type fakeStore struct {
	schema    record.Schema
	records   map[string][]record.Record // type -> records
	relations map[string][]string        // type/id/relation -> related ids
	nextID    int
	writes    int
	describes int

	describeErr error
	searchErr   error
	persistErr  error
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	post, err := record.NewDescriptor("post", []string{"Title", "keywords"}, map[string]string{"tags": "tag"})
	if err != nil {
		t.Fatalf("post descriptor: %v", err)
	}
	tg, err := record.NewDescriptor("tag", []string{"Title", "status"}, nil)
	if err != nil {
		t.Fatalf("tag descriptor: %v", err)
	}
	schema, err := record.NewSchema(post, tg)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return &fakeStore{
		schema:    schema,
		records:   map[string][]record.Record{},
		relations: map[string][]string{},
	}
}

func relKey(typ, id, rel string) string { return typ + "/" + id + "/" + rel }

func (f *fakeStore) Describe(_ context.Context, recordType string) (record.Descriptor, error) {
	f.describes++
	if f.describeErr != nil {
		return record.Descriptor{}, f.describeErr
	}
	return f.schema.Describe(recordType)
}

func (f *fakeStore) Get(_ context.Context, recordType, id string) (record.Record, error) {
	for _, r := range f.records[recordType] {
		if r.ID() == id {
			return r, nil
		}
	}
	return record.Record{}, domain.ErrRecordNotFound
}

func (f *fakeStore) Persist(_ context.Context, rec *record.Record) error {
	if f.persistErr != nil {
		return f.persistErr
	}
	f.writes++
	if !rec.Persisted() {
		f.nextID++
		rec.SetID(fmt.Sprintf("%s-%d", rec.Type(), f.nextID))
		f.records[rec.Type()] = append(f.records[rec.Type()], *rec)
		return nil
	}
	list := f.records[rec.Type()]
	for i := range list {
		if list[i].ID() == rec.ID() {
			list[i] = *rec
			return nil
		}
	}
	f.records[rec.Type()] = append(list, *rec)
	return nil
}

func (f *fakeStore) Search(_ context.Context, q record.Query) ([]record.Record, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return q.Apply(f.records[q.Type]), nil
}

func (f *fakeStore) FindByAttribute(_ context.Context, recordType, attribute, value string) (record.Record, error) {
	for _, r := range f.records[recordType] {
		if r.Attribute(attribute) == value {
			return r, nil
		}
	}
	return record.Record{}, domain.ErrRecordNotFound
}

func (f *fakeStore) Related(ctx context.Context, rec record.Record, relation string) ([]record.Record, error) {
	d, err := f.schema.Describe(rec.Type())
	if err != nil {
		return nil, err
	}
	target, _ := d.Relation(relation)
	var out []record.Record
	for _, id := range f.relations[relKey(rec.Type(), rec.ID(), relation)] {
		r, err := f.Get(ctx, target, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ReplaceRelated(_ context.Context, rec record.Record, relation string, ids []string) error {
	f.writes++
	f.relations[relKey(rec.Type(), rec.ID(), relation)] = slices.Clone(ids)
	return nil
}

func (f *fakeStore) seed(t *testing.T, typ string, attrs map[string]string) record.Record {
	t.Helper()
	r := record.Reconstruct(typ, "", attrs)
	if err := f.Persist(context.Background(), &r); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return r
}

func newField(t *testing.T, name string) *field.Field {
	t.Helper()
	f, err := field.New(name, "", "", "post")
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

func sorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
