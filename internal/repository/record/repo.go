// Package record stores tag field records in Redis/Valkey hashes and sets.
package record

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/kailas-cloud/taginput/internal/domain"
	domrec "github.com/kailas-cloud/taginput/internal/domain/record"
)

// store is the consumer interface for records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SReplace(ctx context.Context, key string, members []string) error
}

// Repo implements usecase/tagfield.RecordStore on a key-value store.
type Repo struct {
	store  store
	schema domrec.Schema
	prefix string
	newID  func() string
}

// New creates a record repository. prefix namespaces every key.
func New(s store, schema domrec.Schema, prefix string) *Repo {
	return &Repo{store: s, schema: schema, prefix: prefix, newID: uuid.NewString}
}

// Describe returns the descriptor of a record type from the schema.
func (r *Repo) Describe(_ context.Context, recordType string) (domrec.Descriptor, error) {
	d, err := r.schema.Describe(recordType)
	if err != nil {
		return domrec.Descriptor{}, fmt.Errorf("describe: %w", err)
	}
	return d, nil
}

// Get returns a record by type and ID.
func (r *Repo) Get(ctx context.Context, recordType, id string) (domrec.Record, error) {
	if _, err := r.schema.Describe(recordType); err != nil {
		return domrec.Record{}, fmt.Errorf("get: %w", err)
	}
	key := r.recKey(recordType, id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domrec.Record{}, fmt.Errorf("%s %s: %w", recordType, id, domain.ErrRecordNotFound)
	}
	return fromHash(recordType, id, fields), nil
}

// Persist writes the record hash; new records get a UUID and join the type's ID set.
func (r *Repo) Persist(ctx context.Context, rec *domrec.Record) error {
	if err := r.schema.Validate(*rec); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	id := rec.ID()
	created := id == ""
	if created {
		id = r.newID()
	}

	fields := rec.Attributes()
	if fields == nil {
		fields = map[string]string{}
	}
	fields[idField] = id
	key := r.recKey(rec.Type(), id)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}

	if created {
		if err := r.store.SAdd(ctx, r.idsKey(rec.Type()), id); err != nil {
			return fmt.Errorf("sadd %s: %w", r.idsKey(rec.Type()), err)
		}
	}
	rec.SetID(id)
	return nil
}

// Search loads every record of the type and evaluates the query in memory.
func (r *Repo) Search(ctx context.Context, q domrec.Query) ([]domrec.Record, error) {
	d, err := r.schema.Describe(q.Type)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := q.Check(d); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	recs, err := r.all(ctx, q.Type)
	if err != nil {
		return nil, err
	}
	return q.Apply(recs), nil
}

// FindByAttribute returns the first record (by ID) whose attribute equals value.
func (r *Repo) FindByAttribute(ctx context.Context, recordType, attribute, value string) (domrec.Record, error) {
	recs, err := r.all(ctx, recordType)
	if err != nil {
		return domrec.Record{}, err
	}
	for _, rec := range recs {
		if v, ok := rec.Attributes()[attribute]; ok && v == value {
			return rec, nil
		}
	}
	return domrec.Record{}, fmt.Errorf("%s with %s=%q: %w", recordType, attribute, value, domain.ErrRecordNotFound)
}

// Related returns the records joined to rec through relation, ordered by ID.
func (r *Repo) Related(ctx context.Context, rec domrec.Record, relation string) ([]domrec.Record, error) {
	target, err := r.relationTarget(rec.Type(), relation)
	if err != nil {
		return nil, err
	}

	key := r.relKey(rec.Type(), rec.ID(), relation)
	ids, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return r.load(ctx, target, ids)
}

// ReplaceRelated swaps the relation set of rec for relatedIDs.
func (r *Repo) ReplaceRelated(ctx context.Context, rec domrec.Record, relation string, relatedIDs []string) error {
	if _, err := r.relationTarget(rec.Type(), relation); err != nil {
		return err
	}
	if !rec.Persisted() {
		return fmt.Errorf("relate unpersisted %s: %w", rec.Type(), domain.ErrInvalidRecord)
	}

	key := r.relKey(rec.Type(), rec.ID(), relation)
	if err := r.store.SReplace(ctx, key, relatedIDs); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (r *Repo) relationTarget(recordType, relation string) (string, error) {
	d, err := r.schema.Describe(recordType)
	if err != nil {
		return "", fmt.Errorf("relation: %w", err)
	}
	target, ok := d.Relation(relation)
	if !ok {
		return "", fmt.Errorf("%q has no relation %q: %w", recordType, relation, domain.ErrInvalidRecord)
	}
	return target, nil
}

func (r *Repo) all(ctx context.Context, recordType string) ([]domrec.Record, error) {
	if _, err := r.schema.Describe(recordType); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	key := r.idsKey(recordType)
	ids, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return r.load(ctx, recordType, ids)
}

// load fetches records by ID in one round-trip, skipping IDs whose hash is gone.
func (r *Repo) load(ctx context.Context, recordType string, ids []string) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recKey(recordType, id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", recordType, err)
	}

	out := make([]domrec.Record, 0, len(ids))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		out = append(out, fromHash(recordType, ids[i], fields))
	}
	return out, nil
}

func fromHash(recordType, id string, fields map[string]string) domrec.Record {
	attrs := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == idField {
			continue
		}
		attrs[k] = v
	}
	return domrec.Reconstruct(recordType, id, attrs)
}
