package taginput

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
)

// Mode is how a field stores its tags on the topic record.
type Mode string

// Storage modes.
const (
	ModeRelation Mode = "relation" // related records joined many-to-many
	ModeScalar   Mode = "scalar"   // one separator-joined attribute
)

// Record is a topic record together with the value the field displays for it.
type Record struct {
	ID         string
	Type       string
	Attributes map[string]string
	Value      string
}

// fieldUseCase is the internal interface of a tag field.
type fieldUseCase interface {
	Field() *field.Field
	Mode(ctx context.Context) (record.Mode, error)
	Suggest(ctx context.Context, query string) ([]string, error)
	Load(ctx context.Context, id string) (record.Record, string, error)
	Submit(ctx context.Context, id, raw string, submitted bool) (record.Record, string, error)
}

// FieldService operates one tag field.
type FieldService struct {
	svc fieldUseCase
	obs *observer
}

// Name returns the field name.
func (s *FieldService) Name() string { return s.svc.Field().Name() }

// Mode resolves the field's storage mode.
func (s *FieldService) Mode(ctx context.Context) (_ Mode, err error) {
	start := time.Now()
	defer func() { s.obs.observe("field.mode", s.Name(), start, err) }()

	m, err := s.svc.Mode(ctx)
	if err != nil {
		return "", fmt.Errorf("mode %q: %w", s.Name(), err)
	}
	return Mode(m.String()), nil
}

// Suggest returns the tags matching query.
func (s *FieldService) Suggest(ctx context.Context, query string) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("field.suggest", s.Name(), start, err) }()

	tags, err := s.svc.Suggest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", s.Name(), err)
	}
	return tags, nil
}

// Load returns a record with its bound value. An empty id returns a new,
// unsaved record carrying the field's initial value.
func (s *FieldService) Load(ctx context.Context, id string) (_ Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("field.load", s.Name(), start, err) }()

	rec, value, err := s.svc.Load(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("load %q: %w", s.Name(), err)
	}
	return toRecord(rec, value), nil
}

// Submit saves raw as the field value of record id, creating the record
// when id is empty. An empty raw leaves the stored tags untouched.
func (s *FieldService) Submit(ctx context.Context, id, raw string) (_ Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("field.submit", s.Name(), start, err) }()

	rec, value, err := s.svc.Submit(ctx, id, raw, true)
	if err != nil {
		return Record{}, fmt.Errorf("submit %q: %w", s.Name(), err)
	}
	return toRecord(rec, value), nil
}

// Touch persists record id (or a new one) without a value for the field,
// as a form that omits the field would.
func (s *FieldService) Touch(ctx context.Context, id string) (_ Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("field.touch", s.Name(), start, err) }()

	rec, value, err := s.svc.Submit(ctx, id, "", false)
	if err != nil {
		return Record{}, fmt.Errorf("touch %q: %w", s.Name(), err)
	}
	return toRecord(rec, value), nil
}

func toRecord(rec record.Record, value string) Record {
	return Record{
		ID:         rec.ID(),
		Type:       rec.Type(),
		Attributes: rec.Attributes(),
		Value:      value,
	}
}
