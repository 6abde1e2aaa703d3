package tagfield

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taginput/internal/domain"
	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
	"github.com/kailas-cloud/taginput/internal/domain/tag"
	logpkg "github.com/kailas-cloud/taginput/internal/logger"
	"github.com/kailas-cloud/taginput/internal/metrics"
)

// Service is one tag-input field bound to a record store. It resolves the
// field's storage mode once and serves suggest, save and bind for it.
type Service struct {
	field  *field.Field
	store  RecordStore
	logger *zap.Logger

	mu       sync.Mutex
	resolved bool
	mode     record.Mode
	target   string
	modeErr  error
}

// New creates a tag field service.
func New(f *field.Field, store RecordStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{field: f, store: store, logger: logger}
}

// Field returns the field configuration.
func (s *Service) Field() *field.Field { return s.field }

// Mode resolves how the field is stored on its topic type. Store failures are
// returned without being cached; a configuration error is cached like a success.
func (s *Service) Mode(ctx context.Context) (record.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		return s.mode, s.modeErr
	}

	mode, target, err := s.resolve(ctx)
	if err != nil && !errors.Is(err, domain.ErrMisconfigured) {
		return record.ModeNone, err
	}
	if err != nil {
		logpkg.FromContext(ctx, s.logger).Error("Tag field misconfigured",
			zap.String("field", s.field.Name()),
			zap.String("topic_type", s.field.TopicType()),
			zap.Error(err),
		)
	}

	s.resolved = true
	s.mode, s.target, s.modeErr = mode, target, err
	return mode, err
}

func (s *Service) resolve(ctx context.Context) (record.Mode, string, error) {
	topic, err := s.store.Describe(ctx, s.field.TopicType())
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRecordType) {
			return record.ModeNone, "", fmt.Errorf("topic type: %w: %w", domain.ErrMisconfigured, err)
		}
		return record.ModeNone, "", fmt.Errorf("describe %q: %w", s.field.TopicType(), err)
	}

	mode, err := topic.ModeFor(s.field.Name())
	if err != nil {
		return record.ModeNone, "", err
	}
	if mode != record.ModeRelation {
		if err := s.suggestQuery(topic.Name(), s.field.Name(), "").Check(topic); err != nil {
			return record.ModeNone, "", fmt.Errorf("suggest: %w", err)
		}
		return mode, "", nil
	}

	target, _ := topic.Relation(s.field.Name())
	related, err := s.store.Describe(ctx, target)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRecordType) {
			return record.ModeNone, "", fmt.Errorf("related type: %w: %w", domain.ErrMisconfigured, err)
		}
		return record.ModeNone, "", fmt.Errorf("describe %q: %w", target, err)
	}
	if !related.HasAttribute(s.field.ValueAttribute()) {
		return record.ModeNone, "", fmt.Errorf("%q has no value attribute %q: %w",
			target, s.field.ValueAttribute(), domain.ErrMisconfigured)
	}
	if err := s.suggestQuery(target, s.field.ValueAttribute(), "").Check(related); err != nil {
		return record.ModeNone, "", fmt.Errorf("suggest: %w", err)
	}
	return mode, target, nil
}

// suggestQuery is the store query behind Suggest, with the field's filter
// and sort applied.
func (s *Service) suggestQuery(recordType, attribute, contains string) record.Query {
	return record.Query{
		Type:      recordType,
		Attribute: attribute,
		Contains:  contains,
		Filter:    s.field.SuggestFilter(),
		Order:     s.field.SuggestSort(),
	}
}

// Suggest returns tag strings matching query. A static list is returned as is.
func (s *Service) Suggest(ctx context.Context, query string) ([]string, error) {
	if s.field.HasStaticTags() {
		tags := s.field.StaticTags()
		metrics.TagSuggestResults.WithLabelValues(s.field.Name(), "static").Observe(float64(len(tags)))
		return tags, nil
	}

	mode, err := s.Mode(ctx)
	if err != nil {
		return nil, err
	}

	var out []string
	switch mode {
	case record.ModeRelation:
		out, err = s.suggestRelated(ctx, query)
	case record.ModeScalar:
		out, err = s.suggestScalar(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	metrics.TagSuggestResults.WithLabelValues(s.field.Name(), mode.String()).Observe(float64(len(out)))
	return out, nil
}

func (s *Service) suggestRelated(ctx context.Context, query string) ([]string, error) {
	recs, err := s.store.Search(ctx, s.suggestQuery(s.target, s.field.ValueAttribute(), query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.target, err)
	}

	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Attribute(s.field.ValueAttribute()))
	}
	return out, nil
}

// suggestScalar matches whole attribute values, then keeps only the tokens that
// themselves contain the query.
func (s *Service) suggestScalar(ctx context.Context, query string) ([]string, error) {
	recs, err := s.store.Search(ctx, s.suggestQuery(s.field.TopicType(), s.field.Name(), query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.field.TopicType(), err)
	}

	rule := s.field.Rule()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		for _, tok := range rule.Split(r.Attribute(s.field.Name())) {
			if tag.Contains(tok, query) {
				out = append(out, tok)
			}
		}
	}
	return tag.Unique(out), nil
}

// Save writes a submitted raw value into rec. An empty value is a no-op.
// In relation mode the record is persisted first when new, missing tag
// records are created and the relation set is replaced. In scalar mode only
// the in-memory attribute changes; the caller persists rec.
func (s *Service) Save(ctx context.Context, rec *record.Record, raw string) error {
	if raw == "" {
		return nil
	}

	mode, err := s.Mode(ctx)
	if err != nil {
		return err
	}
	if rec.Type() != s.field.TopicType() {
		return fmt.Errorf("record type %q, field expects %q: %w",
			rec.Type(), s.field.TopicType(), domain.ErrInvalidRecord)
	}

	switch mode {
	case record.ModeRelation:
		err = s.saveRelated(ctx, rec, raw)
	case record.ModeScalar:
		rule := s.field.Rule()
		rec.SetAttribute(s.field.Name(), rule.Join(rule.Split(raw)))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.TagFieldSavesTotal.WithLabelValues(s.field.Name(), mode.String(), status).Inc()
	return err
}

func (s *Service) saveRelated(ctx context.Context, rec *record.Record, raw string) error {
	if !rec.Persisted() {
		if err := s.store.Persist(ctx, rec); err != nil {
			return fmt.Errorf("persist %q before relating: %w", rec.Type(), err)
		}
	}

	tokens := s.field.Rule().Split(raw)
	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		id, err := s.resolveTag(ctx, tok)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if err := s.store.ReplaceRelated(ctx, *rec, s.field.Name(), ids); err != nil {
		return fmt.Errorf("replace %q of %s: %w", s.field.Name(), rec.ID(), err)
	}

	logpkg.FromContext(ctx, s.logger).Debug("Tags replaced",
		zap.String("field", s.field.Name()),
		zap.String("record_id", rec.ID()),
		zap.Int("tags", len(ids)),
	)
	return nil
}

// resolveTag returns the ID of the tag record whose value equals tok,
// creating it when absent.
func (s *Service) resolveTag(ctx context.Context, tok string) (string, error) {
	existing, err := s.store.FindByAttribute(ctx, s.target, s.field.ValueAttribute(), tok)
	if err == nil {
		return existing.ID(), nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return "", fmt.Errorf("find tag %q: %w", tok, err)
	}

	created := record.New(s.target)
	created.SetAttribute(s.field.ValueAttribute(), tok)
	if err := s.store.Persist(ctx, &created); err != nil {
		return "", fmt.Errorf("create tag %q: %w", tok, err)
	}
	metrics.TagsCreatedTotal.WithLabelValues(s.field.Name()).Inc()
	return created.ID(), nil
}

// Bind returns the value the field displays for an existing record.
func (s *Service) Bind(ctx context.Context, rec record.Record) (string, error) {
	mode, err := s.Mode(ctx)
	if err != nil {
		return "", err
	}

	if mode == record.ModeScalar {
		return rec.Attribute(s.field.Name()), nil
	}

	if !rec.Persisted() {
		return "", nil
	}
	related, err := s.store.Related(ctx, rec, s.field.Name())
	if err != nil {
		return "", fmt.Errorf("related %q of %s: %w", s.field.Name(), rec.ID(), err)
	}
	values := make([]string, 0, len(related))
	for _, r := range related {
		values = append(values, r.Attribute(s.field.ValueAttribute()))
	}
	return s.field.Rule().Join(values), nil
}

// Load fetches a record of the topic type together with its bound value.
// An empty id yields a new record bound to the field's initial value. A field
// with a static tag list renders a new record without touching the store.
func (s *Service) Load(ctx context.Context, id string) (record.Record, string, error) {
	if id == "" && s.field.HasStaticTags() {
		return record.New(s.field.TopicType()), s.field.Value(), nil
	}
	if _, err := s.Mode(ctx); err != nil {
		return record.Record{}, "", err
	}
	if id == "" {
		return record.New(s.field.TopicType()), s.field.Value(), nil
	}

	rec, err := s.store.Get(ctx, s.field.TopicType(), id)
	if err != nil {
		return record.Record{}, "", fmt.Errorf("get %q %s: %w", s.field.TopicType(), id, err)
	}
	value, err := s.Bind(ctx, rec)
	if err != nil {
		return record.Record{}, "", err
	}
	return rec, value, nil
}

// Submit handles a form submission the way a host form does: load or start the
// record, let the field save the raw value, then persist the record.
// submitted is false when the form carried no value for the field.
func (s *Service) Submit(ctx context.Context, id, raw string, submitted bool) (record.Record, string, error) {
	if _, err := s.Mode(ctx); err != nil {
		return record.Record{}, "", err
	}

	rec := record.New(s.field.TopicType())
	if id != "" {
		loaded, err := s.store.Get(ctx, s.field.TopicType(), id)
		if err != nil {
			return record.Record{}, "", fmt.Errorf("get %q %s: %w", s.field.TopicType(), id, err)
		}
		rec = loaded
	}

	if submitted {
		if err := s.Save(ctx, &rec, raw); err != nil {
			return record.Record{}, "", err
		}
	}

	if err := s.store.Persist(ctx, &rec); err != nil {
		return record.Record{}, "", fmt.Errorf("persist %q: %w", rec.Type(), err)
	}

	value, err := s.Bind(ctx, rec)
	if err != nil {
		return record.Record{}, "", err
	}
	return rec, value, nil
}
