package taginput

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taginput/internal/config"
	"github.com/kailas-cloud/taginput/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/taginput/internal/db/redis"
	"github.com/kailas-cloud/taginput/internal/domain/record"
	recordrepo "github.com/kailas-cloud/taginput/internal/repository/record"
	"github.com/kailas-cloud/taginput/internal/repository/sqlrecord"
	healthuc "github.com/kailas-cloud/taginput/internal/usecase/health"
	tagfielduc "github.com/kailas-cloud/taginput/internal/usecase/tagfield"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "taginput:"
)

// backend is the connection a client owns.
type backend interface {
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// Client is the taginput SDK entry point.
type Client struct {
	backend   backend
	records   tagfielduc.RecordStore
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the readiness check and migrations.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.recordTypes) == 0 {
		return nil, errors.New("taginput: at least one record type required (use WithRecordType)")
	}
	schema, err := (&config.Config{Schema: cfg.recordTypes}).BuildSchema()
	if err != nil {
		return nil, fmt.Errorf("taginput: %w", err)
	}

	be, records, err := createBackend(cfg, schema)
	if err != nil {
		return nil, err
	}

	if err := be.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		be.Close()
		return nil, fmt.Errorf("taginput: database not ready: %w", err)
	}

	if m, ok := records.(migrator); ok && cfg.migrate {
		if err := m.Migrate(ctx); err != nil {
			be.Close()
			return nil, fmt.Errorf("taginput: migrate: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		be.Close()
		return nil, err
	}
	return wireClient(be, records, obs), nil
}

func createBackend(cfg *clientConfig, schema record.Schema) (backend, tagfielduc.RecordStore, error) {
	switch cfg.driver {
	case config.DriverValkey, config.DriverRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, nil, errors.New("taginput: database address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("taginput: create %s store: %w", cfg.driver, err)
		}
		return s, recordrepo.New(s, schema, cfg.keyPrefix), nil
	case config.DriverPostgres:
		if cfg.dsn == "" {
			return nil, nil, errors.New("taginput: postgres dsn required")
		}
		pg, err := postgres.Open(postgres.Config{DSN: cfg.dsn})
		if err != nil {
			return nil, nil, fmt.Errorf("taginput: open postgres: %w", err)
		}
		return pg, sqlrecord.New(pg.DB, schema, zap.NewNop()), nil
	case "":
		return nil, nil, errors.New("taginput: database required (use WithValkey, WithRedis or WithPostgres)")
	default:
		return nil, nil, fmt.Errorf("taginput: unknown driver %q", cfg.driver)
	}
}

func wireClient(be backend, records tagfielduc.RecordStore, obs *observer) *Client {
	return &Client{
		backend:   be,
		records:   records,
		healthSvc: healthuc.New(be),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Field creates a tag field bound to records of topicType. The field's
// storage mode is resolved on first use; a name that is neither a relation
// nor an attribute of topicType surfaces as ErrMisconfigured.
func (c *Client) Field(name, topicType string, opts ...FieldOption) (*FieldService, error) {
	fc := config.FieldConfig{Name: name, TopicType: topicType}
	for _, o := range opts {
		o(&fc)
	}
	if sep := []rune(fc.Separator); fc.Separator != "" && len(sep) != 1 {
		return nil, fmt.Errorf("taginput: field %q: separator must be one character", name)
	}

	f, err := fc.Build()
	if err != nil {
		return nil, fmt.Errorf("taginput: %w", err)
	}
	return &FieldService{
		svc: tagfielduc.New(f, c.records, zap.NewNop()),
		obs: c.obs,
	}, nil
}
