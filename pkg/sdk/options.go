package taginput

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/taginput/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "postgres"
	addrs    []string
	password string
	dsn      string
	migrate  bool

	keyPrefix   string
	recordTypes []config.RecordTypeConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres configures the client to store records in PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverPostgres
		c.dsn = dsn
	})
}

// WithAutoMigrate creates missing tables on connect. PostgreSQL only.
func WithAutoMigrate() Option {
	return optionFunc(func(c *clientConfig) {
		c.migrate = true
	})
}

// WithKeyPrefix sets the key namespace used on Valkey/Redis.
// Default: "taginput:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithRecordType declares a record type: its scalar attributes and its
// relations (relation name -> related record type). At least one is required.
func WithRecordType(name string, attributes []string, relations map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordTypes = append(c.recordTypes, config.RecordTypeConfig{
			Name:       name,
			Attributes: attributes,
			Relations:  relations,
		})
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// FieldOption configures a field created with Client.Field.
type FieldOption func(*config.FieldConfig)

// WithTitle sets the field label. Defaults to the field name.
func WithTitle(title string) FieldOption {
	return func(fc *config.FieldConfig) { fc.Title = title }
}

// WithValue sets the value a new record starts with.
func WithValue(value string) FieldOption {
	return func(fc *config.FieldConfig) { fc.Value = value }
}

// WithValueAttribute sets the attribute of related records that holds the
// tag text. Default: "Title".
func WithValueAttribute(attr string) FieldOption {
	return func(fc *config.FieldConfig) { fc.ValueAttribute = attr }
}

// WithSeparator sets the tag separator. Default: space.
func WithSeparator(sep rune) FieldOption {
	return func(fc *config.FieldConfig) { fc.Separator = string(sep) }
}

// WithStaticTags makes the field suggest a fixed list instead of querying storage.
func WithStaticTags(tags ...string) FieldOption {
	return func(fc *config.FieldConfig) {
		fc.StaticTags = append([]string{}, tags...)
	}
}

// WithSuggestFilter restricts suggestions to records whose attributes equal
// every must value and none of the mustNot values.
func WithSuggestFilter(must, mustNot map[string]string) FieldOption {
	return func(fc *config.FieldConfig) {
		fc.SuggestFilter.Must = must
		fc.SuggestFilter.MustNot = mustNot
	}
}

// WithSuggestSort orders suggestions, e.g. "Title desc".
func WithSuggestSort(expr string) FieldOption {
	return func(fc *config.FieldConfig) { fc.SuggestSort = expr }
}
