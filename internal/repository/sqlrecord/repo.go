// Package sqlrecord stores tag field records in PostgreSQL: one table per
// record type and one join table per many-to-many relation.
package sqlrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/taginput/internal/domain"
	domrec "github.com/kailas-cloud/taginput/internal/domain/record"
	"github.com/kailas-cloud/taginput/internal/domain/record/filter"
	"github.com/kailas-cloud/taginput/internal/domain/record/order"
)

// Repo implements usecase/tagfield.RecordStore on PostgreSQL.
type Repo struct {
	db     *sql.DB
	schema domrec.Schema
	logger *zap.Logger
	newID  func() string
}

// New creates a SQL record repository.
func New(db *sql.DB, schema domrec.Schema, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{db: db, schema: schema, logger: logger, newID: uuid.NewString}
}

// JoinTable names the join table of a relation.
func JoinTable(recordType, relation string) string {
	return recordType + "_" + relation
}

// Migrate creates missing tables for every record type and relation.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, name := range r.schema.Types() {
		d, _ := r.schema.Describe(name)

		cols := []string{"id TEXT PRIMARY KEY"}
		for _, a := range d.Attributes() {
			cols = append(cols, pq.QuoteIdentifier(a)+" TEXT")
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
			pq.QuoteIdentifier(name), strings.Join(cols, ", "))
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}

	// Join tables reference both sides, so they go last.
	for _, name := range r.schema.Types() {
		d, _ := r.schema.Describe(name)
		for _, rel := range d.RelationNames() {
			target, _ := d.Relation(rel)
			stmt := fmt.Sprintf(
				"CREATE TABLE IF NOT EXISTS %s (record_id TEXT NOT NULL REFERENCES %s(id), "+
					"related_id TEXT NOT NULL REFERENCES %s(id), PRIMARY KEY (record_id, related_id))",
				pq.QuoteIdentifier(JoinTable(name, rel)), pq.QuoteIdentifier(name), pq.QuoteIdentifier(target))
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create join table %s: %w", JoinTable(name, rel), err)
			}
		}
	}
	r.logger.Info("Record schema migrated", zap.Strings("types", r.schema.Types()))
	return nil
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
	d, err := r.schema.Describe(recordType)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", selectList(d, ""), pq.QuoteIdentifier(recordType))
	rec, err := scanOne(d, r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, fmt.Errorf("%s %s: %w", recordType, id, domain.ErrRecordNotFound)
	}
	if err != nil {
		return domrec.Record{}, fmt.Errorf("select %s %s: %w", recordType, id, err)
	}
	return rec, nil
}

// Persist upserts the record row; new records get a UUID.
func (r *Repo) Persist(ctx context.Context, rec *domrec.Record) error {
	if err := r.schema.Validate(*rec); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	d, _ := r.schema.Describe(rec.Type())

	id := rec.ID()
	if id == "" {
		id = r.newID()
	}

	attrs := d.Attributes()
	cols := make([]string, 0, len(attrs)+1)
	marks := make([]string, 0, len(attrs)+1)
	sets := make([]string, 0, len(attrs))
	args := make([]any, 0, len(attrs)+1)

	cols = append(cols, "id")
	marks = append(marks, "$1")
	args = append(args, id)
	values := rec.Attributes()
	for i, a := range attrs {
		col := pq.QuoteIdentifier(a)
		cols = append(cols, col)
		marks = append(marks, fmt.Sprintf("$%d", i+2))
		sets = append(sets, col+" = EXCLUDED."+col)
		args = append(args, nullable(values, a))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO ",
		pq.QuoteIdentifier(rec.Type()), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if len(sets) == 0 {
		stmt += "NOTHING"
	} else {
		stmt += "UPDATE SET " + strings.Join(sets, ", ")
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", rec.Type(), id, err)
	}
	rec.SetID(id)
	return nil
}

// Search runs a case-insensitive substring query with the filter and order
// translated to SQL.
func (r *Repo) Search(ctx context.Context, q domrec.Query) ([]domrec.Record, error) {
	d, err := r.schema.Describe(q.Type)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := q.Check(d); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Contains != "" {
		where = append(where, fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`,
			pq.QuoteIdentifier(q.Attribute), arg("%"+escapeLike(q.Contains)+"%")))
	}
	where = append(where, filterClauses(q.Filter, arg)...)

	query := fmt.Sprintf("SELECT %s FROM %s", selectList(d, ""), pq.QuoteIdentifier(q.Type))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(q.Order)

	return r.queryAll(ctx, d, query, args...)
}

// FindByAttribute returns the first record (by ID) whose attribute equals value.
func (r *Repo) FindByAttribute(ctx context.Context, recordType, attribute, value string) (domrec.Record, error) {
	d, err := r.schema.Describe(recordType)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("find: %w", err)
	}
	if !d.HasAttribute(attribute) {
		return domrec.Record{}, fmt.Errorf("%q has no attribute %q: %w", recordType, attribute, domain.ErrInvalidRecord)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY id LIMIT 1",
		selectList(d, ""), pq.QuoteIdentifier(recordType), pq.QuoteIdentifier(attribute))
	rec, err := scanOne(d, r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, fmt.Errorf("%s with %s=%q: %w", recordType, attribute, value, domain.ErrRecordNotFound)
	}
	if err != nil {
		return domrec.Record{}, fmt.Errorf("find %s: %w", recordType, err)
	}
	return rec, nil
}

// Related returns the records joined to rec through relation, ordered by ID.
func (r *Repo) Related(ctx context.Context, rec domrec.Record, relation string) ([]domrec.Record, error) {
	target, err := r.relationTarget(rec.Type(), relation)
	if err != nil {
		return nil, err
	}
	td, _ := r.schema.Describe(target)

	query := fmt.Sprintf("SELECT %s FROM %s t JOIN %s j ON j.related_id = t.id WHERE j.record_id = $1 ORDER BY t.id",
		selectList(td, "t."), pq.QuoteIdentifier(target), pq.QuoteIdentifier(JoinTable(rec.Type(), relation)))
	return r.queryAll(ctx, td, query, rec.ID())
}

// ReplaceRelated deletes every join row of rec and inserts relatedIDs, in one transaction.
func (r *Repo) ReplaceRelated(ctx context.Context, rec domrec.Record, relation string, relatedIDs []string) error {
	if _, err := r.relationTarget(rec.Type(), relation); err != nil {
		return err
	}
	if !rec.Persisted() {
		return fmt.Errorf("relate unpersisted %s: %w", rec.Type(), domain.ErrInvalidRecord)
	}
	table := pq.QuoteIdentifier(JoinTable(rec.Type(), relation))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE record_id = $1", rec.ID()); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	insert := "INSERT INTO " + table + " (record_id, related_id) VALUES ($1, $2)"
	for _, id := range relatedIDs {
		if _, err := tx.ExecContext(ctx, insert, rec.ID(), id); err != nil {
			return fmt.Errorf("relate %s to %s: %w", rec.ID(), id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
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

func (r *Repo) queryAll(ctx context.Context, d domrec.Descriptor, query string, args ...any) ([]domrec.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", d.Name(), err)
	}
	defer rows.Close()

	var out []domrec.Record
	for rows.Next() {
		rec, err := scanOne(d, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.Name(), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", d.Name(), err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(d domrec.Descriptor, row scanner) (domrec.Record, error) {
	attrs := d.Attributes()
	var id string
	vals := make([]sql.NullString, len(attrs))
	dest := make([]any, 0, len(attrs)+1)
	dest = append(dest, &id)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if err := row.Scan(dest...); err != nil {
		return domrec.Record{}, err //nolint:wrapcheck // callers wrap with context
	}

	m := make(map[string]string, len(attrs))
	for i, a := range attrs {
		if vals[i].Valid {
			m[a] = vals[i].String
		}
	}
	return domrec.Reconstruct(d.Name(), id, m), nil
}

func selectList(d domrec.Descriptor, alias string) string {
	cols := []string{alias + "id"}
	for _, a := range d.Attributes() {
		cols = append(cols, alias+pq.QuoteIdentifier(a))
	}
	return strings.Join(cols, ", ")
}

func nullable(values map[string]string, name string) sql.NullString {
	v, ok := values[name]
	return sql.NullString{String: v, Valid: ok}
}

func filterClauses(e filter.Expression, arg func(any) string) []string {
	var clauses []string
	for _, c := range e.Must() {
		clauses = append(clauses, pq.QuoteIdentifier(c.Key())+" = "+arg(c.Match()))
	}
	for _, c := range e.MustNot() {
		clauses = append(clauses, pq.QuoteIdentifier(c.Key())+" IS DISTINCT FROM "+arg(c.Match()))
	}
	if len(e.Should()) > 0 {
		alts := make([]string, 0, len(e.Should()))
		for _, c := range e.Should() {
			alts = append(alts, pq.QuoteIdentifier(c.Key())+" = "+arg(c.Match()))
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}
	return clauses
}

// orderClause sorts a NULL attribute as the empty string and compares bytes,
// matching order.Order.Less on the key-value store.
func orderClause(o order.Order) string {
	if o.IsZero() {
		return "id"
	}
	dir := "ASC"
	if o.Direction() == order.Desc {
		dir = "DESC"
	}
	return "COALESCE(" + pq.QuoteIdentifier(o.Attribute()) + `, '') COLLATE "C" ` + dir + ", id"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
