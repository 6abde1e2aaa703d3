package record

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/taginput/internal/domain"
	"github.com/kailas-cloud/taginput/internal/domain/record/filter"
	"github.com/kailas-cloud/taginput/internal/domain/record/order"
	"github.com/kailas-cloud/taginput/internal/domain/tag"
)

// Query selects records of one type whose Attribute contains Contains
// (case-insensitive), restricted by Filter and sorted by Order.
// An empty Contains selects every record.
type Query struct {
	Type      string
	Attribute string
	Contains  string
	Filter    filter.Expression
	Order     order.Order
}

// Check returns ErrMisconfigured when the query names an attribute that d
// does not declare. Stores run it before searching so that an unknown filter
// or sort attribute fails the same way everywhere.
func (q Query) Check(d Descriptor) error {
	names := q.Filter.Keys()
	if q.Attribute != "" {
		names = append(names, q.Attribute)
	}
	if !q.Order.IsZero() {
		names = append(names, q.Order.Attribute())
	}
	for _, n := range names {
		if !d.HasAttribute(n) {
			return fmt.Errorf("%q has no attribute %q: %w", d.Name(), n, domain.ErrMisconfigured)
		}
	}
	return nil
}

// Matches reports whether rec satisfies the query's type, substring and filter.
func (q Query) Matches(rec Record) bool {
	if rec.recordType != q.Type {
		return false
	}
	if !tag.Contains(rec.attrs[q.Attribute], q.Contains) {
		return false
	}
	return q.Filter.Matches(rec.attrs)
}

// Apply evaluates the query in memory over recs, keeping the input order
// when no Order is set. A missing sort attribute compares as "".
func (q Query) Apply(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	if !q.Order.IsZero() {
		sort.SliceStable(out, func(i, j int) bool {
			return q.Order.Less(out[i].attrs, out[j].attrs)
		})
	}
	return out
}
