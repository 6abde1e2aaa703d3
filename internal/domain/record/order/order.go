// Package order describes the sort order applied to suggest queries.
package order

import (
	"fmt"
	"strings"
)

// Direction is the sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order sorts records by one attribute. The zero value means unsorted.
type Order struct {
	attribute string
	direction Direction
}

// Parse reads expressions like "Title", "Title asc" or "Title DESC".
// An empty expression yields the zero Order.
func Parse(expr string) (Order, error) {
	parts := strings.Fields(expr)
	switch len(parts) {
	case 0:
		return Order{}, nil
	case 1:
		return Order{attribute: parts[0], direction: Asc}, nil
	case 2:
		d := Direction(strings.ToLower(parts[1]))
		if d != Asc && d != Desc {
			return Order{}, fmt.Errorf("invalid sort direction %q in %q", parts[1], expr)
		}
		return Order{attribute: parts[0], direction: d}, nil
	default:
		return Order{}, fmt.Errorf("invalid sort expression %q", expr)
	}
}

// By creates an Order on attribute in direction d.
func By(attribute string, d Direction) Order {
	return Order{attribute: attribute, direction: d}
}

// Attribute returns the sort attribute.
func (o Order) Attribute() string { return o.attribute }

// Direction returns the sort direction.
func (o Order) Direction() Direction { return o.direction }

// IsZero reports whether no ordering is requested.
func (o Order) IsZero() bool { return o.attribute == "" }

// Less compares two attribute sets according to the order.
func (o Order) Less(a, b map[string]string) bool {
	if o.direction == Desc {
		return a[o.attribute] > b[o.attribute]
	}
	return a[o.attribute] < b[o.attribute]
}

// String renders the order back to its expression form.
func (o Order) String() string {
	if o.IsZero() {
		return ""
	}
	return o.attribute + " " + string(o.direction)
}
