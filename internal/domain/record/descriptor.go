package record

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/taginput/internal/domain"
)

// Mode is the storage strategy a tag field uses on its topic record type.
type Mode int

// Storage modes.
const (
	ModeNone Mode = iota
	// ModeRelation stores tags as related records joined many-to-many.
	ModeRelation
	// ModeScalar stores tags as one separator-joined attribute.
	ModeScalar
)

func (m Mode) String() string {
	switch m {
	case ModeRelation:
		return "relation"
	case ModeScalar:
		return "scalar"
	default:
		return "none"
	}
}

var reservedNames = map[string]bool{"id": true}

// Descriptor lists what a record type exposes: scalar attributes and
// many-to-many relations (relation name -> related record type).
type Descriptor struct {
	name       string
	attributes []string
	relations  map[string]string
}

// NewDescriptor validates and creates a Descriptor.
func NewDescriptor(name string, attributes []string, relations map[string]string) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, fmt.Errorf("record type name is required")
	}
	seen := make(map[string]bool, len(attributes)+len(relations))
	for _, a := range attributes {
		if a == "" {
			return Descriptor{}, fmt.Errorf("record type %q: empty attribute name", name)
		}
		if reservedNames[a] {
			return Descriptor{}, fmt.Errorf("record type %q: attribute name %q is reserved", name, a)
		}
		if seen[a] {
			return Descriptor{}, fmt.Errorf("record type %q: duplicate attribute %q", name, a)
		}
		seen[a] = true
	}
	rels := make(map[string]string, len(relations))
	for rel, target := range relations {
		if rel == "" || target == "" {
			return Descriptor{}, fmt.Errorf("record type %q: relation needs a name and a target", name)
		}
		if seen[rel] || reservedNames[rel] {
			return Descriptor{}, fmt.Errorf("record type %q: relation %q clashes with an attribute", name, rel)
		}
		rels[rel] = target
	}
	return Descriptor{name: name, attributes: slices.Clone(attributes), relations: rels}, nil
}

// Name returns the record type name.
func (d Descriptor) Name() string { return d.name }

// Attributes returns the attribute names in declaration order.
func (d Descriptor) Attributes() []string { return slices.Clone(d.attributes) }

// HasAttribute reports whether the type has a scalar attribute of that name.
func (d Descriptor) HasAttribute(name string) bool {
	return slices.Contains(d.attributes, name)
}

// Relation returns the related record type of a many-to-many relation.
func (d Descriptor) Relation(name string) (string, bool) {
	target, ok := d.relations[name]
	return target, ok
}

// RelationNames returns the relation names, sorted.
func (d Descriptor) RelationNames() []string {
	names := make([]string, 0, len(d.relations))
	for n := range d.relations {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ModeFor resolves how a field named name is stored on this type.
// A relation wins over an attribute. ModeNone comes with ErrMisconfigured.
func (d Descriptor) ModeFor(name string) (Mode, error) {
	if _, ok := d.relations[name]; ok {
		return ModeRelation, nil
	}
	if d.HasAttribute(name) {
		return ModeScalar, nil
	}
	return ModeNone, fmt.Errorf("%q is neither a relation nor an attribute of %q: %w",
		name, d.name, domain.ErrMisconfigured)
}

// Schema is the set of record types known to a store.
type Schema struct {
	types map[string]Descriptor
}

// NewSchema validates that every relation points at a known type.
func NewSchema(descriptors ...Descriptor) (Schema, error) {
	types := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := types[d.name]; dup {
			return Schema{}, fmt.Errorf("duplicate record type %q", d.name)
		}
		types[d.name] = d
	}
	for _, d := range descriptors {
		for rel, target := range d.relations {
			if _, ok := types[target]; !ok {
				return Schema{}, fmt.Errorf("record type %q: relation %q targets unknown type %q",
					d.name, rel, target)
			}
		}
	}
	return Schema{types: types}, nil
}

// Describe returns the descriptor of a record type.
func (s Schema) Describe(recordType string) (Descriptor, error) {
	d, ok := s.types[recordType]
	if !ok {
		return Descriptor{}, fmt.Errorf("%q: %w", recordType, domain.ErrUnknownRecordType)
	}
	return d, nil
}

// Types returns all record type names, sorted.
func (s Schema) Types() []string {
	names := make([]string, 0, len(s.types))
	for n := range s.types {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Validate checks rec against its type descriptor: the type must be known and
// every attribute must be declared.
func (s Schema) Validate(rec Record) error {
	d, err := s.Describe(rec.recordType)
	if err != nil {
		return err
	}
	for name := range rec.attrs {
		if !d.HasAttribute(name) {
			return fmt.Errorf("%q has no attribute %q: %w", rec.recordType, name, domain.ErrInvalidRecord)
		}
	}
	return nil
}
