// Package record models the host records a tag field reads from and writes to.
package record

import "maps"

// Record is an instance of a record type: an identity plus text attributes.
// A record with an empty ID has never been persisted.
type Record struct {
	recordType string
	id         string
	attrs      map[string]string
}

// New creates an unpersisted record of the given type.
func New(recordType string) Record {
	return Record{recordType: recordType, attrs: map[string]string{}}
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(recordType, id string, attrs map[string]string) Record {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return Record{recordType: recordType, id: id, attrs: attrs}
}

// Type returns the record type name.
func (r Record) Type() string { return r.recordType }

// ID returns the record identity, empty until persisted.
func (r Record) ID() string { return r.id }

// Persisted reports whether the record has an identity.
func (r Record) Persisted() bool { return r.id != "" }

// Attribute returns one attribute value.
func (r Record) Attribute(name string) string { return r.attrs[name] }

// Attributes returns a copy of all attribute values.
func (r Record) Attributes() map[string]string { return maps.Clone(r.attrs) }

// SetAttribute assigns an attribute value in memory.
func (r *Record) SetAttribute(name, value string) {
	if r.attrs == nil {
		r.attrs = map[string]string{}
	}
	r.attrs[name] = value
}

// SetID assigns the identity. Stores call it when a record is first persisted.
func (r *Record) SetID(id string) { r.id = id }
