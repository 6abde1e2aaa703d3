// Package field holds the configuration of one tag-input form field.
package field

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/taginput/internal/domain/record/filter"
	"github.com/kailas-cloud/taginput/internal/domain/record/order"
	"github.com/kailas-cloud/taginput/internal/domain/tag"
)

// DefaultValueAttribute is the attribute holding a tag entity's text.
const DefaultValueAttribute = "Title"

// SuggestSuffix is appended to a field's link to form its suggest endpoint.
const SuggestSuffix = "/suggest"

// Field is the configuration of a tag-input field. It is not validated against
// storage until it is first used.
type Field struct {
	name           string
	title          string
	value          string
	topicType      string
	valueAttribute string
	separator      rune
	staticTags     []string
	suggestFilter  filter.Expression
	suggestSort    order.Order
}

// New creates a Field. Only the name is required.
func New(name, title, value, topicType string) (*Field, error) {
	if name == "" {
		return nil, fmt.Errorf("field name is required")
	}
	if title == "" {
		title = name
	}
	return &Field{
		name:           name,
		title:          title,
		value:          value,
		topicType:      topicType,
		valueAttribute: DefaultValueAttribute,
		separator:      tag.DefaultSeparator,
	}, nil
}

// Name returns the field name, which is also the relation or attribute it stores into.
func (f *Field) Name() string { return f.name }

// Title returns the display title.
func (f *Field) Title() string { return f.title }

// Value returns the initial value.
func (f *Field) Value() string { return f.value }

// SetValue sets the initial value.
func (f *Field) SetValue(v string) { f.value = v }

// TopicType returns the record type owning the field.
func (f *Field) TopicType() string { return f.topicType }

// SetTopicType sets the record type owning the field.
func (f *Field) SetTopicType(t string) { f.topicType = t }

// ValueAttribute returns the tag entity attribute holding the tag text.
func (f *Field) ValueAttribute() string { return f.valueAttribute }

// SetValueAttribute sets the tag entity attribute holding the tag text.
func (f *Field) SetValueAttribute(a string) { f.valueAttribute = a }

// Separator returns the tag separator.
func (f *Field) Separator() rune { return f.separator }

// SetSeparator sets the tag separator.
func (f *Field) SetSeparator(sep rune) { f.separator = sep }

// Rule returns the tokenization rule for the configured separator.
func (f *Field) Rule() tag.Rule { return tag.RuleFor(f.separator) }

// StaticTags returns the static suggestion list, nil when suggestions are dynamic.
func (f *Field) StaticTags() []string { return slices.Clone(f.staticTags) }

// SetStaticTags sets a static suggestion list.
func (f *Field) SetStaticTags(tags []string) { f.staticTags = slices.Clone(tags) }

// HasStaticTags reports whether a static list is configured.
func (f *Field) HasStaticTags() bool { return f.staticTags != nil }

// SuggestFilter returns the filter applied to suggest queries.
func (f *Field) SuggestFilter() filter.Expression { return f.suggestFilter }

// SetSuggestFilter sets the filter applied to suggest queries.
func (f *Field) SetSuggestFilter(e filter.Expression) { f.suggestFilter = e }

// SuggestSort returns the order applied to suggest queries.
func (f *Field) SuggestSort() order.Order { return f.suggestSort }

// SetSuggestSort sets the order applied to suggest queries.
func (f *Field) SetSuggestSort(o order.Order) { f.suggestSort = o }
