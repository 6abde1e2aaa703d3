package config

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
	"github.com/kailas-cloud/taginput/internal/domain/record/filter"
	"github.com/kailas-cloud/taginput/internal/domain/record/order"
)

// BuildSchema turns the schema section into record descriptors.
func (c *Config) BuildSchema() (record.Schema, error) {
	descs := make([]record.Descriptor, 0, len(c.Schema))
	for _, rt := range c.Schema {
		d, err := record.NewDescriptor(rt.Name, rt.Attributes, rt.Relations)
		if err != nil {
			return record.Schema{}, fmt.Errorf("schema: %w", err)
		}
		descs = append(descs, d)
	}
	s, err := record.NewSchema(descs...)
	if err != nil {
		return record.Schema{}, fmt.Errorf("schema: %w", err)
	}
	return s, nil
}

// BuildFields turns the fields section into field configurations.
func (c *Config) BuildFields() ([]*field.Field, error) {
	out := make([]*field.Field, 0, len(c.Fields))
	for _, fc := range c.Fields {
		f, err := fc.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Build creates the field described by fc.
func (fc FieldConfig) Build() (*field.Field, error) {
	f, err := field.New(fc.Name, fc.Title, fc.Value, fc.TopicType)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", fc.Name, err)
	}
	if fc.ValueAttribute != "" {
		f.SetValueAttribute(fc.ValueAttribute)
	}
	if sep := []rune(fc.Separator); len(sep) == 1 {
		f.SetSeparator(sep[0])
	}
	if fc.StaticTags != nil {
		f.SetStaticTags(fc.StaticTags)
	}

	expr, err := fc.SuggestFilter.Build()
	if err != nil {
		return nil, fmt.Errorf("field %q: suggest_filter: %w", fc.Name, err)
	}
	f.SetSuggestFilter(expr)

	if fc.SuggestSort != "" {
		o, err := order.Parse(fc.SuggestSort)
		if err != nil {
			return nil, fmt.Errorf("field %q: suggest_sort: %w", fc.Name, err)
		}
		f.SetSuggestSort(o)
	}
	return f, nil
}

// Build converts the condition maps into a filter expression. Conditions
// are ordered by attribute name.
func (fc FilterConfig) Build() (filter.Expression, error) {
	must, err := conditions(fc.Must)
	if err != nil {
		return filter.Expression{}, err
	}
	should, err := conditions(fc.Should)
	if err != nil {
		return filter.Expression{}, err
	}
	mustNot, err := conditions(fc.MustNot)
	if err != nil {
		return filter.Expression{}, err
	}
	expr, err := filter.NewExpression(must, should, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build filter: %w", err)
	}
	return expr, nil
}

func conditions(m map[string]string) ([]filter.Condition, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]filter.Condition, 0, len(keys))
	for _, k := range keys {
		c, err := filter.NewMatch(k, m[k])
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", k, err)
		}
		out = append(out, c)
	}
	return out, nil
}
