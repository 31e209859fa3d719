package mth5

import (
	"fmt"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
)

// CoefficientGroup stores coefficient filters. A coefficient filter has no
// array data, so its child group carries attributes only: the common fields
// plus any extra scalar metadata.
type CoefficientGroup struct {
	filterGroupBase
}

// AddFilter stores a coefficient filter from its flattened attribute map.
func (c *CoefficientGroup) AddFilter(name string, attrs map[string]interface{}) (*hdf5.Group, error) {
	g, err := c.createFilterGroup(name)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := g.SetAttrs(attrs); err != nil {
			return nil, fmt.Errorf("filter %q: writing attributes: %w", name, err)
		}
	}
	return g, nil
}

// FromFilterObject persists a coefficient filter object.
func (c *CoefficientGroup) FromFilterObject(f filter.Filter) (*hdf5.Group, error) {
	cf, ok := f.(*filter.CoefficientFilter)
	if !ok {
		return nil, fmt.Errorf("filter %q: expected %s, got %s: %w",
			f.FilterName(), filter.KindCoefficient, f.Kind(), ErrKindMismatch)
	}
	return c.AddFilter(cf.Name, cf.ToMap())
}

// ToFilterObject reconstitutes a stored coefficient filter from the full
// attribute set of its group. Attributes that cannot be read are skipped.
func (c *CoefficientGroup) ToFilterObject(name string) (filter.Filter, error) {
	g, err := c.GetFilter(name)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]interface{})
	for _, attrName := range g.Attrs() {
		attr := g.Attr(attrName)
		if attr == nil {
			continue
		}
		value, err := attr.Value()
		if err != nil {
			c.logger.Debug("skipping unreadable attribute",
				"filter", name, "attribute", attrName, "error", err)
			continue
		}
		attrs[attrName] = value
	}
	if _, ok := attrs["name"]; !ok {
		attrs["name"] = name
	}

	cf, err := filter.CoefficientFromMap(attrs)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	return cf, nil
}
