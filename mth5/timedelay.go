package mth5

import (
	"fmt"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
)

// TimeDelayGroup stores time-delay filters: attributes only, with the delay
// in seconds alongside the common fields.
type TimeDelayGroup struct {
	filterGroupBase
}

// AddFilter stores a time-delay filter from its attribute map.
func (t *TimeDelayGroup) AddFilter(name string, attrs map[string]interface{}) (*hdf5.Group, error) {
	g, err := t.createFilterGroup(name)
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

// FromFilterObject persists a time-delay filter object.
func (t *TimeDelayGroup) FromFilterObject(f filter.Filter) (*hdf5.Group, error) {
	td, ok := f.(*filter.TimeDelayFilter)
	if !ok {
		return nil, fmt.Errorf("filter %q: expected %s, got %s: %w",
			f.FilterName(), filter.KindTimeDelay, f.Kind(), ErrKindMismatch)
	}

	attrs := commonAttrs(filter.KindTimeDelay, td.Common)
	attrs["delay"] = td.Delay
	return t.AddFilter(td.Name, attrs)
}

// ToFilterObject reconstitutes a stored time-delay filter.
func (t *TimeDelayGroup) ToFilterObject(name string) (filter.Filter, error) {
	g, err := t.GetFilter(name)
	if err != nil {
		return nil, err
	}

	td := &filter.TimeDelayFilter{}
	readCommonAttrs(g, name, &td.Common)
	td.Delay = optionalFloatAttr(g, "delay", 0)
	return td, nil
}
