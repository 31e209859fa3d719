package mth5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
)

// ZPKGroup stores pole-zero filters. Each filter is one child group holding
// "poles" and "zeros" compound datasets plus scalar metadata attributes.
type ZPKGroup struct {
	filterGroupBase
}

// AddFilter stores a pole-zero filter from raw parts. The poles and zeros
// datasets are always written, even when empty, so a reader can tell an
// all-pass filter from a truncated one.
func (z *ZPKGroup) AddFilter(name string, poles, zeros []complex128, metadata map[string]interface{}) (*hdf5.Group, error) {
	g, err := z.createFilterGroup(name)
	if err != nil {
		return nil, err
	}

	if err := writeComplexDataset(g, "poles", poles); err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	if err := writeComplexDataset(g, "zeros", zeros); err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}

	if len(metadata) > 0 {
		if err := g.SetAttrs(metadata); err != nil {
			return nil, fmt.Errorf("filter %q: writing attributes: %w", name, err)
		}
	}
	return g, nil
}

// FromFilterObject persists a pole-zero filter object.
func (z *ZPKGroup) FromFilterObject(f filter.Filter) (*hdf5.Group, error) {
	pz, ok := f.(*filter.PoleZeroFilter)
	if !ok {
		return nil, fmt.Errorf("filter %q: expected %s, got %s: %w",
			f.FilterName(), filter.KindPoleZero, f.Kind(), ErrKindMismatch)
	}

	attrs := commonAttrs(filter.KindPoleZero, pz.Common)
	attrs["normalization_factor"] = pz.NormalizationFactor
	return z.AddFilter(pz.Name, pz.Poles, pz.Zeros, attrs)
}

// ToFilterObject reconstitutes a stored pole-zero filter. A missing poles or
// zeros dataset decodes as an empty sequence rather than an error; real
// instrument responses legitimately have no zeros.
func (z *ZPKGroup) ToFilterObject(name string) (filter.Filter, error) {
	g, err := z.GetFilter(name)
	if err != nil {
		return nil, err
	}

	pz := &filter.PoleZeroFilter{}
	readCommonAttrs(g, name, &pz.Common)
	pz.NormalizationFactor = optionalFloatAttr(g, "normalization_factor", 1)

	pz.Poles, err = z.readComplexSequence(g, name, "poles")
	if err != nil {
		return nil, err
	}
	pz.Zeros, err = z.readComplexSequence(g, name, "zeros")
	if err != nil {
		return nil, err
	}
	return pz, nil
}

func (z *ZPKGroup) readComplexSequence(g *hdf5.Group, filterName, dataset string) ([]complex128, error) {
	values, err := readComplexDataset(g, dataset)
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) {
			z.logger.Debug("complex dataset missing, decoding as empty",
				"filter", filterName, "dataset", dataset)
			return []complex128{}, nil
		}
		return nil, fmt.Errorf("filter %q: %w", filterName, err)
	}
	return values, nil
}
