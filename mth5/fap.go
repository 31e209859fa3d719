package mth5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
	"github.com/robert-malhotra/go-mth5/internal/message"
)

// FAPGroup stores frequency-amplitude-phase table filters. Each filter is
// one child group with a "fap_table" compound dataset of
// (frequency, amplitude, phase) rows plus the common metadata attributes.
type FAPGroup struct {
	filterGroupBase
}

// fapDatatype is the row layout of a fap_table dataset. Field order is
// positional: frequency, then amplitude, then phase.
func fapDatatype() *message.Datatype {
	return message.NewCompoundDatatype(24, []message.CompoundMember{
		{Name: "frequency", ByteOffset: 0, Type: float64Datatype()},
		{Name: "amplitude", ByteOffset: 8, Type: float64Datatype()},
		{Name: "phase", ByteOffset: 16, Type: float64Datatype()},
	})
}

type fapRecord struct {
	Frequency float64
	Amplitude float64
	Phase     float64
}

// AddFilter stores a fap filter from raw columns. Rows beyond the shortest
// column are dropped.
func (fp *FAPGroup) AddFilter(name string, frequencies, amplitudes, phases []float64, metadata map[string]interface{}) (*hdf5.Group, error) {
	g, err := fp.createFilterGroup(name)
	if err != nil {
		return nil, err
	}

	n := len(frequencies)
	if len(amplitudes) < n {
		n = len(amplitudes)
	}
	if len(phases) < n {
		n = len(phases)
	}

	records := make([]fapRecord, n)
	for i := 0; i < n; i++ {
		records[i] = fapRecord{
			Frequency: frequencies[i],
			Amplitude: amplitudes[i],
			Phase:     phases[i],
		}
	}

	ds, err := g.CreateDatasetWithType("fap_table", []uint64{uint64(n)}, fapDatatype())
	if err != nil {
		return nil, fmt.Errorf("filter %q: creating fap_table dataset: %w", name, err)
	}
	if err := ds.Write(records); err != nil {
		return nil, fmt.Errorf("filter %q: writing fap_table dataset: %w", name, err)
	}

	if len(metadata) > 0 {
		if err := g.SetAttrs(metadata); err != nil {
			return nil, fmt.Errorf("filter %q: writing attributes: %w", name, err)
		}
	}
	return g, nil
}

// FromFilterObject persists a fap filter object. Columns are truncated to
// the table length so every stored row is complete.
func (fp *FAPGroup) FromFilterObject(f filter.Filter) (*hdf5.Group, error) {
	ft, ok := f.(*filter.FrequencyResponseTableFilter)
	if !ok {
		return nil, fmt.Errorf("filter %q: expected %s, got %s: %w",
			f.FilterName(), filter.KindFAP, f.Kind(), ErrKindMismatch)
	}

	attrs := commonAttrs(filter.KindFAP, ft.Common)
	return fp.AddFilter(ft.Name, ft.Frequencies, ft.Amplitudes, ft.Phases, attrs)
}

// ToFilterObject reconstitutes a stored fap filter. A missing fap_table
// dataset decodes as an empty table rather than an error.
func (fp *FAPGroup) ToFilterObject(name string) (filter.Filter, error) {
	g, err := fp.GetFilter(name)
	if err != nil {
		return nil, err
	}

	ft := &filter.FrequencyResponseTableFilter{}
	readCommonAttrs(g, name, &ft.Common)

	ds, err := g.OpenDataset("fap_table")
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) {
			fp.logger.Debug("fap_table dataset missing, decoding as empty", "filter", name)
			ft.Frequencies = []float64{}
			ft.Amplitudes = []float64{}
			ft.Phases = []float64{}
			return ft, nil
		}
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}

	if ft.Frequencies, err = ds.ReadCompoundColumn("frequency"); err != nil {
		return nil, fmt.Errorf("filter %q: reading frequency column: %w", name, err)
	}
	if ft.Amplitudes, err = ds.ReadCompoundColumn("amplitude"); err != nil {
		return nil, fmt.Errorf("filter %q: reading amplitude column: %w", name, err)
	}
	if ft.Phases, err = ds.ReadCompoundColumn("phase"); err != nil {
		return nil, fmt.Errorf("filter %q: reading phase column: %w", name, err)
	}
	return ft, nil
}
