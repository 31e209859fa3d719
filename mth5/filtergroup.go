package mth5

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
	"github.com/robert-malhotra/go-mth5/internal/message"
)

// FilterEntry describes one registered filter: its discriminant tag and the
// path of its backing group.
type FilterEntry struct {
	Type string
	Path string
}

// filterGroupBase is the shared machinery of the four per-kind groups: one
// parent container group holding one child group per stored filter. Child
// handles are cached for the lifetime of the session so lookups work while
// a write session is still open.
type filterGroupBase struct {
	group   *hdf5.Group
	logger  *slog.Logger
	handles map[string]*hdf5.Group
}

func newFilterGroupBase(group *hdf5.Group, logger *slog.Logger) filterGroupBase {
	return filterGroupBase{
		group:   group,
		logger:  logger,
		handles: make(map[string]*hdf5.Group),
	}
}

// FilterDict maps each stored filter name to its type tag and group path.
// It is rebuilt from the backing store on every call.
func (b *filterGroupBase) FilterDict() (map[string]FilterEntry, error) {
	if b.group == nil {
		return map[string]FilterEntry{}, nil
	}
	names, err := b.group.Members()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", b.group.Path(), err)
	}

	entries := make(map[string]FilterEntry, len(names))
	for _, name := range names {
		g, err := b.childGroup(name)
		if err != nil {
			return nil, fmt.Errorf("opening filter %q: %w", name, err)
		}

		typeTag := ""
		if attr := g.Attr("type"); attr != nil {
			if s, err := attr.ReadScalarString(); err == nil {
				typeTag = s
			}
		}
		if typeTag == "" {
			b.logger.Debug("filter group has no type attribute", "name", name, "path", g.Path())
		}

		entries[name] = FilterEntry{Type: typeTag, Path: g.Path()}
	}
	return entries, nil
}

// GetFilter returns the backing group of a stored filter.
func (b *filterGroupBase) GetFilter(name string) (*hdf5.Group, error) {
	g, err := b.childGroup(name)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, ErrFilterNotFound)
	}
	return g, nil
}

// RemoveFilter is a deliberate gap: stored filters cannot be removed without
// destroying the parent container. Callers must not assume deletion occurs.
func (b *filterGroupBase) RemoveFilter(name string) error {
	return fmt.Errorf("filter %q: %w", name, ErrRemoveNotSupported)
}

func (b *filterGroupBase) childGroup(name string) (*hdf5.Group, error) {
	if g, ok := b.handles[name]; ok {
		return g, nil
	}
	if b.group == nil {
		return nil, hdf5.ErrNotFound
	}
	g, err := b.group.OpenGroup(name)
	if err != nil {
		return nil, err
	}
	b.handles[name] = g
	return g, nil
}

// createFilterGroup creates the child group for a new filter. A duplicate
// name fails with hdf5.ErrExists, which the registry may treat as an
// idempotent add.
func (b *filterGroupBase) createFilterGroup(name string) (*hdf5.Group, error) {
	if b.group == nil {
		return nil, fmt.Errorf("creating filter %q: kind group not present", name)
	}
	g, err := b.group.CreateGroup(name)
	if err != nil {
		return nil, fmt.Errorf("creating filter %q: %w", name, err)
	}
	b.handles[name] = g
	return g, nil
}

// float64Datatype is the member type used by all filter tables.
func float64Datatype() *message.Datatype {
	return message.NewFloatDatatype(8, message.OrderLE)
}

// complexDatatype is the record layout for complex sequences: real before
// imag, both float64, matching the wire order of the format.
func complexDatatype() *message.Datatype {
	return message.NewCompoundDatatype(16, []message.CompoundMember{
		{Name: "real", ByteOffset: 0, Type: float64Datatype()},
		{Name: "imag", ByteOffset: 8, Type: float64Datatype()},
	})
}

// complexRecord mirrors complexDatatype member-for-member.
type complexRecord struct {
	Real float64
	Imag float64
}

// writeComplexDataset stores values as a 1-D compound dataset of
// (real, imag) pairs in input order.
func writeComplexDataset(g *hdf5.Group, name string, values []complex128) error {
	records := make([]complexRecord, len(values))
	for i, v := range values {
		records[i] = complexRecord{Real: real(v), Imag: imag(v)}
	}

	ds, err := g.CreateDatasetWithType(name, []uint64{uint64(len(records))}, complexDatatype())
	if err != nil {
		return fmt.Errorf("creating %s dataset: %w", name, err)
	}
	if err := ds.Write(records); err != nil {
		return fmt.Errorf("writing %s dataset: %w", name, err)
	}
	return nil
}

// readComplexDataset reassembles a complex sequence from the real and imag
// columns of a compound dataset.
func readComplexDataset(g *hdf5.Group, name string) ([]complex128, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}

	reals, err := ds.ReadCompoundColumn("real")
	if err != nil {
		return nil, fmt.Errorf("reading %s real column: %w", name, err)
	}
	imags, err := ds.ReadCompoundColumn("imag")
	if err != nil {
		return nil, fmt.Errorf("reading %s imag column: %w", name, err)
	}
	if len(reals) != len(imags) {
		return nil, fmt.Errorf("%s: real/imag length mismatch: %d vs %d", name, len(reals), len(imags))
	}

	values := make([]complex128, len(reals))
	for i := range reals {
		values[i] = complex(reals[i], imags[i])
	}
	return values, nil
}

// optionalStringAttr reads a scalar string attribute, returning fallback
// when the attribute is absent or unreadable.
func optionalStringAttr(g *hdf5.Group, name, fallback string) string {
	if attr := g.Attr(name); attr != nil {
		if s, err := attr.ReadScalarString(); err == nil {
			return s
		}
	}
	return fallback
}

// optionalFloatAttr reads a scalar float attribute, returning fallback when
// the attribute is absent or unreadable.
func optionalFloatAttr(g *hdf5.Group, name string, fallback float64) float64 {
	if attr := g.Attr(name); attr != nil {
		if v, err := attr.ReadScalarFloat64(); err == nil {
			return v
		}
	}
	return fallback
}

// commonAttrs builds the attribute map shared by every stored filter.
func commonAttrs(kind filter.Kind, c filter.Common) map[string]interface{} {
	return map[string]interface{}{
		"name":      c.Name,
		"type":      kind.Tag(),
		"units_in":  c.UnitsIn,
		"units_out": c.UnitsOut,
		"gain":      c.Gain,
	}
}

// readCommonAttrs fills the shared metadata fields from group attributes.
// The group name stands in for a missing name attribute; gain defaults to 1.
func readCommonAttrs(g *hdf5.Group, fallbackName string, c *filter.Common) {
	c.Name = optionalStringAttr(g, "name", fallbackName)
	c.UnitsIn = optionalStringAttr(g, "units_in", "")
	c.UnitsOut = optionalStringAttr(g, "units_out", "")
	c.Gain = optionalFloatAttr(g, "gain", 1)
}

