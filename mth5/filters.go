package mth5

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
)

// kindGroup is the per-kind storage behind the registry: each kind group
// knows how to persist and reconstitute filters of exactly one kind.
type kindGroup interface {
	FilterDict() (map[string]FilterEntry, error)
	GetFilter(name string) (*hdf5.Group, error)
	RemoveFilter(name string) error
	FromFilterObject(f filter.Filter) (*hdf5.Group, error)
	ToFilterObject(name string) (filter.Filter, error)
}

// FiltersGroup is the filter registry of a container: /Survey/Filters with
// one subgroup per filter kind. Filters of any kind are added and retrieved
// through the registry by name; the per-kind groups are also exported for
// callers that work with one representation directly.
type FiltersGroup struct {
	group     *hdf5.Group
	logger    *slog.Logger
	strictAdd bool

	ZPK         *ZPKGroup
	Coefficient *CoefficientGroup
	TimeDelay   *TimeDelayGroup
	FAP         *FAPGroup

	byKind map[filter.Kind]kindGroup
}

func newFiltersGroup(g *hdf5.Group, logger *slog.Logger, writable, strictAdd bool) (*FiltersGroup, error) {
	fg := &FiltersGroup{group: g, logger: logger, strictAdd: strictAdd}

	zpkG, err := openKindGroup(g, "zpk", writable, logger)
	if err != nil {
		return nil, err
	}
	fg.ZPK = &ZPKGroup{filterGroupBase: newFilterGroupBase(zpkG, logger)}

	coefG, err := openKindGroup(g, "coefficient", writable, logger)
	if err != nil {
		return nil, err
	}
	fg.Coefficient = &CoefficientGroup{filterGroupBase: newFilterGroupBase(coefG, logger)}

	delayG, err := openKindGroup(g, "time_delay", writable, logger)
	if err != nil {
		return nil, err
	}
	fg.TimeDelay = &TimeDelayGroup{filterGroupBase: newFilterGroupBase(delayG, logger)}

	fapG, err := openKindGroup(g, "fap", writable, logger)
	if err != nil {
		return nil, err
	}
	fg.FAP = &FAPGroup{filterGroupBase: newFilterGroupBase(fapG, logger)}

	fg.byKind = map[filter.Kind]kindGroup{
		filter.KindPoleZero:    fg.ZPK,
		filter.KindCoefficient: fg.Coefficient,
		filter.KindTimeDelay:   fg.TimeDelay,
		filter.KindFAP:         fg.FAP,
	}
	return fg, nil
}

// openKindGroup opens one per-kind subgroup, creating it in writable
// sessions. A missing subgroup in a read-only file is tolerated: files
// written by other producers may omit kinds they never stored.
func openKindGroup(parent *hdf5.Group, name string, writable bool, logger *slog.Logger) (*hdf5.Group, error) {
	g, err := ensureChildGroup(parent, name, writable)
	if err != nil {
		if !writable && errors.Is(err, hdf5.ErrNotFound) {
			logger.Debug("filter kind group missing", "kind", name, "path", parent.Path())
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s filter group: %w", name, err)
	}
	return g, nil
}

// AddFilter stores a filter of any kind under its (sanitized) name and
// returns the backing group. Adding a name that already exists within the
// same kind returns the existing group unless the container was opened with
// WithStrictFilterAdds.
func (fg *FiltersGroup) AddFilter(f filter.Filter) (*hdf5.Group, error) {
	if f == nil {
		return nil, errors.New("nil filter")
	}
	f.SetFilterName(SanitizeName(f.FilterName()))

	kg, ok := fg.byKind[f.Kind()]
	if !ok {
		return nil, fmt.Errorf("filter %q: %w: %v", f.FilterName(), filter.ErrUnknownKind, f.Kind())
	}

	g, err := kg.FromFilterObject(f)
	if err != nil {
		if errors.Is(err, hdf5.ErrExists) && !fg.strictAdd {
			fg.logger.Debug("filter already exists, returning existing group",
				"name", f.FilterName(), "kind", f.Kind().String())
			return kg.GetFilter(f.FilterName())
		}
		return nil, err
	}
	return g, nil
}

// FilterDict merges the per-kind dictionaries into one name-keyed view.
// Kinds are merged in a fixed order (zpk, coefficient, time_delay, fap), so
// with a cross-kind name collision the later kind wins deterministically.
func (fg *FiltersGroup) FilterDict() (map[string]FilterEntry, error) {
	merged := make(map[string]FilterEntry)
	for _, kg := range []kindGroup{fg.ZPK, fg.Coefficient, fg.TimeDelay, fg.FAP} {
		entries, err := kg.FilterDict()
		if err != nil {
			return nil, err
		}
		for name, entry := range entries {
			merged[name] = entry
		}
	}
	return merged, nil
}

// GetFilter reconstitutes a stored filter by name, dispatching on the type
// tag recorded with it.
func (fg *FiltersGroup) GetFilter(name string) (filter.Filter, error) {
	name = SanitizeName(name)

	dict, err := fg.FilterDict()
	if err != nil {
		return nil, err
	}
	entry, ok := dict[name]
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", name, ErrFilterNotFound)
	}

	kind, err := filter.KindFromTag(entry.Type)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	return fg.byKind[kind].ToFilterObject(name)
}

// GetFilterGroup returns the backing group of a stored filter without
// decoding it.
func (fg *FiltersGroup) GetFilterGroup(name string) (*hdf5.Group, error) {
	name = SanitizeName(name)

	dict, err := fg.FilterDict()
	if err != nil {
		return nil, err
	}
	entry, ok := dict[name]
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", name, ErrFilterNotFound)
	}

	kind, err := filter.KindFromTag(entry.Type)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	return fg.byKind[kind].GetFilter(name)
}

// RemoveFilter always fails: the backing store is append-only, so removal
// would silently leak the filter's data. Callers get a hard error instead
// of a quiet no-op.
func (fg *FiltersGroup) RemoveFilter(name string) error {
	return fmt.Errorf("filter %q: %w", SanitizeName(name), ErrRemoveNotSupported)
}
