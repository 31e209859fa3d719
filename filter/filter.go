// Package filter models magnetotelluric instrument-response filters: the
// typed objects that describe how raw sensor counts map to physical units.
//
// Four kinds are supported: pole-zero (zpk), coefficient, time-delay and
// frequency-amplitude-phase (fap) table. Each kind knows how to evaluate
// its complex frequency response; the mth5 package knows how to persist
// each kind into a container file.
package filter

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnknownKind = errors.New("unknown filter kind")
)

// Kind identifies one of the supported filter representations.
type Kind int

const (
	KindUnknown Kind = iota
	KindPoleZero
	KindCoefficient
	KindTimeDelay
	KindFAP
)

// Tag returns the canonical discriminant string stored with a filter.
func (k Kind) Tag() string {
	switch k {
	case KindPoleZero:
		return "zpk"
	case KindCoefficient:
		return "coefficient"
	case KindTimeDelay:
		return "time_delay"
	case KindFAP:
		return "fap"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	return k.Tag()
}

// KindFromTag resolves a discriminant tag to a Kind. Both the short and the
// long form of a tag are accepted ("zpk"/"poles_zeros",
// "fap"/"frequency_amplitude_phase").
func KindFromTag(tag string) (Kind, error) {
	switch tag {
	case "zpk", "poles_zeros":
		return KindPoleZero, nil
	case "coefficient":
		return KindCoefficient, nil
	case "time_delay":
		return KindTimeDelay, nil
	case "fap", "frequency_amplitude_phase":
		return KindFAP, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
}

// Filter is a named instrument-response transformation.
type Filter interface {
	// FilterName returns the unique name of the filter.
	FilterName() string
	// SetFilterName renames the filter.
	SetFilterName(name string)
	// Kind returns the filter's representation kind.
	Kind() Kind
	// Units returns the input and output units of the transformation.
	Units() (in, out string)
	// ComplexResponse evaluates the filter's complex frequency response at
	// the given frequencies in Hz.
	ComplexResponse(frequencies []float64) []complex128
}

// Common carries the fields shared by every filter kind.
type Common struct {
	Name     string  `yaml:"name"`
	UnitsIn  string  `yaml:"units_in"`
	UnitsOut string  `yaml:"units_out"`
	Gain     float64 `yaml:"gain"`
}

// FilterName returns the filter name.
func (c *Common) FilterName() string { return c.Name }

// SetFilterName renames the filter.
func (c *Common) SetFilterName(name string) { c.Name = name }

// Units returns the input and output units.
func (c *Common) Units() (string, string) { return c.UnitsIn, c.UnitsOut }

// constructors maps each kind to its zero-value constructor. The table is
// built once at init and never mutated.
var constructors = map[Kind]func() Filter{
	KindPoleZero:    func() Filter { return &PoleZeroFilter{} },
	KindCoefficient: func() Filter { return &CoefficientFilter{} },
	KindTimeDelay:   func() Filter { return &TimeDelayFilter{} },
	KindFAP:         func() Filter { return &FrequencyResponseTableFilter{} },
}

// New returns an empty filter of the given kind.
func New(kind Kind) (Filter, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return ctor(), nil
}
