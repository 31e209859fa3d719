package filter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CoefficientFilter is a flat scalar response: a gain with units. It carries
// no array data and is fully described by its attribute map, so arbitrary
// extra scalar fields survive a round trip through storage.
type CoefficientFilter struct {
	Common `yaml:",inline"`
	// Extra holds scalar fields beyond the common set, keyed by attribute
	// name. Values are strings, integers or floats.
	Extra map[string]interface{}
}

// Kind returns KindCoefficient.
func (f *CoefficientFilter) Kind() Kind { return KindCoefficient }

// ComplexResponse is the flat gain at every frequency.
func (f *CoefficientFilter) ComplexResponse(frequencies []float64) []complex128 {
	response := make([]complex128, len(frequencies))
	for i := range response {
		response[i] = complex(f.Gain, 0)
	}
	return response
}

type coefficientYAML struct {
	Common `yaml:",inline"`
	Type   string                 `yaml:"type"`
	Extra  map[string]interface{} `yaml:",inline"`
}

// MarshalYAML includes the type discriminant and flattens extras.
func (f *CoefficientFilter) MarshalYAML() (interface{}, error) {
	return coefficientYAML{Common: f.Common, Type: f.Kind().Tag(), Extra: f.Extra}, nil
}

// UnmarshalYAML collects unrecognized scalar keys into Extra.
func (f *CoefficientFilter) UnmarshalYAML(node *yaml.Node) error {
	var aux coefficientYAML
	if err := node.Decode(&aux); err != nil {
		return fmt.Errorf("decoding coefficient filter: %w", err)
	}
	f.Common = aux.Common
	f.Extra = aux.Extra
	return nil
}

// ToMap flattens the filter to its canonical single-record form: every field
// becomes one scalar entry, extras included verbatim.
func (f *CoefficientFilter) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"name":      f.Name,
		"type":      f.Kind().Tag(),
		"units_in":  f.UnitsIn,
		"units_out": f.UnitsOut,
		"gain":      f.Gain,
	}
	for k, v := range f.Extra {
		m[k] = v
	}
	return m
}

// CoefficientFromMap rebuilds a CoefficientFilter from its flattened
// attribute map. Unrecognized keys land in Extra.
func CoefficientFromMap(attrs map[string]interface{}) (*CoefficientFilter, error) {
	f := &CoefficientFilter{}
	for key, value := range attrs {
		switch key {
		case "name":
			s, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			f.Name = s
		case "units_in":
			s, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			f.UnitsIn = s
		case "units_out":
			s, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			f.UnitsOut = s
		case "gain":
			g, err := asFloat(key, value)
			if err != nil {
				return nil, err
			}
			f.Gain = g
		case "type":
			// discriminant, not a field
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]interface{})
			}
			f.Extra[key] = value
		}
	}
	return f, nil
}

func asString(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("attribute %q: expected string, got %T", key, value)
	}
	return s, nil
}

func asFloat(key string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("attribute %q: expected number, got %T", key, value)
	}
}
