package filter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// calDocument is the on-disk shape of a calibration file: a list of filter
// entries of mixed kinds, each carrying a "type" discriminant.
type calDocument struct {
	Filters []yaml.Node `yaml:"filters"`
}

// LoadCalibration reads a YAML calibration file and returns the typed
// filters it describes. Each entry must carry a recognized "type" tag.
func LoadCalibration(r io.Reader) ([]Filter, error) {
	var doc calDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding calibration file: %w", err)
	}

	filters := make([]Filter, 0, len(doc.Filters))
	for i, node := range doc.Filters {
		var probe struct {
			Type string `yaml:"type"`
		}
		if err := node.Decode(&probe); err != nil {
			return nil, fmt.Errorf("calibration entry %d: %w", i, err)
		}

		kind, err := KindFromTag(probe.Type)
		if err != nil {
			return nil, fmt.Errorf("calibration entry %d: %w", i, err)
		}

		f, err := New(kind)
		if err != nil {
			return nil, err
		}
		if err := node.Decode(f); err != nil {
			return nil, fmt.Errorf("calibration entry %d (%s): %w", i, kind, err)
		}
		filters = append(filters, f)
	}

	return filters, nil
}

// SaveCalibration writes filters to a YAML calibration file readable by
// LoadCalibration.
func SaveCalibration(w io.Writer, filters []Filter) error {
	doc := struct {
		Filters []Filter `yaml:"filters"`
	}{Filters: filters}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding calibration file: %w", err)
	}
	return nil
}
