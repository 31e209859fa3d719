package filter

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// PoleZeroFilter describes an analog response as a rational transfer
// function H(s) = gain * k * prod(s - z_i) / prod(s - p_j) with s = 2*pi*i*f.
type PoleZeroFilter struct {
	Common              `yaml:",inline"`
	Poles               []complex128
	Zeros               []complex128
	NormalizationFactor float64
}

// Kind returns KindPoleZero.
func (f *PoleZeroFilter) Kind() Kind { return KindPoleZero }

// ComplexResponse evaluates the transfer function at the given frequencies.
func (f *PoleZeroFilter) ComplexResponse(frequencies []float64) []complex128 {
	response := make([]complex128, len(frequencies))
	for i, freq := range frequencies {
		s := complex(0, 2*math.Pi*freq)
		h := complex(f.Gain*f.NormalizationFactor, 0)
		for _, z := range f.Zeros {
			h *= s - z
		}
		for _, p := range f.Poles {
			h /= s - p
		}
		response[i] = h
	}
	return response
}

// complexPair is the YAML form of a complex number.
type complexPair struct {
	Real float64 `yaml:"real"`
	Imag float64 `yaml:"imag"`
}

type poleZeroYAML struct {
	Common              `yaml:",inline"`
	Type                string        `yaml:"type"`
	Poles               []complexPair `yaml:"poles"`
	Zeros               []complexPair `yaml:"zeros"`
	NormalizationFactor float64       `yaml:"normalization_factor"`
}

// MarshalYAML encodes poles and zeros as {real, imag} pairs.
func (f *PoleZeroFilter) MarshalYAML() (interface{}, error) {
	out := poleZeroYAML{
		Common:              f.Common,
		Type:                f.Kind().Tag(),
		NormalizationFactor: f.NormalizationFactor,
	}
	for _, p := range f.Poles {
		out.Poles = append(out.Poles, complexPair{Real: real(p), Imag: imag(p)})
	}
	for _, z := range f.Zeros {
		out.Zeros = append(out.Zeros, complexPair{Real: real(z), Imag: imag(z)})
	}
	return out, nil
}

// UnmarshalYAML decodes poles and zeros from {real, imag} pairs.
func (f *PoleZeroFilter) UnmarshalYAML(node *yaml.Node) error {
	var aux poleZeroYAML
	if err := node.Decode(&aux); err != nil {
		return fmt.Errorf("decoding pole-zero filter: %w", err)
	}

	f.Common = aux.Common
	f.NormalizationFactor = aux.NormalizationFactor
	f.Poles = f.Poles[:0]
	f.Zeros = f.Zeros[:0]
	for _, p := range aux.Poles {
		f.Poles = append(f.Poles, complex(p.Real, p.Imag))
	}
	for _, z := range aux.Zeros {
		f.Zeros = append(f.Zeros, complex(z.Real, z.Imag))
	}
	return nil
}
