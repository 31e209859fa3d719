package filter

import (
	"math"
	"math/cmplx"
)

// TimeDelayFilter shifts a signal in time by a fixed delay in seconds.
type TimeDelayFilter struct {
	Common `yaml:",inline"`
	// Delay in seconds. Causal instrument delays are conventionally
	// negative.
	Delay float64 `yaml:"delay"`
}

// Kind returns KindTimeDelay.
func (f *TimeDelayFilter) Kind() Kind { return KindTimeDelay }

// ComplexResponse is the pure phase shift exp(2*pi*i*f*delay).
func (f *TimeDelayFilter) ComplexResponse(frequencies []float64) []complex128 {
	response := make([]complex128, len(frequencies))
	for i, freq := range frequencies {
		response[i] = cmplx.Exp(complex(0, 2*math.Pi*freq*f.Delay))
	}
	return response
}

type timeDelayYAML struct {
	Common `yaml:",inline"`
	Type   string  `yaml:"type"`
	Delay  float64 `yaml:"delay"`
}

// MarshalYAML includes the type discriminant with the delay.
func (f *TimeDelayFilter) MarshalYAML() (interface{}, error) {
	return timeDelayYAML{Common: f.Common, Type: f.Kind().Tag(), Delay: f.Delay}, nil
}
