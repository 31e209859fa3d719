package filter

import (
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// FrequencyResponseTableFilter describes a response empirically as a lookup
// table of (frequency, amplitude, phase) triples. The three sequences are
// positional and equal length; storage preserves input order.
type FrequencyResponseTableFilter struct {
	Common      `yaml:",inline"`
	Frequencies []float64 `yaml:"frequencies"`
	Amplitudes  []float64 `yaml:"amplitudes"`
	Phases      []float64 `yaml:"phases"`
}

// Kind returns KindFAP.
func (f *FrequencyResponseTableFilter) Kind() Kind { return KindFAP }

// Len returns the number of table rows, the shortest of the three columns
// when they disagree.
func (f *FrequencyResponseTableFilter) Len() int {
	n := len(f.Frequencies)
	if len(f.Amplitudes) < n {
		n = len(f.Amplitudes)
	}
	if len(f.Phases) < n {
		n = len(f.Phases)
	}
	return n
}

// ComplexResponse interpolates amplitude and phase piecewise-linearly over
// frequency and returns gain * amplitude * exp(i*phase). Frequencies outside
// the table range clamp to the nearest table endpoint. The table itself is
// positional; interpolation works on a frequency-sorted copy.
func (f *FrequencyResponseTableFilter) ComplexResponse(frequencies []float64) []complex128 {
	response := make([]complex128, len(frequencies))
	n := f.Len()

	if n == 0 {
		for i := range response {
			response[i] = complex(f.Gain, 0)
		}
		return response
	}
	if n == 1 {
		h := complex(f.Gain*f.Amplitudes[0], 0) * cmplx.Exp(complex(0, f.Phases[0]))
		for i := range response {
			response[i] = h
		}
		return response
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return f.Frequencies[order[a]] < f.Frequencies[order[b]]
	})

	freqs := make([]float64, n)
	amps := make([]float64, n)
	phases := make([]float64, n)
	for i, idx := range order {
		freqs[i] = f.Frequencies[idx]
		amps[i] = f.Amplitudes[idx]
		phases[i] = f.Phases[idx]
	}

	var ampInterp, phaseInterp interp.PiecewiseLinear
	if err := ampInterp.Fit(freqs, amps); err != nil {
		// duplicate frequencies in the table; fall back to the flat gain
		for i := range response {
			response[i] = complex(f.Gain, 0)
		}
		return response
	}
	if err := phaseInterp.Fit(freqs, phases); err != nil {
		for i := range response {
			response[i] = complex(f.Gain, 0)
		}
		return response
	}

	lo, hi := freqs[0], freqs[n-1]
	for i, freq := range frequencies {
		x := freq
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		amp := ampInterp.Predict(x)
		phase := phaseInterp.Predict(x)
		response[i] = complex(f.Gain*amp, 0) * cmplx.Exp(complex(0, phase))
	}
	return response
}

type fapYAML struct {
	Common      `yaml:",inline"`
	Type        string    `yaml:"type"`
	Frequencies []float64 `yaml:"frequencies"`
	Amplitudes  []float64 `yaml:"amplitudes"`
	Phases      []float64 `yaml:"phases"`
}

// MarshalYAML includes the type discriminant with the table.
func (f *FrequencyResponseTableFilter) MarshalYAML() (interface{}, error) {
	return fapYAML{
		Common:      f.Common,
		Type:        f.Kind().Tag(),
		Frequencies: f.Frequencies,
		Amplitudes:  f.Amplitudes,
		Phases:      f.Phases,
	}, nil
}
