// Package crosstalk mixes per-channel pulse lists through a square leakage
// matrix before sampling, so that an output channel's waveform reflects the
// weighted contributions of every channel coupled into it.
package crosstalk

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rfsynth/pulseforge/internal/pulselist"
)

// ErrCrosstalkShape is returned when a Matrix's backing data isn't square or
// its name list doesn't match the matrix dimension.
var ErrCrosstalkShape = errors.New("pulseforge: crosstalk matrix shape mismatch")

// Matrix is a named square leakage matrix: Weight(out, in) is the fraction
// of channel in's drive that leaks into channel out.
type Matrix struct {
	names []string
	index map[string]int
	dense *mat.Dense
}

// NewMatrix builds a Matrix from row-major data over the given channel
// names; data must have len(names)^2 entries.
func NewMatrix(names []string, data []float64) (*Matrix, error) {
	n := len(names)
	if n == 0 || len(data) != n*n {
		return nil, fmt.Errorf("%w: %d names, %d entries", ErrCrosstalkShape, n, len(data))
	}
	idx := make(map[string]int, n)
	for i, name := range names {
		idx[name] = i
	}
	if len(idx) != n {
		return nil, fmt.Errorf("%w: duplicate channel name", ErrCrosstalkShape)
	}
	return &Matrix{names: names, index: idx, dense: mat.NewDense(n, n, data)}, nil
}

// Weight returns the leakage weight of channel in onto channel out, or 0 if
// either name is unknown to the matrix.
func (m *Matrix) Weight(out, in string) float64 {
	oi, ok := m.index[out]
	if !ok {
		return 0
	}
	ii, ok := m.index[in]
	if !ok {
		return 0
	}
	return m.dense.At(oi, ii)
}

// Names returns the matrix's channel names in index order.
func (m *Matrix) Names() []string { return m.names }

// MixChannel combines every input channel's pulse list, scaled by this
// matrix's leakage weight onto out, into the single pulse list that out's
// waveform should be sampled from.
func (m *Matrix) MixChannel(out string, lists map[string]pulselist.PulseList, timeTolerance float64) pulselist.PulseList {
	all := make([]pulselist.PulseList, 0, len(m.names))
	weights := make([]float64, 0, len(m.names))
	for _, in := range m.names {
		list, ok := lists[in]
		if !ok {
			continue
		}
		all = append(all, list)
		weights = append(weights, m.Weight(out, in))
	}
	return pulselist.Merge(all, weights, timeTolerance)
}
