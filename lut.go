package fabmap

import "math"

// lutScale converts a decimal precision (number of fractional digits kept)
// into the fixed-point multiplier applied before rounding to int64.
func lutScale(precision int) int64 {
	s := int64(1)
	for i := 0; i < precision; i++ {
		s *= 10
	}
	return s
}

// lutVariant is FabMapLUT: the same computation as the exhaustive variant,
// but every one of the 8 possible (z_p(q), z_q, L_{z_q}) log-kernel values is
// precomputed once per word at construction time and stored fixed-point,
// trading float log/mul work at query time for integer table lookups and
// adds.
type lutVariant struct {
	vocabSize int
	scale     int64
	// table is word q's 8 fixed-point log-kernel values, contiguous: index
	// bit0=zpq, bit1=zq, bit2=Lzq, a packed-array convention generalized
	// from the original's per-word std::vector.
	table []int64
}

func lutIndex(zpq, zq, Lzq bool) int {
	i := 0
	if zpq {
		i |= 1
	}
	if zq {
		i |= 2
	}
	if Lzq {
		i |= 4
	}
	return i
}

// NewLUT builds the fixed-point lookup-table engine. precision is the
// number of decimal digits of the log-kernel values retained when rounding
// to int64; the original keeps a handful of digits, and values that do not
// divide evenly leave quantization error of at most 0.5*10^-precision per
// word.
func NewLUT(p Params, precision int) (*Engine, error) {
	v := &lutVariant{}
	e, err := newBaseEngine(p, v)
	if err != nil {
		return nil, err
	}

	v.vocabSize = e.tree.vocabSize
	v.scale = lutScale(precision)
	v.table = make([]int64, v.vocabSize*8)

	kernel := e.tree.kernel(p.Flags)
	for q := 0; q < v.vocabSize; q++ {
		for zpq := 0; zpq < 2; zpq++ {
			for zq := 0; zq < 2; zq++ {
				for Lzq := 0; Lzq < 2; Lzq++ {
					idx := lutIndex(zpq == 1, zq == 1, Lzq == 1)
					logP := math.Log(kernel(q, zq == 1, zpq == 1, Lzq == 1))
					// Stored as logP*scale directly rather than the original's
					// round(-logP*scale) then double-negated at accumulation
					// time: the two are arithmetically equivalent (checked by
					// hand against FabMapLUT), just without carrying the
					// negation through both ends.
					v.table[q*8+idx] = int64(math.Round(logP * float64(v.scale)))
				}
			}
		}
	}

	return e, nil
}

func (v *lutVariant) getLikelihoods(e *Engine, query []float32, testSet [][]float32, isOwnTestSet bool) []float64 {
	t := e.tree
	zq := make([]bool, v.vocabSize)
	zpq := make([]bool, v.vocabSize)
	for q := 0; q < v.vocabSize; q++ {
		zq[q] = present(query[q])
		zpq[q] = present(query[t.parent(q)])
	}

	lls := make([]float64, len(testSet))
	for i, place := range testSet {
		var acc int64
		for q := 0; q < v.vocabSize; q++ {
			idx := lutIndex(zpq[q], zq[q], present(place[q]))
			acc += v.table[q*8+idx]
		}
		lls[i] = float64(acc) / float64(v.scale)
	}
	return lls
}

func (v *lutVariant) newPlaceLikelihoodOverride(e *Engine, query []float32) (float64, bool) {
	return 0, false
}

func (v *lutVariant) onAddTraining(e *Engine, obs []float32) {}
func (v *lutVariant) onAddTest(e *Engine, obs []float32)     {}
