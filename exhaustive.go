package fabmap

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// exhaustiveVariant is FabMap1: the reference implementation, summing the
// per-word log-likelihood over the full vocabulary for every test place
// with no precomputation or pruning. Every other variant's output is
// checked against this one.
type exhaustiveVariant struct {
	kernel kernelFunc
}

// NewExhaustive builds the exhaustive (FabMap1) engine.
func NewExhaustive(p Params) (*Engine, error) {
	v := &exhaustiveVariant{}
	e, err := newBaseEngine(p, v)
	if err != nil {
		return nil, err
	}
	v.kernel = e.tree.kernel(p.Flags)
	return e, nil
}

func (v *exhaustiveVariant) getLikelihoods(e *Engine, query []float32, testSet [][]float32, isOwnTestSet bool) []float64 {
	lls := make([]float64, len(testSet))
	for i, place := range testSet {
		lls[i] = v.likelihood(e, query, place)
	}
	return lls
}

// likelihood sums, over every vocabulary word q, log P(z_q = present(query[q])
// | z_p(q) = present(place[p(q)]), L_{z_q} = present(place[q])) under the
// variant's chosen kernel.
func (v *exhaustiveVariant) likelihood(e *Engine, query []float32, place []float32) float64 {
	t := e.tree
	logP := 0.0
	for q := 0; q < t.vocabSize; q++ {
		zq := present(query[q])
		zpq := present(query[t.parent(q)])
		Lzq := present(place[q])
		logP += math.Log(v.kernel(q, zq, zpq, Lzq))
	}
	return logP
}

func (v *exhaustiveVariant) newPlaceLikelihoodOverride(e *Engine, query []float32) (float64, bool) {
	return 0, false
}

func (v *exhaustiveVariant) onAddTraining(e *Engine, obs []float32) {}
func (v *exhaustiveVariant) onAddTest(e *Engine, obs []float32)     {}

// ClTreeFromRows is a small construction helper shared by tests and the demo
// CLI: it assembles a *mat.Dense tree table from four same-length rows
// (parent, pZ, pZgivenParentTrue, pZgivenParentFalse), matching the layout
// tree.go documents.
func ClTreeFromRows(parent []float64, pZ, pZgZpTrue, pZgZpFalse []float64) *mat.Dense {
	v := len(parent)
	m := mat.NewDense(4, v, nil)
	m.SetRow(0, parent)
	m.SetRow(1, pZ)
	m.SetRow(2, pZgZpTrue)
	m.SetRow(3, pZgZpFalse)
	return m
}
