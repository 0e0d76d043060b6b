package fabmap

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// wordStat caches, for one query and one word, the two possible per-word
// log-kernel values a place can contribute (L_{z_q} false or true), the
// word's information content I_q = -ln P(z_q|z_p(q)), and the quantities
// needed to accumulate the tail variance/amplitude below.
type wordStat struct {
	q        int
	valFalse float64
	valTrue  float64
	info     float64 // -ln P(z_q|z_p(q)); words are processed ascending in this
	d        float64 // valTrue - valFalse
	pE       float64 // P(e_q), identified with P(z_q=true)
}

// tailStats holds the cumulative variance and maximum amplitude of the
// not-yet-processed suffix of words (in ascending-information order): index
// k is the suffix starting at word k. tailStats[len(stats)] is the zero
// value for the empty suffix past the last word.
type tailStats struct {
	v float64
	m float64
}

// fboVariant is FabMapFBO: for each query it sorts words by ascending
// information content, then walks words in that order updating every still-
// live place's running log-likelihood, bailing places out of the live set
// once a Bennett-inequality bound on the remaining words proves they cannot
// catch the best place seen so far. Bailed places are filled in at the end
// with the sentinel currBest + log(rejectionThreshold).
type fboVariant struct {
	kernel kernelFunc

	rejectionThreshold float64
	psGd               float64
	bisectionStart     float64
	bisectionIts       int
}

// NewFBO builds the fast bail-out engine. rejectionThreshold and psGd must
// lie in (0,1); bisectionStart bounds the margin search and bisectionIts is
// the number of bisection iterations run against it.
func NewFBO(p Params, rejectionThreshold, psGd, bisectionStart float64, bisectionIts int) (*Engine, error) {
	if rejectionThreshold <= 0 || rejectionThreshold >= 1 {
		return nil, errors.Wrap(ErrInvalidRejectionThreshold, "")
	}
	if psGd <= 0 || psGd >= 1 {
		return nil, errors.Wrap(ErrInvalidPsGd, "")
	}
	if bisectionStart <= 0 {
		return nil, errors.Wrap(ErrInvalidBisectionStart, "")
	}
	if bisectionIts <= 0 {
		return nil, errors.Wrap(ErrInvalidBisectionIts, "")
	}

	v := &fboVariant{
		rejectionThreshold: rejectionThreshold,
		psGd:               psGd,
		bisectionStart:     bisectionStart,
		bisectionIts:       bisectionIts,
	}
	e, err := newBaseEngine(p, v)
	if err != nil {
		return nil, err
	}
	v.kernel = e.tree.kernel(p.Flags)
	return e, nil
}

// buildWordStats computes, for this query, every word's two candidate
// log-kernel values and its information content, sorted ascending by the
// latter.
func (v *fboVariant) buildWordStats(e *Engine, query []float32) []wordStat {
	t := e.tree
	stats := make([]wordStat, t.vocabSize)
	for q := 0; q < t.vocabSize; q++ {
		zq := present(query[q])
		zpq := present(query[t.parent(q)])
		valFalse := math.Log(v.kernel(q, zq, zpq, false))
		valTrue := math.Log(v.kernel(q, zq, zpq, true))
		stats[q] = wordStat{
			q:        q,
			valFalse: valFalse,
			valTrue:  valTrue,
			info:     -math.Log(t.pZgivenParent(q, zq, zpq)),
			d:        valTrue - valFalse,
			pE:       t.pZ(q, true),
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].info < stats[j].info })
	return stats
}

// newTailStats accumulates, in reverse (highest-information-first) order,
// the variance sum V and maximum amplitude M of the words from each index
// to the end, per word: V += d_q^2*2*P(e_q)(1-P(e_q)), M = max(M, |d_q|).
func newTailStats(stats []wordStat) []tailStats {
	n := len(stats)
	tail := make([]tailStats, n+1)
	for k := n - 1; k >= 0; k-- {
		d := stats[k].d
		pE := stats[k].pE
		tail[k] = tailStats{
			v: tail[k+1].v + d*d*2*pE*(1-pE),
			m: math.Max(tail[k+1].m, math.Abs(d)),
		}
	}
	return tail
}

// bennettBound evaluates B(V,M,delta) = exp((V/M^2)(cosh(f)-1-(delta*M/V)f)),
// f = asinh(delta*M/V), the one-sided tail bound on how much the remaining
// words' sum can still move a lagging place's total. A word-free suffix
// (M=0) carries no remaining uncertainty, so its bound is 0.
func bennettBound(v, m, delta float64) float64 {
	if m == 0 {
		return 0
	}
	f := math.Asinh(delta * m / v)
	return math.Exp((v / (m * m)) * (math.Cosh(f) - 1 - (delta*m/v)*f))
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0) || (a == 0 && b == 0)
}

// bisectBailoutMargin finds, by bisectionIts iterations of bisection over
// [0, bisectionStart], the delta solving bennettBound(v, m, delta) = psGd;
// bennettBound is non-increasing in delta, so the interval's lower endpoint
// always starts with bound > psGd and the search narrows toward where the
// sign of bound-psGd flips.
func bisectBailoutMargin(v, m, psGd, bisectionStart float64, bisectionIts int) float64 {
	if m == 0 {
		return 0
	}
	lo, hi := 0.0, bisectionStart
	gLo := bennettBound(v, m, lo) - psGd
	for i := 0; i < bisectionIts; i++ {
		mid := (lo + hi) / 2
		gMid := bennettBound(v, m, mid) - psGd
		if sameSign(gMid, gLo) {
			lo, gLo = mid, gMid
		} else {
			hi = mid
		}
	}
	return hi
}

// bailOutMargin combines the bisection solution with the rejectionThreshold
// floor: delta = max(bisection-solution, -log(rejectionThreshold)).
func (v *fboVariant) bailOutMargin(remaining tailStats) float64 {
	bisection := bisectBailoutMargin(remaining.v, remaining.m, v.psGd, v.bisectionStart, v.bisectionIts)
	return math.Max(bisection, -math.Log(v.rejectionThreshold))
}

func (v *fboVariant) getLikelihoods(e *Engine, query []float32, testSet [][]float32, isOwnTestSet bool) []float64 {
	stats := v.buildWordStats(e, query)
	tail := newTailStats(stats)

	ll := make([]float64, len(testSet))
	bailedOut := make([]bool, len(testSet))
	live := make([]int, len(testSet))
	for i := range live {
		live[i] = i
	}

	for k, s := range stats {
		for _, i := range live {
			if present(testSet[i][s.q]) {
				ll[i] += s.valTrue
			} else {
				ll[i] += s.valFalse
			}
		}

		if len(live) <= 1 {
			continue
		}

		currBest := math.Inf(-1)
		for _, i := range live {
			if ll[i] > currBest {
				currBest = ll[i]
			}
		}

		delta := v.bailOutMargin(tail[k+1])

		kept := live[:0]
		for _, i := range live {
			if ll[i] < currBest-delta {
				bailedOut[i] = true
			} else {
				kept = append(kept, i)
			}
		}
		live = kept
	}

	currBest := math.Inf(-1)
	for _, i := range live {
		if ll[i] > currBest {
			currBest = ll[i]
		}
	}
	replacement := currBest + math.Log(v.rejectionThreshold)
	for i := range ll {
		if bailedOut[i] {
			ll[i] = replacement
		}
	}
	return ll
}

func (v *fboVariant) newPlaceLikelihoodOverride(e *Engine, query []float32) (float64, bool) {
	return 0, false
}

func (v *fboVariant) onAddTraining(e *Engine, obs []float32) {}
func (v *fboVariant) onAddTest(e *Engine, obs []float32)     {}
