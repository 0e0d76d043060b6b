package fabmap

import (
	"math"

	"github.com/pkg/errors"
)

// indexVariant is FabMap2: rather than walking every (word, place) pair, it
// precomputes four per-word log-ratio arrays (d1-d4, relative to a place
// lacking the word entirely) and each word's list of tree children, then
// holds two inverted indices built incrementally as places are added — one
// over the training set, one over the test set — each pairing a per-place
// default log-likelihood with posting lists of the places where a given
// word is present. A place's likelihood is its default plus one correction
// per word the query cares about, applied only via the posting lists of
// that word (and, for a present word's absent children, theirs). Every term
// is a log-ratio against L_{z_q}=false, so the result is the exhaustive
// variant's sum minus one per-query constant (the score the exhaustive
// variant gives a place with no word present), reorganized around the
// sparsity of real bag-of-words descriptors.
//
// Its new-place likelihood does not follow the engine's generic
// mean-field/sampled path: it runs the query against the entire training
// inverted index and divides by the training set's size, rather than a
// numSamples-sized draw. This asymmetry was easy to miss in the original
// and is reproduced deliberately.
type indexVariant struct {
	kernel kernelFunc

	d1, d2, d3, d4 []float64
	children       [][]int

	trainingDefaults []float64
	trainingPostings map[int][]int

	testDefaults []float64
	testPostings map[int][]int
}

// NewInvertedIndex builds the inverted-index engine. It requires the
// Sampled flag bit even though its new-place likelihood ignores numSamples,
// so that construction looks uniform across variants, even though
// numSamples itself need not be positive for this one.
func NewInvertedIndex(p Params) (*Engine, error) {
	if !p.Flags.has(Sampled) {
		return nil, errors.Wrap(ErrInvertedIndexSampled, "")
	}
	v := &indexVariant{
		trainingPostings: make(map[int][]int),
		testPostings:     make(map[int][]int),
	}
	e, err := newBaseEngine(p, v)
	if err != nil {
		return nil, err
	}

	t := e.tree
	v.kernel = t.kernel(p.Flags)
	v.d1 = make([]float64, t.vocabSize)
	v.d2 = make([]float64, t.vocabSize)
	v.d3 = make([]float64, t.vocabSize)
	v.d4 = make([]float64, t.vocabSize)
	v.children = make([][]int, t.vocabSize)
	for q := 0; q < t.vocabSize; q++ {
		v.d1[q] = math.Log(v.kernel(q, false, false, true) / v.kernel(q, false, false, false))
		v.d2[q] = math.Log(v.kernel(q, false, true, true)/v.kernel(q, false, true, false)) - v.d1[q]
		v.d3[q] = math.Log(v.kernel(q, true, false, true)/v.kernel(q, true, false, false)) - v.d1[q]
		v.d4[q] = math.Log(v.kernel(q, true, true, true)/v.kernel(q, true, true, false)) - v.d1[q]

		if parent := t.parent(q); parent != q {
			v.children[parent] = append(v.children[parent], q)
		}
	}
	return e, nil
}

// addToIndex appends a new place to defaults/postings: its default
// log-likelihood is the sum of d1_q over every word it has present, and it
// is registered on the posting list of each of those words.
func (v *indexVariant) addToIndex(defaults *[]float64, postings map[int][]int, obs []float32) {
	placeIdx := len(*defaults)
	def := 0.0
	for q, val := range obs {
		if present(val) {
			def += v.d1[q]
			postings[q] = append(postings[q], placeIdx)
		}
	}
	*defaults = append(*defaults, def)
}

// buildAdHocIndex builds a throwaway defaults/postings pair for a testSet
// that is not the engine's own incrementally indexed one (an external set
// passed to CompareAgainst, or a caller-supplied subset).
func (v *indexVariant) buildAdHocIndex(testSet [][]float32) ([]float64, map[int][]int) {
	defaults := make([]float64, 0, len(testSet))
	postings := make(map[int][]int)
	for _, obs := range testSet {
		v.addToIndex(&defaults, postings, obs)
	}
	return defaults, postings
}

// getIndexLikelihoods starts every place at its default (the all-absent-
// query baseline) and applies one correction per word present in the query:
// d4/d3 to every place where that word is itself present (by whether the
// word's parent is also present in the query), and d2 to every place where
// an absent child of a present word is present.
func (v *indexVariant) getIndexLikelihoods(e *Engine, query []float32, defaults []float64, postings map[int][]int) []float64 {
	t := e.tree
	ll := make([]float64, len(defaults))
	copy(ll, defaults)

	for q := 0; q < t.vocabSize; q++ {
		if !present(query[q]) {
			continue
		}
		d := v.d3[q]
		if present(query[t.parent(q)]) {
			d = v.d4[q]
		}
		for _, placeIdx := range postings[q] {
			if placeIdx < len(ll) {
				ll[placeIdx] += d
			}
		}

		for _, c := range v.children[q] {
			if present(query[c]) {
				continue
			}
			for _, placeIdx := range postings[c] {
				if placeIdx < len(ll) {
					ll[placeIdx] += v.d2[c]
				}
			}
		}
	}
	return ll
}

// getLikelihoods computes one log-likelihood per place in testSet. When
// isOwnTestSet is true, it is driven off the engine's own incrementally
// maintained test index; otherwise a throwaway index is built from testSet
// on every call, an extra pass over every word of every place in testSet.
func (v *indexVariant) getLikelihoods(e *Engine, query []float32, testSet [][]float32, isOwnTestSet bool) []float64 {
	if isOwnTestSet {
		return v.getIndexLikelihoods(e, query, v.testDefaults, v.testPostings)
	}
	defaults, postings := v.buildAdHocIndex(testSet)
	return v.getIndexLikelihoods(e, query, defaults, postings)
}

// newPlaceLikelihoodOverride sums the query's likelihood, via the training
// inverted index, against the entire training set — not a numSamples-sized
// draw — and divides by the training set's size, matching the original
// FabMap2 new-place likelihood exactly. This was easy to overlook; it is
// reproduced deliberately.
func (v *indexVariant) newPlaceLikelihoodOverride(e *Engine, query []float32) (float64, bool) {
	if len(e.trainingDescriptors) == 0 {
		return math.Inf(-1), true
	}
	lls := v.getIndexLikelihoods(e, query, v.trainingDefaults, v.trainingPostings)
	ll := logSumExpSeries(lls) - math.Log(float64(len(e.trainingDescriptors)))
	return ll, true
}

// onAddTraining keeps the training-side inverted index (used only by the
// new-place likelihood override above) in step with e.trainingDescriptors.
func (v *indexVariant) onAddTraining(e *Engine, obs []float32) {
	v.addToIndex(&v.trainingDefaults, v.trainingPostings, obs)
}

// onAddTest keeps the test-side inverted index (used by getLikelihoods when
// comparing against the engine's own accumulated test set) in step with
// e.testDescriptors.
func (v *indexVariant) onAddTest(e *Engine, obs []float32) {
	v.addToIndex(&v.testDefaults, v.testPostings, obs)
}
