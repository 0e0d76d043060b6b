package fabmap

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// randSource is the subset of *rand.Rand the sampled new-place likelihood
// needs; abstracted so tests can substitute a deterministic source.
type randSource interface {
	Intn(n int) int
}

// variant is the per-algorithm strategy FabMap dispatches to: computing a
// log-likelihood per test place, and (for the inverted-index variant only)
// overriding the generic new-place likelihood and reacting to adds.
type variant interface {
	// getLikelihoods returns one log-likelihood per entry of testSet. When
	// isOwnTestSet is true, testSet is the engine's own accumulated test
	// set and the variant may use any index built incrementally by
	// onAddTest; otherwise it must treat testSet as ad hoc.
	getLikelihoods(e *Engine, query []float32, testSet [][]float32, isOwnTestSet bool) []float64

	// newPlaceLikelihoodOverride lets a variant replace the engine's
	// generic mean-field/sampled new-place likelihood. ok is false for
	// variants that use the generic behavior.
	newPlaceLikelihoodOverride(e *Engine, query []float32) (ll float64, ok bool)

	onAddTraining(e *Engine, obs []float32)
	onAddTest(e *Engine, obs []float32)
}

// Engine drives FabMap inference: shared training/test sets, tree kernels,
// new-place likelihood, and posterior normalization, dispatching the
// per-place likelihood computation to whichever variant it was built with.
// One Engine is not safe for concurrent use.
type Engine struct {
	tree    *tree
	flags   Flags
	variant variant

	numSamples int
	rng        randSource

	pNew    float64
	sFactor float64
	mBias   float64

	trainingDescriptors [][]float32
	testDescriptors     [][]float32
	priorMatches        []Match
}

// Params bundles the construction inputs common to every variant.
type Params struct {
	ClTree     *mat.Dense
	PzGe       float64
	PzGNe      float64
	Flags      Flags
	NumSamples int
	// Seed seeds the engine's own random source used for sampled new-place
	// likelihood draws. Two engines built with the same seed and fed the
	// same calls are deterministic.
	Seed int64
}

func newBaseEngine(p Params, v variant) (*Engine, error) {
	if err := validateFlags(p.Flags); err != nil {
		return nil, errors.Wrap(err, "")
	}
	t, err := newTree(p.ClTree, p.PzGe, p.PzGNe)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	e := &Engine{
		tree:       t,
		flags:      p.Flags,
		variant:    v,
		numSamples: p.NumSamples,
		rng:        rand.New(rand.NewSource(p.Seed)),
		pNew:       0.9,
		sFactor:    0.99,
		mBias:      0.5,
	}
	return e, nil
}

// SetMotionParams overrides the defaults (Pnew=0.9, sFactor=0.99,
// mBias=0.5); all three must lie in [0,1].
func (e *Engine) SetMotionParams(pNew, sFactor, mBias float64) error {
	for _, v := range []float64{pNew, sFactor, mBias} {
		if v < 0 || v > 1 {
			return errors.New("fabmap: Pnew, sFactor and mBias must lie in [0,1]")
		}
	}
	e.pNew = pNew
	e.sFactor = sFactor
	e.mBias = mBias
	return nil
}

// VocabSize returns V, the number of columns of the Chow-Liu tree table.
func (e *Engine) VocabSize() int { return e.tree.vocabSize }

// TrainingDescriptors returns the accumulated training set.
func (e *Engine) TrainingDescriptors() [][]float32 { return e.trainingDescriptors }

// TestDescriptors returns the accumulated test set (the gallery of visited
// places).
func (e *Engine) TestDescriptors() [][]float32 { return e.testDescriptors }

// AddTraining appends one or more descriptors to the training set, used by
// the sampled new-place likelihood. Training is conceptually fixed once
// setup is complete; nothing else reads this set.
func (e *Engine) AddTraining(obsBatch ...[]float32) error {
	if err := validateDescriptors(obsBatch, e.tree.vocabSize); err != nil {
		return errors.Wrap(err, "")
	}
	for _, obs := range obsBatch {
		e.trainingDescriptors = append(e.trainingDescriptors, obs)
		e.variant.onAddTraining(e, obs)
	}
	return nil
}

// Add appends one or more descriptors to the test set — the gallery of
// places a later compare will be scored against.
func (e *Engine) Add(obsBatch ...[]float32) error {
	if err := validateDescriptors(obsBatch, e.tree.vocabSize); err != nil {
		return errors.Wrap(err, "")
	}
	for _, obs := range obsBatch {
		e.testDescriptors = append(e.testDescriptors, obs)
		e.variant.onAddTest(e, obs)
	}
	return nil
}

// compareImgDescriptor drives one full inference for a single query against
// testSet: a new-place record, one record per test
// place, normalized, with queryIndex stamped into every record.
func (e *Engine) compareImgDescriptor(query []float32, queryIndex int, testSet [][]float32, isOwnTestSet bool) ([]Match, error) {
	newPlaceLL, err := e.newPlaceLikelihood(query)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	lls := e.variant.getLikelihoods(e, query, testSet, isOwnTestSet)

	matches := make([]Match, 0, len(lls)+1)
	matches = append(matches, newMatch(queryIndex, -1, newPlaceLL))
	for i, ll := range lls {
		matches = append(matches, newMatch(queryIndex, i, ll))
	}

	e.normalize(matches)
	for i := range matches {
		matches[i].QueryIdx = queryIndex
	}
	return matches, nil
}

// Mask is reserved for a future per-word inclusion mask on compare calls;
// it is accepted everywhere a compare call takes one but is never read. A
// nil Mask is the common case.
type Mask []bool

// Compare runs inference for each query against the engine's own
// accumulated test set, optionally appending each query to that set right
// after it is scored (so later queries in the same batch are compared
// against earlier ones too). mask is reserved and currently ignored.
func (e *Engine) Compare(queries [][]float32, addQuery bool, mask Mask) ([]Match, error) {
	if err := validateDescriptors(queries, e.tree.vocabSize); err != nil {
		return nil, errors.Wrap(err, "")
	}

	all := make([]Match, 0, len(queries))
	for i, q := range queries {
		matches, err := e.compareImgDescriptor(q, i, e.testDescriptors, true)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		all = append(all, matches...)
		if addQuery {
			if err := e.Add(q); err != nil {
				return nil, errors.Wrap(err, "")
			}
		}
	}
	return all, nil
}

// CompareAgainst runs inference for each query against an externally
// supplied test set rather than the engine's own. The motion model cannot
// be used this way, since priorMatches is only meaningful relative to the
// engine's own accumulated set. mask is reserved and
// currently ignored.
func (e *Engine) CompareAgainst(queries [][]float32, testSet [][]float32, mask Mask) ([]Match, error) {
	if e.flags.has(MotionModel) {
		return nil, errors.Wrap(ErrMotionModelExternal, "")
	}
	if err := validateDescriptors(queries, e.tree.vocabSize); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := validateDescriptors(testSet, e.tree.vocabSize); err != nil {
		return nil, errors.Wrap(err, "")
	}

	all := make([]Match, 0, len(queries))
	for i, q := range queries {
		matches, err := e.compareImgDescriptor(q, i, testSet, false)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		all = append(all, matches...)
	}
	return all, nil
}

// CompareOne is a convenience adapter over Compare for a single query,
// keeping the two intake shapes as thin adapters around one internal
// interface.
func (e *Engine) CompareOne(query []float32, addQuery bool, mask Mask) ([]Match, error) {
	return e.Compare([][]float32{query}, addQuery, mask)
}
