package fabmap

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestInvertedIndexRequiresSampledFlag(t *testing.T) {
	t.Parallel()
	if _, err := NewInvertedIndex(testParams(MeanField | ChowLiu)); errors.Cause(err) != ErrInvertedIndexSampled {
		t.Errorf("expected ErrInvertedIndexSampled, got %v", err)
	}
}

func TestInvertedIndexAgreesWithExhaustive(t *testing.T) {
	t.Parallel()
	exh, err := NewExhaustive(testParams(MeanField | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	idx, err := NewInvertedIndex(testParams(Sampled | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	query := []float32{1, 0, 1, 0}
	places := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 0, 0},
	}

	exhLLs := exh.variant.getLikelihoods(exh, query, places, false)
	idxLLs := idx.variant.getLikelihoods(idx, query, places, false)

	// The index works in log-ratio space against L_{z_q}=false, so each of
	// its likelihoods is the exhaustive one minus the exhaustive score of a
	// place with no word present.
	baseline := exh.variant.(*exhaustiveVariant).likelihood(exh, query, []float32{0, 0, 0, 0})

	const tol = 1e-9
	for i := range exhLLs {
		if math.Abs(exhLLs[i]-baseline-idxLLs[i]) > tol {
			t.Errorf("place %d: exhaustive=%f baseline=%f index=%f", i, exhLLs[i], baseline, idxLLs[i])
		}
	}
}

func TestInvertedIndexOwnTestSetAgreesWithAdHoc(t *testing.T) {
	t.Parallel()
	idx, err := NewInvertedIndex(testParams(Sampled | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	places := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
	}
	if err := idx.Add(places...); err != nil {
		t.Fatalf("%+v", err)
	}

	query := []float32{1, 1, 0, 0}
	ownLLs := idx.variant.getLikelihoods(idx, query, idx.TestDescriptors(), true)
	adHocLLs := idx.variant.getLikelihoods(idx, query, places, false)

	const tol = 1e-9
	for i := range ownLLs {
		if math.Abs(ownLLs[i]-adHocLLs[i]) > tol {
			t.Errorf("place %d: own-index=%f ad-hoc=%f", i, ownLLs[i], adHocLLs[i])
		}
	}
}

func TestInvertedIndexNewPlaceUsesEntireTrainingSet(t *testing.T) {
	t.Parallel()
	idx, err := NewInvertedIndex(testParams(Sampled | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// NumSamples is deliberately left irrelevant here: the inverted-index
	// variant's new-place likelihood sums over every training descriptor
	// regardless of NumSamples, unlike the generic sampled path.
	train := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 0, 0},
		{0, 0, 1, 1},
		{1, 1, 1, 1},
	}
	if err := idx.AddTraining(train...); err != nil {
		t.Fatalf("%+v", err)
	}

	query := []float32{1, 0, 1, 0}
	got, err := idx.newPlaceLikelihood(query)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	wantLLs := idx.variant.getLikelihoods(idx, query, train, false)
	want := logSumExpSeries(wantLLs) - math.Log(float64(len(train)))

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("newPlaceLikelihood = %f, want %f", got, want)
	}
}

// TestInvertedIndexNaiveBayesDegeneracy checks that, under the NaiveBayes
// kernel (which ignores z_p(q) entirely), d2 collapses to 0 and d4 to d3 —
// since the zpq-dependent correction terms have nothing to correct for.
func TestInvertedIndexNaiveBayesDegeneracy(t *testing.T) {
	t.Parallel()
	idx, err := NewInvertedIndex(testParams(Sampled | NaiveBayes))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	v := idx.variant.(*indexVariant)
	for q := range v.d1 {
		if math.Abs(v.d2[q]) > 1e-12 {
			t.Errorf("word %d: d2 = %f, want 0 under NaiveBayes", q, v.d2[q])
		}
		if math.Abs(v.d4[q]-v.d3[q]) > 1e-12 {
			t.Errorf("word %d: d4 = %f, d3 = %f, want equal under NaiveBayes", q, v.d4[q], v.d3[q])
		}
	}
}

// TestInvertedIndexTrainingIndexDrivesNewPlace checks that AddTraining
// incrementally grows the training-side posting lists and defaults, and
// that the new-place override is computed through them rather than
// rebuilding an ad hoc index per call.
func TestInvertedIndexTrainingIndexDrivesNewPlace(t *testing.T) {
	t.Parallel()
	idx, err := NewInvertedIndex(testParams(Sampled | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	v := idx.variant.(*indexVariant)
	train := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
	}
	if err := idx.AddTraining(train...); err != nil {
		t.Fatalf("%+v", err)
	}
	if len(v.trainingDefaults) != len(train) {
		t.Errorf("trainingDefaults has %d entries, want %d", len(v.trainingDefaults), len(train))
	}
	if len(v.trainingPostings[0]) != 1 || v.trainingPostings[0][0] != 0 {
		t.Errorf("trainingPostings[0] = %v, want [0] (only the first training place has word 0)", v.trainingPostings[0])
	}
}

func TestInvertedIndexNewPlaceEmptyTrainingSet(t *testing.T) {
	t.Parallel()
	idx, err := NewInvertedIndex(testParams(Sampled | ChowLiu))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	got, err := idx.newPlaceLikelihood([]float32{1, 0, 1, 0})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !math.IsInf(got, -1) {
		t.Errorf("expected -Inf new-place likelihood with no training set, got %f", got)
	}
}
