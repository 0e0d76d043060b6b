package fabmap

import (
	"math"
	"testing"
)

// TestCompareEndToEndAcrossVariants exercises the full Compare pipeline
// (new-place record, normalization, accumulation) identically across all
// four variants on the same corpus, checking only the invariants that must
// hold regardless of which one is in play.
func TestCompareEndToEndAcrossVariants(t *testing.T) {
	t.Parallel()

	build := map[string]func() (*Engine, error){
		"exhaustive": func() (*Engine, error) { return NewExhaustive(testParams(MeanField | ChowLiu)) },
		"lut":        func() (*Engine, error) { return NewLUT(testParams(MeanField|ChowLiu), 6) },
		"fbo":        func() (*Engine, error) { return newTestFBO(MeanField | ChowLiu) },
		"index":      func() (*Engine, error) { return NewInvertedIndex(testParams(Sampled | ChowLiu)) },
	}

	queries := [][]float32{
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 0, 0},
	}

	for name, ctor := range build {
		e, err := ctor()
		if err != nil {
			t.Fatalf("%s: %+v", name, err)
		}
		if name == "index" {
			if err := e.AddTraining(queries...); err != nil {
				t.Fatalf("%s: %+v", name, err)
			}
		}

		matches, err := e.Compare(queries, true, nil)
		if err != nil {
			t.Fatalf("%s: %+v", name, err)
		}

		byQuery := map[int][]Match{}
		for _, m := range matches {
			byQuery[m.QueryIdx] = append(byQuery[m.QueryIdx], m)
		}
		for qi, ms := range byQuery {
			sum := 0.0
			for _, m := range ms {
				sum += m.Match
				if m.Match < 0 || m.Match > 1 {
					t.Errorf("%s query %d: match probability out of range: %f", name, qi, m.Match)
				}
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Errorf("%s query %d: matches sum to %f, want 1", name, qi, sum)
			}
		}
		if len(e.TestDescriptors()) != len(queries) {
			t.Errorf("%s: expected %d accumulated test descriptors, got %d", name, len(queries), len(e.TestDescriptors()))
		}
	}
}
