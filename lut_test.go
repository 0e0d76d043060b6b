package fabmap

import (
	"math"
	"testing"
)

func TestLUTAgreesWithExhaustive(t *testing.T) {
	t.Parallel()
	flags := MeanField | ChowLiu
	exh, err := NewExhaustive(testParams(flags))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	lut, err := NewLUT(testParams(flags), 6)
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
	lutLLs := lut.variant.getLikelihoods(lut, query, places, false)

	// Quantization to 6 decimal digits per word bounds the per-word error
	// at 0.5e-6; summed across the 4-word vocabulary that is well under
	// the tolerance below.
	const tol = 1e-3
	for i := range exhLLs {
		if math.Abs(exhLLs[i]-lutLLs[i]) > tol {
			t.Errorf("place %d: exhaustive=%f lut=%f", i, exhLLs[i], lutLLs[i])
		}
	}
}

func TestLUTScale(t *testing.T) {
	t.Parallel()
	if lutScale(0) != 1 {
		t.Errorf("lutScale(0) = %d, want 1", lutScale(0))
	}
	if lutScale(3) != 1000 {
		t.Errorf("lutScale(3) = %d, want 1000", lutScale(3))
	}
}
