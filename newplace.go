package fabmap

import (
	"log"
	"math"
)

// logSumExp computes log(exp(a) + exp(b)) without overflowing, the way
// ctw.go's logaddexp does: branch on which operand dominates and use
// Log1p on the (small, non-positive) difference. The else branch only
// fires for NaN or same-signed infinities, which should not occur on
// finite log-likelihoods; it logs instead of propagating NaN silently.
func logSumExp(a, b float64) float64 {
	d := a - b
	switch {
	case d > 0:
		return a + math.Log1p(math.Exp(-d))
	case d <= 0:
		return b + math.Log1p(math.Exp(d))
	default:
		log.Printf("fabmap: logSumExp encountered a non-finite operand pair %f %f", a, b)
		return a + b
	}
}

// logSumExpSeries folds logSumExp over vals, seeded so the accumulator
// starts effectively at -infinity without producing NaN once the first
// real term is folded in.
func logSumExpSeries(vals []float64) float64 {
	acc := -math.MaxFloat64 + vals[0] + 1
	for _, v := range vals {
		acc = logSumExp(acc, v)
	}
	return acc
}

// newPlaceLikelihoodMeanField computes equation 3.21 of Cummins' thesis
// (new-place term assumed uniform): for each word q, integrate e_q over
// {false,true} using only P(z_q), P(z_q|e_q) and P(z_q|z_p(q)), and sum
// the logs across words.
func (e *Engine) newPlaceLikelihoodMeanField(query []float32) float64 {
	t := e.tree
	logP := 0.0
	naive := e.flags.has(NaiveBayes)
	for q := 0; q < t.vocabSize; q++ {
		zq := present(query[q])
		if naive {
			logP += math.Log(t.pZ(q, false)*t.pZgivenE(zq, false) + t.pZ(q, true)*t.pZgivenE(zq, true))
			continue
		}

		zpq := present(query[t.parent(q)])

		alpha := t.pZ(q, zq) * t.pZgivenE(!zq, false) * t.pZgivenParent(q, !zq, zpq)
		beta := t.pZ(q, !zq) * t.pZgivenE(zq, false) * t.pZgivenParent(q, zq, zpq)
		p := t.pZ(q, false) * beta / (alpha + beta)

		alpha = t.pZ(q, zq) * t.pZgivenE(!zq, true) * t.pZgivenParent(q, !zq, zpq)
		beta = t.pZ(q, !zq) * t.pZgivenE(zq, true) * t.pZgivenParent(q, zq, zpq)
		p += t.pZ(q, true) * beta / (alpha + beta)

		logP += math.Log(p)
	}
	return logP
}

// sampleWithReplacement draws n indices uniformly from [0, size) using the
// engine's own seeded generator. Sampling the same index more than once
// is allowed, matching the original's documented behavior.
func sampleWithReplacement(rng randSource, size, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(size)
	}
	return idx
}

// newPlaceLikelihoodSampled draws numSamples training descriptors with
// replacement, runs the engine's variant against them, and returns the
// logsumexp of their log-likelihoods minus log(numSamples) — a Monte-Carlo
// estimate of the new-place likelihood.
func (e *Engine) newPlaceLikelihoodSampled(query []float32) (float64, error) {
	if len(e.trainingDescriptors) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if e.numSamples <= 0 {
		return 0, ErrNonPositiveSamples
	}

	idx := sampleWithReplacement(e.rng, len(e.trainingDescriptors), e.numSamples)
	sampled := make([][]float32, len(idx))
	for i, j := range idx {
		sampled[i] = e.trainingDescriptors[j]
	}

	lls := e.variant.getLikelihoods(e, query, sampled, false)
	return logSumExpSeries(lls) - math.Log(float64(e.numSamples)), nil
}

// newPlaceLikelihood dispatches to the variant's own override when it has
// one (Variant D's inverted-index new-place likelihood does not follow the
// generic sampled path, otherwise to mean-field or
// sampled per the construction flags.
func (e *Engine) newPlaceLikelihood(query []float32) (float64, error) {
	if ll, ok := e.variant.newPlaceLikelihoodOverride(e, query); ok {
		return ll, nil
	}
	if e.flags.has(MeanField) {
		return e.newPlaceLikelihoodMeanField(query), nil
	}
	return e.newPlaceLikelihoodSampled(query)
}
