package fabmap

import "math"

// normalize turns a slice of Match records — index 0 the new-place
// hypothesis, indices >=1 existing places in order — into a probability
// distribution, optionally blending in the motion prior first.
// matches[i].Likelihood must already be populated; Match is written in
// place.
func (e *Engine) normalize(matches []Match) {
	if e.flags.has(MotionModel) {
		e.normalizeWithMotion(matches)
	} else {
		e.normalizeWithoutMotion(matches)
	}
}

func (e *Engine) normalizeWithoutMotion(matches []Match) {
	lls := make([]float64, len(matches))
	for i, m := range matches {
		lls[i] = m.Likelihood
	}
	z := logSumExpSeries(lls)

	n := float64(len(matches))
	for i := range matches {
		p := math.Exp(matches[i].Likelihood - z)
		matches[i].Match = e.sFactor*p + (1-e.sFactor)/n
	}
}

// normalizeWithMotion biases the new-place probability by log(Pnew) and
// blends each existing place's likelihood with a 3-tap weighted prior over
// (i-1, i, i+1) with weights (2(1-mBias), 1, 2mBias), clamping the
// out-of-range neighbor to the place itself at either boundary. Places
// added since the prior was captured (beyond its length) get no motion
// adjustment. priorMatches is then replaced with the freshly produced
// posterior.
func (e *Engine) normalizeWithMotion(matches []Match) {
	matches[0].Match = matches[0].Likelihood + math.Log(e.pNew)

	priorLen := len(e.priorMatches)
	if priorLen > 2 {
		for i := 1; i < priorLen; i++ {
			left := i - 1
			if left < 1 {
				left = i
			}
			right := i + 1
			if right >= priorLen {
				right = i
			}
			blended := (2*(1-e.mBias)*e.priorMatches[left].Match +
				e.priorMatches[i].Match +
				2*e.mBias*e.priorMatches[right].Match) / 3
			matches[i].Match = matches[i].Likelihood + math.Log(blended)
		}
		for i := priorLen; i < len(matches); i++ {
			matches[i].Match = matches[i].Likelihood
		}
	} else {
		for i := 1; i < len(matches); i++ {
			matches[i].Match = matches[i].Likelihood
		}
	}

	lls := make([]float64, len(matches))
	for i, m := range matches {
		lls[i] = m.Match
	}
	z := logSumExpSeries(lls)

	n := float64(len(matches))
	for i := range matches {
		p := math.Exp(matches[i].Match - z)
		matches[i].Match = e.sFactor*p + (1-e.sFactor)/n
	}

	prior := make([]Match, len(matches))
	copy(prior, matches)
	e.priorMatches = prior
}
