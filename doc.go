// Package fabmap implements probabilistic place-recognition inference for
// appearance-based localization and mapping.
//
// Given a stream of binary bag-of-visual-words observations, it computes,
// for each new observation, a probability distribution over every
// previously seen place plus a "new place" hypothesis. The model is a
// Chow-Liu tree approximation of the joint distribution of visual word
// occurrences, combined with a per-word detector-error model and an
// optional motion prior over the place index.
//
// Four inference variants are provided, trading setup cost and memory for
// per-query speed: NewExhaustive (straightforward), NewLUT (precomputed
// fixed-point table), NewFBO (Bennett-inequality pruning) and
// NewInvertedIndex (posting lists keyed by word). NewInvertedIndex's
// per-place log-likelihoods equal NewExhaustive's minus one per-query
// constant; NewLUT matches NewExhaustive up to its fixed-point
// quantization; NewFBO matches it on places that survive pruning and gives
// pruned places a floor value below the best surviving place.
//
// Reference:
// Mark Cummins and Paul Newman, "FAB-MAP: Probabilistic Localization and
// Mapping in the Space of Appearance", IJRR 27(6), 2008.
package fabmap
