package fabmap

// Flags is a bitmask selecting new-place likelihood mode, kernel, and
// optional motion smoothing at construction time. Exactly one of
// {MeanField, Sampled} and exactly one of {NaiveBayes, ChowLiu} must be set.
type Flags uint32

const (
	// MeanField selects the closed-form new-place likelihood (equation
	// 3.21 of Cummins' thesis, new-place term assumed uniform).
	MeanField Flags = 1 << iota
	// Sampled selects the Monte-Carlo new-place likelihood: draw
	// numSamples training descriptors with replacement and average their
	// likelihood under the chosen variant.
	Sampled
	// NaiveBayes selects the naive-Bayes kernel P(z_q|L) (ignores the
	// tree edge to the parent word).
	NaiveBayes
	// ChowLiu selects the tree-respecting kernel P(z_q|z_p(q),L).
	ChowLiu
	// MotionModel enables the 3-tap motion prior over the place index
	// during normalization, and requires a prior posterior captured by an
	// earlier compare call against the engine's own test set.
	MotionModel
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

func validateFlags(f Flags) error {
	modeBits := 0
	if f.has(MeanField) {
		modeBits++
	}
	if f.has(Sampled) {
		modeBits++
	}
	kernelBits := 0
	if f.has(NaiveBayes) {
		kernelBits++
	}
	if f.has(ChowLiu) {
		kernelBits++
	}
	if modeBits != 1 || kernelBits != 1 {
		return ErrIllegalFlags
	}
	return nil
}
