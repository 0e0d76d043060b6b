package fabmap

import "github.com/pkg/errors"

// Sentinel errors for programmer-contract violations (bad shapes, illegal
// flags, empty sets where required). These are bugs in the caller, not
// recoverable runtime conditions; every constructor and mutating method
// returns one wrapped with errors.Wrap so %+v at the top level prints a
// full stack trace.
var (
	ErrEmptyDescriptor      = errors.New("fabmap: empty descriptor")
	ErrDescriptorLength     = errors.New("fabmap: descriptor length does not match vocabulary size")
	ErrIllegalFlags         = errors.New("fabmap: exactly one of MeanField/Sampled and one of NaiveBayes/ChowLiu must be set")
	ErrEmptyTrainingSet     = errors.New("fabmap: sampled new-place likelihood requires a non-empty training set")
	ErrNonPositiveSamples   = errors.New("fabmap: sampled new-place likelihood requires numSamples > 0")
	ErrMotionModelExternal  = errors.New("fabmap: motion model cannot be combined with an external test set")
	ErrInvertedIndexSampled = errors.New("fabmap: the inverted-index variant requires the Sampled flag")
	ErrInvalidTree          = errors.New("fabmap: clTree must have 4 rows and a positive number of columns")

	ErrInvalidRejectionThreshold = errors.New("fabmap: rejectionThreshold must lie in (0,1)")
	ErrInvalidPsGd               = errors.New("fabmap: PsGd must lie in (0,1)")
	ErrInvalidBisectionStart     = errors.New("fabmap: bisectionStart must be positive")
	ErrInvalidBisectionIts       = errors.New("fabmap: bisectionIts must be positive")
)
