package fabmap

import "github.com/pkg/errors"

// validateDescriptor checks the shape invariants spec'd in section 6: the
// descriptor must be non-empty and its length must equal the vocabulary
// size. Go's static typing already guarantees element type ([]float32), so
// there is no analogue of the original's CV_32F element-type assertion.
func validateDescriptor(obs []float32, vocabSize int) error {
	if len(obs) == 0 {
		return errors.Wrap(ErrEmptyDescriptor, "")
	}
	if len(obs) != vocabSize {
		return errors.Wrap(ErrDescriptorLength, "")
	}
	return nil
}

func validateDescriptors(obsBatch [][]float32, vocabSize int) error {
	for _, obs := range obsBatch {
		if err := validateDescriptor(obs, vocabSize); err != nil {
			return err
		}
	}
	return nil
}

func present(v float32) bool { return v > 0 }
