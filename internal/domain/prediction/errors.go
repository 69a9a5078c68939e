package prediction

import (
	"errors"
	"fmt"
)

// ErrRejected marks a raw guess that cannot be scored.
var ErrRejected = errors.New("prediction rejected")

// Rejection reasons. Both wrap ErrRejected.
var (
	ErrMissingScore = fmt.Errorf("%w: score missing", ErrRejected)
	ErrInvalidScore = fmt.Errorf("%w: score is not a non-negative integer", ErrRejected)
)
