package singularity

import (
	"errors"
	"fmt"
)

var (
	ErrNilMatrix         = errors.New("singularity: nil matrix")
	ErrDimensionMismatch = errors.New("singularity: matrix dimensions mismatch")
	ErrTooManyConditions = errors.New("singularity: too many singularity conditions")
)

// DetectionError wraps an input or limit failure with its sentinel kind.
type DetectionError struct {
	Kind error
	Msg  string
}

func (e *DetectionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *DetectionError) Unwrap() error { return e.Kind }

func detectionErrorf(kind error, format string, args ...any) error {
	return &DetectionError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
