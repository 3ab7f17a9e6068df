package serving

import "errors"

// ErrNotReady is returned for every prediction attempt while the context is
// not in the Ready state.
var ErrNotReady = errors.New("service not ready")

// PredictionError wraps a failure inside the model's inference call.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return "prediction failed: " + e.Err.Error()
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
