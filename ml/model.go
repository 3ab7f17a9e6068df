package ml

// Model is an opaque trained classifier. Predict takes an aligned feature
// vector and returns a house label. Implementations must be safe for
// concurrent read-only inference; the serving layer does not lock around
// this call.
type Model interface {
	Predict(vector []float64) (string, error)
}
