package ml

// Align reconciles a feature map against the canonical schema: one value per
// schema position, in schema order. Columns absent from the map are 0; keys
// absent from the schema are dropped. The result always has exactly
// schema.Len() entries, which is what positional inference requires.
func Align(features map[string]float64, schema *Schema) []float64 {
	vector := make([]float64, len(schema.columns))
	for i, name := range schema.columns {
		if value, ok := features[name]; ok {
			vector[i] = value
		}
	}
	return vector
}
