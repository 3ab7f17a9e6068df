package ml

import "strings"

// missingBucket is the per-field indicator the training pipeline reserved
// for absent categorical values. Request-time values are always present, so
// these columns are emitted as 0 but must still exist by name.
const missingBucket = "nan"

// Vocabulary maps (categorical field, literal value) to the canonical
// indicator column, derived once from the schema. Values never observed
// during training have no entry.
type Vocabulary struct {
	fields map[string]map[string]string
}

// BuildVocabulary scans the schema for each field's "<field>_<value>"
// indicator columns.
func BuildVocabulary(schema *Schema, fields []string) *Vocabulary {
	vocab := &Vocabulary{fields: make(map[string]map[string]string, len(fields))}
	for _, field := range fields {
		prefix := field + "_"
		values := make(map[string]string)
		for _, column := range schema.columns {
			if strings.HasPrefix(column, prefix) {
				values[strings.TrimPrefix(column, prefix)] = column
			}
		}
		vocab.fields[field] = values
	}
	return vocab
}

// Column returns the indicator column for a field value, if the value was
// part of the training vocabulary.
func (v *Vocabulary) Column(field, value string) (string, bool) {
	column, ok := v.fields[field][value]
	return column, ok
}

// UnknownCategory is a categorical value that was never observed during
// training. Its field contributes an all-zero indicator group.
type UnknownCategory struct {
	Field string
	Value string
}

// Encoder turns one record into a column-name keyed feature map. Booleans
// become 0/1, numerics pass through, categoricals become one-hot indicators
// resolved against the training vocabulary.
type Encoder struct {
	vocab *Vocabulary
}

// NewEncoder builds an encoder bound to a schema's vocabulary.
func NewEncoder(schema *Schema) *Encoder {
	return &Encoder{vocab: BuildVocabulary(schema, CategoricalFields())}
}

// Encode produces the feature map for a record, plus any categorical values
// that had no training-time indicator. Unknown values are zero-filled: the
// field's whole indicator group stays 0 rather than the request being
// rejected. Pure function of its input.
func (e *Encoder) Encode(record *CharacterRecord) (map[string]float64, []UnknownCategory) {
	features := record.numerics()
	for name, set := range record.traits() {
		if set {
			features[name] = 1
		} else {
			features[name] = 0
		}
	}

	var unknown []UnknownCategory
	categoricals := record.categoricals()
	for _, field := range CategoricalFields() {
		value := categoricals[field]
		if column, ok := e.vocab.Column(field, value); ok {
			features[column] = 1
		} else {
			unknown = append(unknown, UnknownCategory{Field: field, Value: value})
		}
		if column, ok := e.vocab.Column(field, missingBucket); ok {
			features[column] = 0
		}
	}
	return features, unknown
}
