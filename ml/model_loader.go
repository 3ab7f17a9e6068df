package ml

import "fmt"

// LoadModel loads a trained model artifact by type.
func LoadModel(modelType, path string) (Model, error) {
	switch modelType {
	case "decision_tree":
		return LoadDecisionTree(path)
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
