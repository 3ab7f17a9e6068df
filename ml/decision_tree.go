package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DecisionTree is a classifier loaded from a JSON artifact produced by the
// training pipeline: a flat node array plus the ordered class label list
// that leaf indices resolve against. Read-only after load.
type DecisionTree struct {
	classes []string
	nodes   []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

type treeArtifact struct {
	Classes []string   `json:"classes"`
	Nodes   []TreeNode `json:"nodes"`
}

// LoadDecisionTree reads and validates a serialized tree artifact.
func LoadDecisionTree(path string) (*DecisionTree, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var artifact treeArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(artifact.Nodes) == 0 {
		return nil, errors.New("parse model: no tree nodes")
	}
	if len(artifact.Classes) == 0 {
		return nil, errors.New("parse model: no class labels")
	}
	return &DecisionTree{classes: artifact.Classes, nodes: artifact.Nodes}, nil
}

// Predict walks the tree for one aligned vector and returns the leaf's
// class label. A valid walk visits each node at most once, so the step
// bound only trips on artifacts whose nodes form a cycle.
func (dt *DecisionTree) Predict(vector []float64) (string, error) {
	idx := 0
	for steps := 0; steps < len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			if node.ClassLabel < 0 || node.ClassLabel >= len(dt.classes) {
				return "", fmt.Errorf("class label %d out of range", node.ClassLabel)
			}
			return dt.classes[node.ClassLabel], nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(vector) {
			return "", fmt.Errorf("feature index %d out of range for vector of length %d", node.FeatureIdx, len(vector))
		}
		if vector[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return "", errors.New("invalid tree state")
		}
	}
	return "", errors.New("invalid tree state")
}

// Classes returns the model's output label space.
func (dt *DecisionTree) Classes() []string {
	out := make([]string, len(dt.classes))
	copy(out, dt.classes)
	return out
}
