package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// TreeNode is one entry of a flattened binary tree. Samples with
// x[FeatureIdx] <= Threshold go to LeftChild.
type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	ClassLabel    int       `json:"class_label"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

type treeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// DecisionTree is a point model. Trees whose leaves all carry class
// distributions are returned as ProbabilisticTree instead.
type DecisionTree struct {
	nodes     []TreeNode
	nFeatures int
}

// ProbabilisticTree is a DecisionTree whose leaves carry class distributions.
type ProbabilisticTree struct {
	*DecisionTree
}

func newDecisionTree(raw json.RawMessage, nFeatures int) (Model, error) {
	var p treeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	if len(p.Nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}

	withProba := true
	for i, n := range p.Nodes {
		if n.IsLeaf {
			if len(n.Probabilities) == 0 {
				withProba = false
			}
			continue
		}
		if n.FeatureIdx < 0 || (nFeatures > 0 && n.FeatureIdx >= nFeatures) {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		if n.LeftChild <= i || n.LeftChild >= len(p.Nodes) || n.RightChild <= i || n.RightChild >= len(p.Nodes) {
			return nil, fmt.Errorf("node %d: invalid children %d/%d", i, n.LeftChild, n.RightChild)
		}
	}

	dt := &DecisionTree{nodes: p.Nodes, nFeatures: nFeatures}
	if withProba {
		return ProbabilisticTree{dt}, nil
	}
	return dt, nil
}

func (dt *DecisionTree) leaf(row []float64) (*TreeNode, error) {
	idx := 0
	for {
		node := &dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx >= len(row) {
			return nil, errors.New("feature index out of range")
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (dt *DecisionTree) check(X [][]float64) error {
	if dt.nFeatures > 0 {
		return checkWidth(X, dt.nFeatures)
	}
	if len(X) == 0 {
		return errors.New("empty input")
	}
	return nil
}

func (dt *DecisionTree) Predict(_ context.Context, X [][]float64) ([]int, error) {
	if err := dt.check(X); err != nil {
		return nil, err
	}
	labels := make([]int, len(X))
	for i, row := range X {
		node, err := dt.leaf(row)
		if err != nil {
			return nil, err
		}
		labels[i] = node.ClassLabel
	}
	return labels, nil
}

func (pt ProbabilisticTree) PredictProba(_ context.Context, X [][]float64) ([][]float64, error) {
	if err := pt.check(X); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		node, err := pt.leaf(row)
		if err != nil {
			return nil, err
		}
		dist := make([]float64, len(node.Probabilities))
		copy(dist, node.Probabilities)
		out[i] = dist
	}
	return out, nil
}
