package model

import (
	"errors"
	"fmt"
	"math"
)

type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      int
	right     int
	dist      []float64
}

type tree []node

// forest averages the normalized leaf distributions of its trees.
type forest struct {
	trees      []tree
	classCount int
}

func newForest(trees []treeArtifact, classCount int) (*forest, error) {
	if len(trees) == 0 {
		return nil, errors.New("tree ensemble has no trees")
	}
	f := &forest{trees: make([]tree, 0, len(trees)), classCount: classCount}
	for ti, t := range trees {
		built, err := buildTree(t, classCount)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		f.trees = append(f.trees, built)
	}
	return f, nil
}

func buildTree(t treeArtifact, classCount int) (tree, error) {
	if len(t.Nodes) == 0 {
		return nil, errors.New("no nodes")
	}
	out := make(tree, len(t.Nodes))
	for i, n := range t.Nodes {
		if len(n.Value) > 0 {
			dist, err := normalize(n.Value, classCount)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			out[i] = node{leaf: true, dist: dist}
			continue
		}

		idx, err := featureIndex(n.Feature)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		// Children after their parent rule out cycles.
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
		if math.IsNaN(n.Threshold) {
			return nil, fmt.Errorf("node %d: threshold is NaN", i)
		}
		out[i] = node{feature: idx, threshold: n.Threshold, left: n.Left, right: n.Right}
	}
	return out, nil
}

func normalize(value []float64, classCount int) ([]float64, error) {
	if len(value) != classCount {
		return nil, fmt.Errorf("leaf has %d values, want %d", len(value), classCount)
	}
	var sum float64
	for _, v := range value {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("leaf value %v is not a non-negative number", v)
		}
		sum += v
	}
	if sum == 0 {
		return nil, errors.New("leaf distribution sums to zero")
	}
	out := make([]float64, len(value))
	for i, v := range value {
		out[i] = v / sum
	}
	return out, nil
}

func (t tree) leaf(features []float64) []float64 {
	i := 0
	for !t[i].leaf {
		n := t[i]
		if features[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t[i].dist
}

func (f *forest) probabilities(features []float64) []float64 {
	out := make([]float64, f.classCount)
	for _, t := range f.trees {
		for i, p := range t.leaf(features) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out
}
