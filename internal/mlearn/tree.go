// Package mlearn implements the supervised regression layer of the risk
// pipeline: a variance-reduction regression tree primitive, random-forest and
// gradient-boosting ensembles built on it, and the multi-model selection loop.
//
// Everything here is deterministic for a fixed seed: bootstrap sampling and
// feature subsetting use per-tree seeded generators, and no map iteration
// order leaks into the fitted state.
package mlearn

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a fitted regression tree. Exported fields keep the
// tree JSON-serializable for the model slot.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Predict walks the tree for a single feature vector.
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// treeParams bounds tree growth.
type treeParams struct {
	maxDepth    int
	minLeaf     int
	featSubset  int // features considered per split; 0 means all
	rng         *rand.Rand
	numFeatures int
}

// buildTree grows a regression tree on the sample index set, accumulating
// per-feature split gain into importances.
func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams, importances []float64) *TreeNode {
	mean := meanAt(y, idx)
	if depth >= p.maxDepth || len(idx) < 2*p.minLeaf || pureAt(y, idx) {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, gain, ok := bestSplit(X, y, idx, p)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean}
	}
	importances[feature] += gain

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, depth+1, p, importances),
		Right:     buildTree(X, y, right, depth+1, p, importances),
	}
}

// bestSplit scans candidate thresholds (midpoints between consecutive sorted
// unique values) on a feature subset and returns the split with the largest
// sum-of-squared-error reduction.
func bestSplit(X [][]float64, y []float64, idx []int, p treeParams) (feature int, threshold, gain float64, ok bool) {
	features := make([]int, p.numFeatures)
	for i := range features {
		features[i] = i
	}
	if p.featSubset > 0 && p.featSubset < p.numFeatures && p.rng != nil {
		p.rng.Shuffle(len(features), func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		features = features[:p.featSubset]
		sort.Ints(features)
	}

	baseSSE := sseAt(y, idx)
	bestGain := 0.0
	for _, f := range features {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			t := (values[v] + values[v-1]) / 2

			var nL, nR int
			var sumL, sumR, sqL, sqR float64
			for _, i := range idx {
				yi := y[i]
				if X[i][f] <= t {
					nL++
					sumL += yi
					sqL += yi * yi
				} else {
					nR++
					sumR += yi
					sqR += yi * yi
				}
			}
			if nL < p.minLeaf || nR < p.minLeaf {
				continue
			}
			sse := (sqL - sumL*sumL/float64(nL)) + (sqR - sumR*sumR/float64(nR))
			if g := baseSSE - sse; g > bestGain {
				bestGain = g
				feature = f
				threshold = t
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sseAt(y []float64, idx []int) float64 {
	m := meanAt(y, idx)
	var sse float64
	for _, i := range idx {
		d := y[i] - m
		sse += d * d
	}
	return sse
}

func pureAt(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

// normalize scales importances so they sum to 1; an all-zero vector (no
// splits anywhere) is returned unchanged.
func normalize(importances []float64) []float64 {
	var total float64
	for _, v := range importances {
		total += v
	}
	if total == 0 {
		return importances
	}
	out := make([]float64, len(importances))
	for i, v := range importances {
		out[i] = v / total
	}
	return out
}

// MSE is the mean squared error of predictions against truth.
func MSE(pred, truth []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return sum / float64(len(truth))
}

// RMSE is the root of MSE.
func RMSE(pred, truth []float64) float64 {
	return math.Sqrt(MSE(pred, truth))
}
