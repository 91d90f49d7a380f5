package mlearn

import (
	"fmt"
	"math/rand"
)

// RandomForestName identifies the bagging ensemble in model metadata and
// comparison tables.
const RandomForestName = "random_forest"

// RandomForest is a seeded bootstrap-aggregated ensemble of regression trees.
// Lower variance than a single tree, higher bias than boosting.
type RandomForest struct {
	NumTrees    int         `json:"num_trees"`
	MaxDepth    int         `json:"max_depth"`
	MinLeaf     int         `json:"min_leaf"`
	FeatSubset  int         `json:"feature_subset"`
	Seed        int64       `json:"seed"`
	NumFeatures int         `json:"num_features"`
	Trees       []*TreeNode `json:"trees,omitempty"`
	Gains       []float64   `json:"gains,omitempty"`
}

// NewRandomForest returns a forest with the pipeline's standard
// hyperparameters and the given seed.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{
		NumTrees:   60,
		MaxDepth:   6,
		MinLeaf:    2,
		FeatSubset: 2,
		Seed:       seed,
	}
}

// Name implements Estimator.
func (f *RandomForest) Name() string { return RandomForestName }

// Fit trains the forest. Each tree draws its bootstrap sample and feature
// subsets from its own generator seeded from the forest seed, so refitting
// with identical inputs reproduces the same trees.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("random forest: need matching non-empty X/y, got %d/%d", len(X), len(y))
	}
	f.NumFeatures = len(X[0])
	f.Trees = make([]*TreeNode, 0, f.NumTrees)
	f.Gains = make([]float64, f.NumFeatures)

	n := len(X)
	for t := 0; t < f.NumTrees; t++ {
		rng := rand.New(rand.NewSource(f.Seed + int64(t)*9973))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		p := treeParams{
			maxDepth:    f.MaxDepth,
			minLeaf:     f.MinLeaf,
			featSubset:  f.FeatSubset,
			rng:         rng,
			numFeatures: f.NumFeatures,
		}
		f.Trees = append(f.Trees, buildTree(X, y, idx, 0, p, f.Gains))
	}
	return nil
}

// Predict averages the tree predictions.
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Importances returns the normalized per-feature split-gain totals.
func (f *RandomForest) Importances() []float64 {
	return normalize(f.Gains)
}
