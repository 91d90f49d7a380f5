package mlearn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// DefaultSeed is the fixed seed used when the caller does not supply one,
// making train_and_predict reproducible end to end.
const DefaultSeed int64 = 42

// TestFraction is the share of samples held out for evaluation. The split is
// chronological with no shuffling: the test set is always the most recent
// periods.
const TestFraction = 0.2

// Estimator is a trainable regression model.
type Estimator interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
	// Importances returns normalized per-feature split gains.
	Importances() []float64
}

// DefaultRoster returns the candidate estimators in their fixed evaluation
// order. Order matters: ties in test MSE are broken by roster position
// (first minimum wins).
func DefaultRoster(seed int64) []Estimator {
	return []Estimator{
		NewRandomForest(seed),
		NewGradientBoosting(seed),
	}
}

// SplitChrono splits the supervised set chronologically, holding out the
// most recent fraction as the test set. At least one sample always lands in
// each side when n >= 2.
func SplitChrono(X [][]float64, y []float64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(X)
	nTest := int(float64(n) * TestFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	cut := n - nTest
	return X[:cut], y[:cut], X[cut:], y[cut:]
}

// Selection is the outcome of the multi-model training loop.
type Selection struct {
	Best     Estimator
	BestName string
	Scores   map[string]types.ModelScore
}

// SelectBest fits every roster estimator on the identical training split in
// parallel, evaluates each on the held-out split by MSE, and returns the
// winner. RMSE is recorded for every candidate, not just the winner, so the
// comparison table can be surfaced to callers.
func SelectBest(ctx context.Context, roster []Estimator, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, logger *slog.Logger) (*Selection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("selector: empty roster")
	}

	mses := make([]float64, len(roster))
	g, ctx := errgroup.WithContext(ctx)
	for i, est := range roster {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := est.Fit(trainX, trainY); err != nil {
				return fmt.Errorf("fitting %s: %w", est.Name(), err)
			}
			pred := make([]float64, len(testX))
			for j, x := range testX {
				pred[j] = est.Predict(x)
			}
			mses[i] = MSE(pred, testY)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Winner scan runs in roster order so ties resolve deterministically.
	sel := &Selection{Scores: make(map[string]types.ModelScore, len(roster))}
	bestIdx := 0
	for i, est := range roster {
		sel.Scores[est.Name()] = types.ModelScore{MSE: mses[i], RMSE: math.Sqrt(mses[i])}
		if mses[i] < mses[bestIdx] {
			bestIdx = i
		}
	}
	sel.Best = roster[bestIdx]
	sel.BestName = roster[bestIdx].Name()

	logger.Info("model selection complete",
		"winner", sel.BestName,
		"test_mse", mses[bestIdx],
		"candidates", len(roster),
	)
	return sel, nil
}

// serializedModel is the stable on-disk wrapper around a fitted estimator.
type serializedModel struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalEstimator serializes a fitted estimator with its family name so it
// can be revived later without knowing the concrete type up front.
func MarshalEstimator(e Estimator) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", e.Name(), err)
	}
	return json.Marshal(serializedModel{Name: e.Name(), Payload: payload})
}

// UnmarshalEstimator revives a serialized estimator.
func UnmarshalEstimator(data []byte) (Estimator, error) {
	var sm serializedModel
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("unmarshaling model wrapper: %w", err)
	}
	var est Estimator
	switch sm.Name {
	case RandomForestName:
		est = &RandomForest{}
	case GradientBoostingName:
		est = &GradientBoosting{}
	default:
		return nil, fmt.Errorf("unknown model family %q", sm.Name)
	}
	if err := json.Unmarshal(sm.Payload, est); err != nil {
		return nil, fmt.Errorf("unmarshaling %s payload: %w", sm.Name, err)
	}
	return est, nil
}
