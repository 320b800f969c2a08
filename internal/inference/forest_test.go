package inference

import (
	"math"
	"testing"
)

func testForest(t *testing.T) *Forest {
	t.Helper()
	f, err := loadForest("testdata/model.json")
	if err != nil {
		t.Fatalf("loadForest: %v", err)
	}
	return f
}

func highScoreVector() []float64 {
	v := make([]float64, NumFeatures)
	v[6] = 778
	return v
}

func TestForestPredictProbaAveragesTrees(t *testing.T) {
	f := testForest(t)

	proba, err := f.PredictProba(highScoreVector())
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if len(proba) != 2 {
		t.Fatalf("got %d probabilities, want 2", len(proba))
	}
	// Leaf distributions 9/10, 8/10 and 10/10 average to 0.9.
	if math.Abs(proba[0]-0.9) > 1e-9 {
		t.Errorf("approved probability = %v, want 0.9", proba[0])
	}
	sum := proba[0] + proba[1]
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestForestPredictArgmax(t *testing.T) {
	f := testForest(t)

	idx, err := f.Predict(highScoreVector())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if idx != 0 {
		t.Errorf("class index = %d, want 0", idx)
	}

	low := highScoreVector()
	low[6] = 400
	idx, err = f.Predict(low)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if idx != 1 {
		t.Errorf("class index = %d, want 1", idx)
	}
}

func TestForestRejectsWrongVectorLength(t *testing.T) {
	f := testForest(t)

	if _, err := f.PredictProba(make([]float64, NumFeatures-1)); err == nil {
		t.Error("short vector accepted")
	}
	if _, err := f.PredictProba(make([]float64, NumFeatures+1)); err == nil {
		t.Error("long vector accepted")
	}
}

func TestForestValidateCatchesMalformedTrees(t *testing.T) {
	f := testForest(t)
	f.Trees[0].Threshold = f.Trees[0].Threshold[:1]
	if err := f.validate(); err == nil {
		t.Error("mismatched node arrays accepted")
	}
}
