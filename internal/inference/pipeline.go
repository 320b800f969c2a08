package inference

import (
	"fmt"
	"math"
	"strings"
)

// Result is the outcome of a single evaluation. Confidence is the highest
// per-class probability; Probabilities maps each trimmed class label to its
// probability.
type Result struct {
	Status        string
	Confidence    float64
	Probabilities map[string]float64
	ModelVersion  string
}

// Pipeline runs the full evaluation for one applicant: normalize the
// profile, encode categoricals into the numeric feature vector, and score it
// with the classifier. A Pipeline is immutable after construction and safe
// for concurrent use.
type Pipeline struct {
	classifier   Classifier
	education    *Encoder
	selfEmployed *Encoder
	decoder      TargetDecoder
	version      string
}

// NewPipeline assembles a pipeline from its parts. All dependencies are
// required.
func NewPipeline(classifier Classifier, education, selfEmployed *Encoder, decoder TargetDecoder, version string) (*Pipeline, error) {
	if classifier == nil {
		return nil, fmt.Errorf("pipeline needs a classifier")
	}
	if education == nil || selfEmployed == nil {
		return nil, fmt.Errorf("pipeline needs both categorical encoders")
	}
	if decoder == nil {
		return nil, fmt.Errorf("pipeline needs a target decoder")
	}
	if classifier.NumFeatures() != NumFeatures {
		return nil, fmt.Errorf("classifier expects %d features, schema has %d", classifier.NumFeatures(), NumFeatures)
	}
	return &Pipeline{
		classifier:   classifier,
		education:    education,
		selfEmployed: selfEmployed,
		decoder:      decoder,
		version:      version,
	}, nil
}

// NewPipelineFromArtifacts assembles a pipeline from a loaded artifact set.
func NewPipelineFromArtifacts(a *Artifacts) (*Pipeline, error) {
	return NewPipeline(a.Forest, a.Education, a.SelfEmployed, a.Decoder, a.Forest.Version)
}

// ModelVersion identifies the loaded model artifact.
func (p *Pipeline) ModelVersion() string {
	return p.version
}

// Encode turns a normalized profile into the model's feature vector, in
// training column order. Categorical fields go through their encoders; an
// unfitted value surfaces as an UnknownCategoryError.
func (p *Pipeline) Encode(profile Profile) ([]float64, error) {
	eduCode, err := p.education.Transform(profile.Education)
	if err != nil {
		return nil, err
	}
	seCode, err := p.selfEmployed.Transform(profile.SelfEmployed)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(profile.Dependents),
		float64(eduCode),
		float64(seCode),
		profile.AnnualIncome,
		profile.LoanAmount,
		profile.LoanTermYears,
		profile.CreditScore,
		profile.ResidentialAssets,
		profile.CommercialAssets,
		profile.LuxuryAssets,
		profile.BankAssets,
	}, nil
}

// Infer scores a feature vector and decodes the winning class. The
// probability vector is validated before use; any classifier failure is
// wrapped in an InferenceError with the cause preserved.
func (p *Pipeline) Infer(features []float64) (*Result, error) {
	proba, err := p.classifier.PredictProba(features)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	if err := validateProba(proba); err != nil {
		return nil, &InferenceError{Err: err}
	}

	best := 0
	for ci := 1; ci < len(proba); ci++ {
		if proba[ci] > proba[best] {
			best = ci
		}
	}

	label, err := p.decoder.DecodeLabel(best)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	labels := p.decoder.ClassLabels()
	if len(labels) != len(proba) {
		return nil, &InferenceError{Err: fmt.Errorf("classifier returned %d probabilities for %d classes", len(proba), len(labels))}
	}
	probabilities := make(map[string]float64, len(proba))
	for ci, pr := range proba {
		classLabel, err := p.decoder.DecodeLabel(ci)
		if err != nil {
			return nil, &InferenceError{Err: err}
		}
		probabilities[strings.TrimSpace(classLabel)] = pr
	}

	return &Result{
		Status:        strings.TrimSpace(label),
		Confidence:    proba[best],
		Probabilities: probabilities,
		ModelVersion:  p.version,
	}, nil
}

// Evaluate runs the full normalize, encode, infer sequence for one profile.
func (p *Pipeline) Evaluate(profile Profile) (*Result, error) {
	features, err := p.Encode(profile.Normalized())
	if err != nil {
		return nil, err
	}
	return p.Infer(features)
}

func validateProba(proba []float64) error {
	if len(proba) == 0 {
		return fmt.Errorf("classifier returned an empty probability vector")
	}
	for ci, pr := range proba {
		if math.IsNaN(pr) {
			return fmt.Errorf("probability for class %d is NaN", ci)
		}
		if pr < 0 || pr > 1 {
			return fmt.Errorf("probability for class %d out of range: %f", ci, pr)
		}
	}
	return nil
}
