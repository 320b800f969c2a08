package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside the model directory.
const (
	modelFile    = "model.json"
	encodersFile = "encoders.json"
)

// encoderArtifact is the on-disk encoder set: each categorical field mapped
// to its fitted class list in code order. A "loan_status" entry, when
// present, is the target encoder's table.
type encoderArtifact map[string][]string

// Artifacts holds everything loaded from the model directory, ready to be
// assembled into a Pipeline.
type Artifacts struct {
	Forest       *Forest
	Education    *Encoder
	SelfEmployed *Encoder
	Decoder      TargetDecoder
}

// LoadArtifacts reads and validates the serialized model and encoders from
// dir. Any missing or unreadable file surfaces as a MissingArtifactError so
// callers can degrade to an unavailable pipeline instead of crashing.
func LoadArtifacts(dir string) (*Artifacts, error) {
	modelPath := filepath.Join(dir, modelFile)
	forest, err := loadForest(modelPath)
	if err != nil {
		return nil, err
	}

	encodersPath := filepath.Join(dir, encodersFile)
	enc, err := loadEncoders(encodersPath)
	if err != nil {
		return nil, err
	}

	eduClasses, ok := enc["education"]
	if !ok || len(eduClasses) == 0 {
		return nil, &MissingArtifactError{Path: encodersPath, Err: fmt.Errorf("no education encoder")}
	}
	seClasses, ok := enc["self_employed"]
	if !ok || len(seClasses) == 0 {
		return nil, &MissingArtifactError{Path: encodersPath, Err: fmt.Errorf("no self_employed encoder")}
	}

	// Prefer the fitted target table when the artifact set carries one;
	// otherwise fall back to the classifier's own class labels.
	var decoder TargetDecoder
	if statusClasses, ok := enc["loan_status"]; ok && len(statusClasses) > 0 {
		if len(statusClasses) != len(forest.ClassLabels) {
			return nil, &MissingArtifactError{
				Path: encodersPath,
				Err:  fmt.Errorf("loan_status table has %d classes, model has %d", len(statusClasses), len(forest.ClassLabels)),
			}
		}
		decoder = NewLabelTable(statusClasses)
	} else {
		decoder = NewClassList(forest.ClassLabels)
	}

	return &Artifacts{
		Forest:       forest,
		Education:    NewEncoder("education", eduClasses),
		SelfEmployed: NewEncoder("self_employed", seClasses),
		Decoder:      decoder,
	}, nil
}

func loadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingArtifactError{Path: path, Err: err}
	}
	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, &MissingArtifactError{Path: path, Err: err}
	}
	if err := forest.validate(); err != nil {
		return nil, &MissingArtifactError{Path: path, Err: err}
	}
	if forest.FeatureCount != NumFeatures {
		return nil, &MissingArtifactError{
			Path: path,
			Err:  fmt.Errorf("model expects %d features, schema has %d", forest.FeatureCount, NumFeatures),
		}
	}
	return &forest, nil
}

func loadEncoders(path string) (encoderArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingArtifactError{Path: path, Err: err}
	}
	var enc encoderArtifact
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, &MissingArtifactError{Path: path, Err: err}
	}
	return enc, nil
}
