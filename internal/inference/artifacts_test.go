package inference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadArtifacts(t *testing.T) {
	arts, err := LoadArtifacts("testdata")
	if err != nil {
		t.Fatalf("LoadArtifacts: %v", err)
	}
	if arts.Forest == nil || arts.Education == nil || arts.SelfEmployed == nil {
		t.Fatal("artifact set incomplete")
	}
	if _, ok := arts.Decoder.(*LabelTable); !ok {
		t.Errorf("decoder is %T, want LabelTable when loan_status table is present", arts.Decoder)
	}
}

func TestLoadArtifactsMissingDirectory(t *testing.T) {
	_, err := LoadArtifacts("testdata/does-not-exist")
	var missing *MissingArtifactError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingArtifactError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestLoadArtifactsWithoutTargetTable(t *testing.T) {
	dir := t.TempDir()
	model, err := os.ReadFile("testdata/model.json")
	if err != nil {
		t.Fatalf("read model fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model.json"), model, 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	encoders := []byte(`{"education": ["Graduate", "Not Graduate"], "self_employed": ["No", "Yes"]}`)
	if err := os.WriteFile(filepath.Join(dir, "encoders.json"), encoders, 0o644); err != nil {
		t.Fatalf("write encoders: %v", err)
	}

	arts, err := LoadArtifacts(dir)
	if err != nil {
		t.Fatalf("LoadArtifacts: %v", err)
	}
	if _, ok := arts.Decoder.(*ClassList); !ok {
		t.Errorf("decoder is %T, want ClassList when no loan_status table exists", arts.Decoder)
	}
	label, err := arts.Decoder.DecodeLabel(0)
	if err != nil {
		t.Fatalf("DecodeLabel: %v", err)
	}
	if label != " Approved" {
		t.Errorf("label = %q", label)
	}
}

func TestLoadArtifactsCorruptModel(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	_, err := LoadArtifacts(dir)
	var missing *MissingArtifactError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingArtifactError", err)
	}
}
