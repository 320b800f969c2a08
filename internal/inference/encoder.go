package inference

import (
	"fmt"
	"strings"
)

// Encoder maps a categorical field's string values to the integer codes the
// model was trained on. Codes are the value's position in the fitted class
// list, matching scikit-learn's LabelEncoder convention of lexicographically
// sorted classes.
type Encoder struct {
	field   string
	classes []string
	codes   map[string]int
}

// NewEncoder builds an encoder for field from its fitted class list. The
// list order defines the codes and is preserved as-is.
func NewEncoder(field string, classes []string) *Encoder {
	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &Encoder{field: field, classes: classes, codes: codes}
}

// Transform returns the integer code for value, trimming surrounding
// whitespace before the lookup. A value outside the fitted classes yields an
// UnknownCategoryError; there is no fallback code.
func (e *Encoder) Transform(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	code, ok := e.codes[trimmed]
	if !ok {
		return 0, &UnknownCategoryError{Field: e.field, Value: trimmed}
	}
	return code, nil
}

// InverseTransform returns the class value for code.
func (e *Encoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%s code out of range: %d", e.field, code)
	}
	return e.classes[code], nil
}

// Classes returns the fitted class list in code order.
func (e *Encoder) Classes() []string {
	return e.classes
}

// TargetDecoder turns a predicted class index into a human-readable decision
// label. Two strategies exist depending on what the artifact set carries: a
// fitted target encoder table, or the classifier's own class labels.
type TargetDecoder interface {
	DecodeLabel(classIdx int) (string, error)
	ClassLabels() []string
}

// LabelTable decodes predicted classes through a fitted target-encoder
// table, the same table used to encode the training labels.
type LabelTable struct {
	enc *Encoder
}

// NewLabelTable builds a LabelTable from the target field's fitted classes.
func NewLabelTable(classes []string) *LabelTable {
	return &LabelTable{enc: NewEncoder("loan_status", classes)}
}

func (t *LabelTable) DecodeLabel(classIdx int) (string, error) {
	return t.enc.InverseTransform(classIdx)
}

func (t *LabelTable) ClassLabels() []string {
	return t.enc.Classes()
}

// ClassList decodes predicted classes through the classifier's own ordered
// class labels, used when the artifact set carries no separate target table.
type ClassList struct {
	labels []string
}

// NewClassList builds a ClassList from the classifier's class labels.
func NewClassList(labels []string) *ClassList {
	return &ClassList{labels: labels}
}

func (c *ClassList) DecodeLabel(classIdx int) (string, error) {
	if classIdx < 0 || classIdx >= len(c.labels) {
		return "", fmt.Errorf("class index out of range: %d", classIdx)
	}
	return c.labels[classIdx], nil
}

func (c *ClassList) ClassLabels() []string {
	return c.labels
}

var (
	_ TargetDecoder = (*LabelTable)(nil)
	_ TargetDecoder = (*ClassList)(nil)
)
