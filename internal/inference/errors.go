package inference

import "fmt"

// UnknownCategoryError reports a categorical value with no entry in its
// encoder table after trimming. It is never defaulted away: an unknown
// category means either schema drift or an input bug, and guessing a code
// would silently misclassify.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category: %q", e.Field, e.Value)
}

// InferenceError wraps a failure from the classifier call itself, such as a
// malformed feature vector or an invalid probability vector. It is fatal to
// the single request and never retried.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return "inference failed: " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// MissingArtifactError reports serialized model or encoder files that are
// absent or unreadable at load time. Callers recover by running without a
// pipeline and reporting inference as unavailable; the process never crashes
// over it.
type MissingArtifactError struct {
	Path string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Path, e.Err)
}

func (e *MissingArtifactError) Unwrap() error {
	return e.Err
}
