package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageExtract    Stage = "extract"
	StageExplain    Stage = "explain"
	StageSynthesize Stage = "synthesize"
	StageProbe      Stage = "probe"
	StageCompose    Stage = "compose"
)

// ErrNoText is returned when a PDF has no extractable text layer.
var ErrNoText = errors.New("no extractable text in PDF")

// StageError reports which step and which backing provider failed.
//
// errors.Is matches any *StageError with the same Stage, so callers can test
// against the exported sentinels:
//
//	if errors.Is(err, pipeline.ErrExplain) { ... }
type StageError struct {
	Stage    Stage
	Provider string
	Err      error
}

// Sentinels for errors.Is.
var (
	ErrValidate   = &StageError{Stage: StageValidate}
	ErrExtract    = &StageError{Stage: StageExtract}
	ErrExplain    = &StageError{Stage: StageExplain}
	ErrSynthesize = &StageError{Stage: StageSynthesize}
	ErrProbe      = &StageError{Stage: StageProbe}
	ErrCompose    = &StageError{Stage: StageCompose}
)

func (e *StageError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Provider, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	return ok && t.Stage == e.Stage
}

func stageError(stage Stage, provider string, err error) *StageError {
	return &StageError{Stage: stage, Provider: provider, Err: err}
}
