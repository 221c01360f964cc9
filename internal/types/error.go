package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure
type ErrorKind string

const (
	KindFilesystem ErrorKind = "filesystem"
	KindEngine     ErrorKind = "engine"
	KindStorage    ErrorKind = "storage"
	KindExport     ErrorKind = "export"
)

// Stage names a step of a variant's pipeline
type Stage string

const (
	StageClearing   Stage = "clearing"
	StageOpening    Stage = "opening"
	StageCreating   Stage = "creating"
	StageSeeding    Stage = "seeding"
	StageExtracting Stage = "extracting"
	StageEmitting   Stage = "emitting"
	StageClosing    Stage = "closing"
)

// ErrDropFixedPoint is reported when a round of table drops makes no progress
var ErrDropFixedPoint = errors.New("drop tables: no progress")

// ErrEmptyDump is reported when the storage export produced no text
var ErrEmptyDump = errors.New("dump produced no output")

// PipelineError records where a variant's pipeline stopped
type PipelineError struct {
	Variant Variant   `json:"variant"`
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Err     error     `json:"-"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s failed [type: %s]: %v", e.Variant, e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps err, or returns nil when err is nil
func NewPipelineError(v Variant, stage Stage, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Variant: v, Stage: stage, Kind: kind, Err: err}
}
