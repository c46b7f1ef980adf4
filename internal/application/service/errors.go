package service

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed is the single failure surfaced for any render,
// capture or pagination error
var ErrGenerationFailed = errors.New("failed to generate PDF")

// Stage names a step of PDF generation
type Stage string

const (
	StageRender    Stage = "render"
	StageRasterize Stage = "rasterize"
	StagePaginate  Stage = "paginate"
)

// GenerationError records which stage failed. It matches ErrGenerationFailed
// with errors.Is and unwraps to the stage error.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrGenerationFailed, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrGenerationFailed
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func generationFailed(stage Stage, err error) error {
	return &GenerationError{Stage: stage, Err: err}
}
