package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMatrixUnavailable = errors.New("distance matrix unavailable")
	ErrRouteScoring      = errors.New("route scoring failed")
	ErrStagePanic        = errors.New("stage panicked")
)

// Stage identifies a step of the dispatch pipeline in error codes and logs.
type Stage int

const (
	StageValidate Stage = iota + 1
	StageEligibility
	StageMatrix
	StageEnumerate
	StageCover
	StageTierSplit
	StageClassify
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageEligibility:
		return "eligibility"
	case StageMatrix:
		return "matrix"
	case StageEnumerate:
		return "enumerate"
	case StageCover:
		return "cover"
	case StageTierSplit:
		return "tier_split"
	case StageClassify:
		return "classify"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError is a pipeline failure tagged with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Code is the composite status code: stage*100 + kind.
func (e *StageError) Code() int { return int(e.Stage)*100 + kindCode(e.Err) }

func stageError(stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// ErrorCode returns 0 for nil and a non-zero stage-specific code otherwise.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Code()
	}
	return kindCode(err)
}

func kindCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return 1
	case errors.Is(err, ErrMatrixUnavailable):
		return 2
	case errors.Is(err, ErrRouteScoring):
		return 3
	case errors.Is(err, ErrStagePanic):
		return 4
	case errors.Is(err, context.DeadlineExceeded):
		return 5
	case errors.Is(err, context.Canceled):
		return 6
	default:
		return 99
	}
}

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"

	case errors.Is(err, ErrMatrixUnavailable):
		return "matrix_unavailable"

	case errors.Is(err, ErrRouteScoring):
		return "route_scoring"

	case errors.Is(err, ErrStagePanic):
		return "panic"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, ErrMatrixUnavailable):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
