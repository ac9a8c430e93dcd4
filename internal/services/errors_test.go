package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, 0, ErrorCode(nil))
	assert.Equal(t, 503, ErrorCode(&StageError{Stage: StageCover, Err: ErrRouteScoring}))
	assert.Equal(t, 799, ErrorCode(&StageError{Stage: StageClassify, Err: errors.New("boom")}))
	assert.Equal(t, 2, ErrorCode(fmt.Errorf("wrapped: %w", ErrMatrixUnavailable)))
}

func TestStageErrorKeepsInnermostStage(t *testing.T) {
	inner := stageError(StageMatrix, ErrMatrixUnavailable)
	outer := stageError(StageEnumerate, fmt.Errorf("enumerate: %w", inner))

	var se *StageError
	assert.ErrorAs(t, outer, &se)
	assert.Equal(t, StageMatrix, se.Stage)
}

func TestRunStageRecoversPanic(t *testing.T) {
	err := runStage(context.Background(), StageCover, "orders=1", func(context.Context) error {
		panic("index out of range")
	})

	assert.ErrorIs(t, err, ErrStagePanic)
	assert.Equal(t, 504, ErrorCode(err))
	assert.Equal(t, "panic", Kind(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&StageError{Stage: StageValidate, Err: ErrInvalidInput}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrMatrixUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrStagePanic))
}
