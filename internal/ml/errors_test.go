package ml

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk on fire")

	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"invalid argument", newError(ErrInvalidArgument, "bad", nil), ErrInvalidArgument},
		{"validation", newError(ErrValidation, "bad", nil), ErrValidation},
		{"not found", newError(ErrNotFound, "missing", nil), ErrNotFound},
		{"load failure with cause", newError(ErrLoadFailure, "load", cause), ErrLoadFailure},
		{"wrapped twice", fmt.Errorf("outer: %w", newError(ErrInference, "infer", cause)), ErrInference},
		{"foreign error", cause, nil},
		{"nil", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, KindOf(tc.err))
		})
	}
}

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := newError(ErrLoadFailure, "Failed to load model from datasets/heart_model.json", cause)

	assert.Equal(t, "Failed to load model from datasets/heart_model.json: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)

	var target *Error
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &target))
	assert.Equal(t, "Failed to load model from datasets/heart_model.json", target.Msg)

	bare := newError(ErrNotFound, "Model file not found", nil)
	assert.Equal(t, "Model file not found", bare.Error())
}
