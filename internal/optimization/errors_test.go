package optimization

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessagesCarryParamAndConstraint(t *testing.T) {
	err := NewValueError("bout_size", "should be between 0 and 1, got %v", 1.5)
	assert.Contains(t, err.Error(), "bout_size")
	assert.Contains(t, err.Error(), "between 0 and 1")

	err = NewTypeError("objective", "should be a callable, got nil")
	assert.Contains(t, err.Error(), "objective")
	assert.Contains(t, err.Error(), "invalid type")
}

func TestErrorKindPredicates(t *testing.T) {
	assert.True(t, IsValueError(NewValueError("x", "bad")))
	assert.False(t, IsTypeError(NewValueError("x", "bad")))
	assert.True(t, IsTypeError(NewTypeError("x", "bad")))
	assert.False(t, IsValueError(errors.New("plain")))
}

func TestWrapError(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := WrapError(cause, "evaluating agent %d", 3)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "evaluating agent 3")

	assert.Nil(t, WrapError(nil, "ignored"))
}
