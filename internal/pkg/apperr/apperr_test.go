package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTooLarge = errors.New("too large")

func TestAsValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("create course: %w", NewValidation("category", "Category not found"))

	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Category not found", verr.Fields["category"])
}

func TestAsValidation_Joined(t *testing.T) {
	err := errors.Join(errTooLarge, NewValidation("image", "Image file is too large"))

	_, ok := AsValidation(err)
	assert.True(t, ok)
	assert.ErrorIs(t, err, errTooLarge)
}

func TestValidationError_StableMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
}
