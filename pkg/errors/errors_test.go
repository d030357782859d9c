package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	typed := Clone(ErrConflict, "lesson conflict")
	wrapped := Wrap(typed, ErrConflict.Code, ErrConflict.Status, "outer")

	got := FromError(wrapped)
	assert.Equal(t, "CONFLICT", got.Code)
	assert.Equal(t, "outer", got.Message)
	assert.True(t, stdErrors.Is(got, typed))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, "internal server error: boom", got.Error())
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	withDetails := WithDetails(ErrConflict, map[string]string{"type": "PROFESSOR"})
	assert.NotNil(t, withDetails.Details)
	assert.Nil(t, ErrConflict.Details)
}
