package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("backend exploded")
	err := Wrap(cause, ErrSolverFailure.Code, ErrSolverFailure.Status, ErrSolverFailure.Message)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "backend exploded")
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
}

func TestFromErrorNormalisesUnknown(t *testing.T) {
	e := FromError(fmt.Errorf("boom"))
	require.NotNil(t, e)
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrNoCandidates)
	e := FromError(wrapped)
	require.NotNil(t, e)
	assert.Equal(t, "EMPTY_CANDIDATE_SET", e.Code)
}

func TestCloneOverridesMessage(t *testing.T) {
	c := Clone(ErrSolverFailure, "no solution found; solver said: UNSAT")
	require.NotNil(t, c)
	assert.Equal(t, ErrSolverFailure.Code, c.Code)
	assert.Equal(t, "no solution found; solver said: UNSAT", c.Message)
	// the original stays untouched
	assert.NotEqual(t, c.Message, ErrSolverFailure.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	c := Clone(ErrNoCandidates, "different wording")
	assert.True(t, Is(c, ErrNoCandidates))
	assert.False(t, Is(c, ErrSolverFailure))
	assert.False(t, Is(nil, ErrSolverFailure))
}
