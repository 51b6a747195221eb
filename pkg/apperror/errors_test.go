package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatusCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, NewValidation("bad").Code)
	assert.Equal(t, http.StatusForbidden, NewDisallowedField().Code)
	assert.Equal(t, http.StatusUnauthorized, NewAuthFailure("no").Code)
	assert.Equal(t, http.StatusNotFound, NewNotFound("gone").Code)
	assert.Equal(t, http.StatusInternalServerError, NewInternal(errors.New("boom")).Code)
}

func TestFrom(t *testing.T) {
	t.Parallel()

	app := NewNotFound("gone")
	assert.Same(t, app, From(app))
	assert.Same(t, app, From(fmt.Errorf("lookup: %w", app)))

	wrapped := From(errors.New("pg down"))
	assert.Equal(t, http.StatusInternalServerError, wrapped.Code)
	// The raw cause never reaches the client-facing message.
	assert.NotContains(t, wrapped.Message, "pg down")
}

func TestInternalNeverLeaksInMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	app := NewInternal(cause)
	assert.ErrorIs(t, app, cause)
	assert.NotContains(t, app.Message, "10.0.0.5")
}
