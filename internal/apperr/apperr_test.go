package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForKnownKinds(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(Validation("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(Authentication("who")))
	assert.Equal(t, http.StatusForbidden, StatusFor(Authorization("no")))
	assert.Equal(t, http.StatusNotFound, StatusFor(NotFound("gone")))
	assert.Equal(t, http.StatusBadGateway, StatusFor(Dependency("down", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(Internal("boom", nil)))
}

func TestStatusForUnclassified(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("raw")))
}

func TestMessageForMasksUnclassified(t *testing.T) {
	assert.Equal(t, "bad input", MessageFor(Validation("bad input")))
	assert.Equal(t, "something went wrong", MessageFor(errors.New("mongo: connection reset")))
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("gone"))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))
}

func TestErrorKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Dependency("storage unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable", MessageFor(err))
	assert.Contains(t, err.Error(), "dial tcp")
}
