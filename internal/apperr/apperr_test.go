package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		Validation(MsgInvalidInput):  http.StatusBadRequest,
		Auth(MsgInvalidToken):        http.StatusUnauthorized,
		Forbidden(MsgAccessDenied):   http.StatusForbidden,
		NotFound(MsgRequestNotFound): http.StatusNotFound,
		RateLimited():                http.StatusTooManyRequests,
		Internal(errors.New("boom")): http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Status(), e.MessageID)
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	got := From(cause)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, cause)

	wrapped := fmt.Errorf("create: %w", NotFound(MsgUserNotFound))
	assert.Equal(t, KindNotFound, From(wrapped).Kind)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(cause, KindNotFound))
}
