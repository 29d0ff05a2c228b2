package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := TooEarly(10)
	wrapped := fmt.Errorf("join: %w", base)

	assert.Equal(t, KindTiming, KindOf(wrapped))
	assert.Equal(t, CodeTooEarly, CodeOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindAuthorization: http.StatusForbidden,
		KindNotFound:      http.StatusNotFound,
		KindTiming:        http.StatusUnprocessableEntity,
		KindConflict:      http.StatusConflict,
		KindTransport:     http.StatusBadGateway,
		KindNetwork:       http.StatusServiceUnavailable,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}

func TestUserMessageHidesPayload(t *testing.T) {
	err := Internal(errors.New(`pq: relation "meetings" does not exist`))
	assert.NotContains(t, UserMessage(err), "pq")
	assert.Contains(t, UserMessage(TooEarly(7)), "7 minute")
	assert.Equal(t, "This session has already ended.", UserMessage(AlreadyTerminal("already completed")))
	assert.Equal(t, "This session has already started.", UserMessage(AlreadyStarted()))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindOf(AlreadyStarted())))
}
