// Package responses writes the API's JSON error envelope.
package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
)

const requestIDKey = "request_id"

// WriteError aborts the request with err mapped onto its HTTP status.
// Internal failures are logged and never echoed to the caller.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}

	status := apperrors.HTTPStatus(appErr.Kind)
	event := log.Debug()
	if status >= 500 {
		event = log.Error()
	}
	event.Err(err).
		Str("kind", string(appErr.Kind)).
		Str("code", string(appErr.Code)).
		Str("path", c.FullPath()).
		Msg("request failed")

	message := appErr.Reason
	if appErr.Kind == apperrors.KindInternal {
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, dtos.ErrorResponse{
		Error: dtos.ErrorDetail{
			Kind:             string(appErr.Kind),
			Code:             string(appErr.Code),
			Message:          message,
			MinutesRemaining: appErr.MinutesRemaining,
			RequestID:        c.GetString(requestIDKey),
		},
	})
}

// FromResponse rebuilds the typed error from an envelope received by a client.
func FromResponse(detail dtos.ErrorDetail) *apperrors.Error {
	kind := apperrors.Kind(detail.Kind)
	if kind == "" {
		kind = apperrors.KindInternal
	}
	code := apperrors.Code(detail.Code)
	if code == "" {
		code = apperrors.CodeInternal
	}
	return &apperrors.Error{
		Kind:             kind,
		Code:             code,
		Reason:           detail.Message,
		MinutesRemaining: detail.MinutesRemaining,
	}
}
