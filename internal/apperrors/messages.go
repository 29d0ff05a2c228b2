package apperrors

import "fmt"

// UserMessage renders a short notification for err. Backend payloads are never echoed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return "Something went wrong. Please try again."
	}

	switch appErr.Code {
	case CodeTooEarly:
		if appErr.MinutesRemaining > 0 {
			return fmt.Sprintf("This session starts in %d minute(s). You can join 5 minutes before the start.", appErr.MinutesRemaining)
		}
		return "It is too early to join this session."
	case CodeWaitTimeout:
		return "The other party did not join in time. Please try again later."
	case CodeAlreadyTerminal:
		return "This session has already ended."
	case CodeAlreadyStarted:
		return "This session has already started."
	case CodeAlreadyDecided:
		return "This request has already been answered."
	case CodeNotFound:
		return "We couldn't find that session."
	case CodeForbidden:
		return "You are not allowed to do that."
	case CodeTransportIssuanceFailed:
		return "Could not connect the call. Please try joining again."
	case CodeBackendUnavailable:
		return "Network problem. Check your connection and try again."
	case CodeInvalidRequest:
		if appErr.Reason != "" {
			return appErr.Reason
		}
		return "Please check the details and try again."
	}

	if appErr.Kind == KindTiming && appErr.Reason != "" {
		return appErr.Reason
	}
	return "Something went wrong. Please try again."
}
