package models

import "errors"

var (
	ErrMeetingTerminal   = errors.New("meeting already terminal")
	ErrInvalidTransition = errors.New("invalid meeting transition")
	ErrRequestDecided    = errors.New("request already decided")
	ErrInvalidRole       = errors.New("invalid role")
	ErrNotParticipant    = errors.New("user is not a participant")
)
