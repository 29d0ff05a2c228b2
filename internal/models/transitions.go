package models

var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusPending: {MeetingStatusWaiting, MeetingStatusOngoing, MeetingStatusCancelled},
	MeetingStatusWaiting: {MeetingStatusOngoing, MeetingStatusCancelled},
	MeetingStatusOngoing: {MeetingStatusCompleted},
}

func ValidTransition(from, to MeetingStatus) bool {
	allowed, ok := meetingTransitions[from]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}
