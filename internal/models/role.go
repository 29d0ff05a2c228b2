package models

// Role is the side a participant plays in a consultation.
type Role string

const (
	RoleLearner    Role = "learner"
	RoleCounsellor Role = "counsellor"
)

func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleCounsellor
}

// Peer returns the other side of the meeting.
func (r Role) Peer() Role {
	if r == RoleLearner {
		return RoleCounsellor
	}
	return RoleLearner
}
