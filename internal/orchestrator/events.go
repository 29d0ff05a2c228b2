package orchestrator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/mediatransport"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

type EventType string

const (
	EventRequestCreated EventType = "request_created"
	EventRequestStatus  EventType = "request_status"
	EventRequestDecided EventType = "request_decided"
	EventRendezvous     EventType = "rendezvous"
	EventSessionStarted EventType = "session_started"
	EventPresence       EventType = "presence"
	EventSessionEnded   EventType = "session_ended"
	EventError          EventType = "error"
)

// Event is what a UI renders. Message is always safe to show to the user.
type Event struct {
	Type            EventType
	Phase           Phase
	RequestID       uuid.UUID
	MeetingID       uuid.UUID
	Status          string
	WaitingFor      *models.Role
	Presence        *mediatransport.PresenceEvent
	DurationSeconds int
	Message         string
	Err             error
}

// Subscribe returns a channel of every event published from now on.
// Slow subscribers miss events rather than stall the orchestrator.
func (o *Orchestrator) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		close(ch)
		return ch
	}
	o.subscribers = append(o.subscribers, ch)
	return ch
}

func (o *Orchestrator) publish(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if event.Phase == "" {
		event.Phase = o.phase
	}
	for _, sub := range o.subscribers {
		select {
		case sub <- event:
		default:
			o.log.Debug().Str("event", string(event.Type)).Msg("subscriber full, event dropped")
		}
	}
}

func waitingMessage(role *models.Role) string {
	if role == nil {
		return "Waiting for the other party to join."
	}
	return fmt.Sprintf("Waiting for the %s to join.", *role)
}

func presenceMessage(event mediatransport.PresenceEvent) string {
	who := "The other party"
	if event.Role.Valid() {
		who = "The " + string(event.Role)
	}
	switch event.Kind {
	case mediatransport.PresencePeerJoined:
		return who + " connected."
	case mediatransport.PresencePeerLeft:
		return who + " disconnected."
	case mediatransport.PresenceSessionReady:
		return "You are connected."
	case mediatransport.PresenceDisconnected:
		return "Connection to the call was lost."
	}
	return ""
}

func requestStatusMessage(status string) string {
	switch models.RequestStatus(status) {
	case models.RequestStatusPending:
		return "Waiting for the counsellor to respond."
	case models.RequestStatusAccepted:
		return "Your request was accepted."
	case models.RequestStatusRejected:
		return "Your request was declined."
	}
	return ""
}

func durationMessage(seconds int) string {
	return fmt.Sprintf("Session ended after %dm %02ds.", seconds/60, seconds%60)
}
