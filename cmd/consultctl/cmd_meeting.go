package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/preetsinghmakkar/OpenConsult/internal/orchestrator"
	"github.com/preetsinghmakkar/OpenConsult/internal/rendezvous"
)

var errNotLive = errors.New("session did not start")

var acceptCmd = &cobra.Command{
	Use:   "accept [request-id]",
	Short: "Accept a request and wait in the meeting (counsellor)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccept,
}

var rejectCmd = &cobra.Command{
	Use:   "reject [request-id]",
	Short: "Decline a request (counsellor)",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var joinCmd = &cobra.Command{
	Use:   "join [meeting-id]",
	Short: "Join a meeting and wait for the other party",
	Long: `Join a meeting and wait until the other party is present, then connect
to the media channel. Press Ctrl+C to leave; while still waiting this ends the
meeting unless CONSULT_END_ON_ABANDON=false.`,
	Args: cobra.ExactArgs(1),
	RunE: runJoin,
}

var statusCmd = &cobra.Command{
	Use:   "status [meeting-id]",
	Short: "Show who has joined a meeting",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var endCmd = &cobra.Command{
	Use:   "end [meeting-id]",
	Short: "End a meeting",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnd,
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

func runAccept(cmd *cobra.Command, args []string) error {
	requestID, err := parseID("request", args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printEvents()

	ctx, stop := interruptContext()
	defer stop()

	meetingID, updates, err := s.orch.RespondToRequest(ctx, requestID, orchestrator.DecisionAccept)
	if err != nil {
		return errNotLive
	}
	fmt.Printf("Meeting %s created.\n", meetingID)
	return s.stayInSession(ctx, meetingID, updates)
}

func runReject(cmd *cobra.Command, args []string) error {
	requestID, err := parseID("request", args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	if _, _, err := s.orch.RespondToRequest(ctx, requestID, orchestrator.DecisionReject); err != nil {
		return userError(err)
	}
	fmt.Println("Request declined.")
	return nil
}

func runJoin(cmd *cobra.Command, args []string) error {
	meetingID, err := parseID("meeting", args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printEvents()

	ctx, stop := interruptContext()
	defer stop()

	updates, err := s.orch.BeginRendezvous(ctx, meetingID)
	if err != nil {
		return errNotLive
	}
	return s.stayInSession(ctx, meetingID, updates)
}

// stayInSession waits for the rendezvous to finish and, once live, keeps the
// call open until interrupted, then ends the meeting.
func (s *session) stayInSession(ctx context.Context, meetingID uuid.UUID, updates <-chan rendezvous.Update) error {
	var final rendezvous.Update
	for u := range updates {
		final = u
	}

	if final.State != rendezvous.StateReady {
		if errors.Is(final.Err, context.Canceled) {
			return nil
		}
		return errNotLive
	}

	fmt.Println("In session. Press Ctrl+C to end it.")
	<-ctx.Done()

	endCtx, cancel := s.requestContext()
	defer cancel()
	if _, err := s.orch.EndSession(endCtx, meetingID); err != nil {
		return errors.New("could not end the session")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	meetingID, err := parseID("meeting", args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	meeting, err := s.api.GetMeeting(ctx, meetingID)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Meeting:    %s\n", meeting.ID)
	fmt.Printf("Status:     %s\n", meeting.Status)
	fmt.Printf("Scheduled:  %s\n", s.formatTime(meeting.ScheduledAt))
	fmt.Printf("Learner:    joined=%t\n", meeting.LearnerJoined)
	fmt.Printf("Counsellor: joined=%t\n", meeting.CounsellorJoined)
	if meeting.EndedAt != nil {
		fmt.Printf("Ended:      %s (%ds)\n", s.formatTime(meeting.EndedAt), meeting.DurationSeconds)
	}
	if meeting.CancelReason != "" {
		fmt.Printf("Reason:     %s\n", meeting.CancelReason)
	}
	return nil
}

func runEnd(cmd *cobra.Command, args []string) error {
	meetingID, err := parseID("meeting", args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	resp, err := s.orch.EndSession(ctx, meetingID)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Meeting %s is %s after %ds.\n", resp.MeetingID, resp.Status, resp.DurationSeconds)
	return nil
}
