package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create and inspect consultation requests (learner)",
}

var requestInstantCmd = &cobra.Command{
	Use:   "instant",
	Short: "Ask a counsellor for a session right now",
	RunE:  runRequestInstant,
}

var requestScheduledCmd = &cobra.Command{
	Use:   "scheduled",
	Short: "Ask a counsellor for a session at a given time",
	RunE:  runRequestScheduled,
}

var requestStatusCmd = &cobra.Command{
	Use:   "status [request-id]",
	Short: "Fetch the current status of a request once",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestStatus,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List requests waiting for your answer (counsellor)",
	RunE:  runPending,
}

func init() {
	requestCmd.AddCommand(requestInstantCmd)
	requestCmd.AddCommand(requestScheduledCmd)
	requestCmd.AddCommand(requestStatusCmd)

	for _, cmd := range []*cobra.Command{requestInstantCmd, requestScheduledCmd} {
		cmd.Flags().String("counsellor", "", "Counsellor user id")
		cmd.Flags().StringP("message", "m", "", "What you need help with")
		_ = cmd.MarkFlagRequired("counsellor")
	}
	requestScheduledCmd.Flags().String("at", "", "Start time, RFC3339 (e.g. 2026-10-20T15:00:00+05:30)")
}

func requestFlags(cmd *cobra.Command) (uuid.UUID, string, error) {
	raw, _ := cmd.Flags().GetString("counsellor")
	message, _ := cmd.Flags().GetString("message")
	counsellorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid counsellor id %q", raw)
	}
	return counsellorID, message, nil
}

func runRequestInstant(cmd *cobra.Command, args []string) error {
	counsellorID, message, err := requestFlags(cmd)
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
	resp, err := s.orch.StartInstantRequest(ctx, counsellorID, message)
	if err != nil {
		return userError(err)
	}
	s.printRequest(*resp)
	return nil
}

func runRequestScheduled(cmd *cobra.Command, args []string) error {
	counsellorID, message, err := requestFlags(cmd)
	if err != nil {
		return err
	}

	var at time.Time
	if raw, _ := cmd.Flags().GetString("at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --at, expected RFC3339: %w", err)
		}
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	resp, err := s.orch.StartScheduledRequest(ctx, counsellorID, at, message)
	if err != nil {
		return userError(err)
	}
	s.printRequest(*resp)
	return nil
}

func runRequestStatus(cmd *cobra.Command, args []string) error {
	requestID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid request id %q", args[0])
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	resp, err := s.orch.CheckRequest(ctx, requestID)
	if err != nil {
		return userError(err)
	}
	s.printRequest(*resp)
	if resp.MeetingID != nil {
		fmt.Printf("Join with: consultctl join %s\n", resp.MeetingID)
	}
	return nil
}

func runPending(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.requestContext()
	defer cancel()
	pending, err := s.orch.PendingRequests(ctx)
	if err != nil {
		return userError(err)
	}
	if len(pending) == 0 {
		fmt.Println("No pending requests.")
		return nil
	}
	for _, req := range pending {
		s.printRequest(req)
	}
	return nil
}

func (s *session) printRequest(req dtos.RequestResponse) {
	fmt.Printf("%-36s  %-9s  %-8s  %s\n", req.ID, req.Kind, req.Status, s.formatTime(req.ScheduledAt))
	if req.Message != "" {
		fmt.Printf("  %s\n", req.Message)
	}
}
