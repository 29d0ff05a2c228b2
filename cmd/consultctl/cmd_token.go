package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/utils"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development access token",
	Long: `Mint an HS256 access token signed with the server's JWT_SECRET.
For local development only; production tokens come from the auth service.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("user", "", "User id (random when empty)")
	tokenCmd.Flags().String("role", "", "learner or counsellor")
	tokenCmd.Flags().String("secret", "", "Signing secret (defaults to JWT_SECRET)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("role")
}

func runToken(cmd *cobra.Command, args []string) error {
	rawUser, _ := cmd.Flags().GetString("user")
	rawRole, _ := cmd.Flags().GetString("role")
	secret, _ := cmd.Flags().GetString("secret")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	role := models.Role(rawRole)
	if !role.Valid() {
		return fmt.Errorf("role must be learner or counsellor")
	}

	userID := uuid.New()
	if rawUser != "" {
		parsed, err := uuid.Parse(rawUser)
		if err != nil {
			return fmt.Errorf("invalid user id %q", rawUser)
		}
		userID = parsed
	}

	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("--secret or JWT_SECRET is required")
	}

	token, err := utils.GenerateAccessToken(userID, role, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "user_id=%s role=%s\n", userID, role)
	fmt.Println(token)
	return nil
}
