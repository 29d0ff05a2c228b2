package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "consultctl",
	Short: "Device client for consultation requests and meetings",
	Long: `consultctl acts as a learner or counsellor device against the consultation API.

The role is read from the access token (CONSULT_ACCESS_TOKEN).

Examples:
  # Learner
  consultctl request instant --counsellor <id> --message "Need help with algebra"
  consultctl request status <request-id>
  consultctl join <meeting-id>

  # Counsellor
  consultctl pending
  consultctl accept <request-id>

  # Local development
  consultctl token --user <id> --role learner --secret $JWT_SECRET`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(tokenCmd)

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides CONSULT_API_URL)")
	rootCmd.PersistentFlags().String("timezone", "UTC", "IANA timezone used to print times")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
