package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agusespa/prsentinel/internal/logger"
	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/utils"
	"github.com/agusespa/prsentinel/pkg/config"
	"github.com/agusespa/prsentinel/pkg/spinner"
	"github.com/spf13/cobra"
)

var (
	reviewDryRun  bool
	reviewJSON    bool
	reviewOutput  string
	reviewVerbose bool
)

var reviewCmd = &cobra.Command{
	Use:   "review owner/repo#number",
	Short: "Review one pull request",
	Long: `Review one pull request and publish the result, exactly as the webhook server would.
The reference may also be a pull request URL.`,
	Example: `  prsentinel review acme/web#42
  prsentinel review https://github.com/acme/web/pull/42 --dry-run --output review.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewDryRun, "dry-run", false, "review without writing to GitHub")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "print the full result as JSON")
	reviewCmd.Flags().StringVarP(&reviewOutput, "output", "o", "", "write a detailed markdown report to this file")
	reviewCmd.Flags().BoolVarP(&reviewVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ref, err := utils.ParsePullRequestRef(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(resolveConfigFile())
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if reviewVerbose {
		level = "debug"
	}
	log := logger.NewConsole(level, "prsentinel")

	ctx := cmd.Context()
	svc, cleanup, err := buildService(ctx, cfg, reviewDryRun, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// the spinner and debug logs would interleave on stderr
	var spin *spinner.Spinner
	if !reviewVerbose && !reviewJSON {
		spin = spinner.New(fmt.Sprintf("Reviewing %s", ref))
		spin.Start()
	}
	result, err := svc.ReviewPullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if spin != nil {
		spin.Stop()
	}
	if err != nil && result == nil {
		return fmt.Errorf("review of %s failed: %w", ref, err)
	}

	if reviewOutput != "" {
		detailed := report.DetailedReport(result.Review, result.Decision, result.Contents())
		if writeErr := os.WriteFile(reviewOutput, []byte(detailed), 0o644); writeErr != nil {
			return fmt.Errorf("failed to write report: %w", writeErr)
		}
	}

	out := cmd.OutOrStdout()
	if reviewJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if encodeErr := encoder.Encode(result); encodeErr != nil {
			return encodeErr
		}
	} else {
		fmt.Fprintln(out, result.Comment)
		if reviewOutput != "" {
			fmt.Fprintf(out, "Detailed report written to %s\n", reviewOutput)
		}
	}

	// delivery failed after the review itself succeeded
	if err != nil {
		return fmt.Errorf("failed to deliver review of %s: %w", ref, err)
	}
	return nil
}
