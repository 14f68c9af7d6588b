package main

import (
	"github.com/agusespa/prsentinel/internal/logger"
	"github.com/agusespa/prsentinel/internal/server"
	"github.com/agusespa/prsentinel/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Run the webhook server. Point a GitHub webhook for pull_request events at
POST /webhook; every opened, reopened, synchronized or ready-for-review pull request is
reviewed in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(resolveConfigFile())
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, "prsentinel")
	if cfg.GitHub.WebhookSecret == "" {
		log.Warn().Msg("No webhook secret configured, payload signatures are not verified")
	}
	if logger.ParseLevel(cfg.LogLevel) > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()
	svc, cleanup, err := buildService(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(svc, cfg.GitHub.WebhookSecret, cfg.Server.ReviewTimeout, log)
	return srv.Run(ctx, cfg.Server.ListenAddr)
}
