package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/comment-insights/internal/app"
	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/llm"
	"github.com/comment-insights/internal/server"
	"github.com/comment-insights/pkg/ratelimit"
)

var (
	cfgFile string
	addr    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insights-server",
		Short: "HTTP API for YouTube comment insights",
		Long: `Serves the analyze, stream and job endpoints. Videos are searched on
YouTube, their comments fetched and analyzed one video at a time.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.host and server.port)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg.Logging)
	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := server.Deps{
		ForKey: func(ctx context.Context, apiKey string) (server.YouTube, error) {
			return a.ForKey(ctx, apiKey)
		},
		Heuristic:      a.Heuristic,
		Pacer:          a.Pacer,
		MaxComments:    cfg.YouTube.MaxComments,
		Jobs:           a.Jobs,
		Counter:        ratelimit.NewRequestCounter(cfg.Server.MaxRequestsPerMinute, time.Minute),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if a.YouTube != nil {
		deps.YouTube = a.YouTube
	}
	if a.Chain != nil {
		deps.LLM = llm.NewStrategy(a.Chain)
	}

	if addr == "" {
		addr = cfg.Server.Addr()
	}

	log.Info().
		Str("addr", addr).
		Str("database", cfg.Database.Driver).
		Bool("llm", a.Chain != nil).
		Bool("jobs", a.Jobs != nil).
		Bool("sheets_export", a.Exporter != nil).
		Msg("Starting comment insights server")

	return server.New(deps, log).Run(ctx, addr)
}
