package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comment-insights/internal/app"
	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/scheduler"
	"github.com/comment-insights/internal/source"
	"github.com/comment-insights/internal/source/feed"
	"github.com/comment-insights/pkg/logger"
)

var (
	cfgFile string
	once    bool
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insights-scheduler",
		Short: "Background scheduler for comment insight batches",
		Long: `Runs the configured search queries and channel feeds on a cron schedule,
recording one analysis job per source.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&once, "once", false, "run every source once and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireYouTube(); err != nil {
		return err
	}

	log = app.NewLogger(cfg.Logging)
	log.Info().Msg("Starting comment insights scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	analyzer, err := models.ParseAnalyzer(cfg.Scheduler.Analyzer)
	if err != nil {
		return fmt.Errorf("scheduler.analyzer: %w", err)
	}

	sources := source.NewManager()
	for _, q := range cfg.Scheduler.Queries {
		sources.Register(source.NewSearch(q, nil, a.YouTube, log))
	}
	for _, f := range feed.NewMultiple(cfg.Scheduler.Feeds, log) {
		sources.Register(f)
	}
	if len(sources.GetSources()) == 0 {
		return errors.New("no scheduler.queries or scheduler.feeds configured")
	}

	s := scheduler.New(sources, a.Jobs, cfg.Scheduler.VideoCount, analyzer, log)

	if once {
		s.RunOnce(ctx)
		return nil
	}

	go startHealthServer(ctx)

	c, err := s.Start(ctx, cfg.Scheduler.Cron)
	if err != nil {
		return err
	}
	log.Info().Int("sources", len(sources.GetSources())).Msg("Scheduler started")

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler")
	// wait for a running batch to finish
	<-c.Stop().Done()
	return nil
}

// startHealthServer serves a health endpoint for the hosting platform
func startHealthServer(ctx context.Context) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Comment Insights Scheduler"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Health server failed")
	}
}
