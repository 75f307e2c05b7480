package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comment-insights/internal/app"
	"github.com/comment-insights/internal/batch"
	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/llm"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
	"github.com/comment-insights/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	insight *app.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insights",
		Short: "YouTube comment insights from the command line",
		Long: `Searches YouTube, fetches top-level comments and turns them into
sentiment, keywords, pros, cons and next-video ideas.`,
		PersistentPreRunE:  initializeApp,
		PersistentPostRunE: closeApp,
		SilenceUsage:       true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(jobsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = app.NewLogger(cfg.Logging)

	insight, err = app.New(cmd.Context(), cfg, log)
	return err
}

func closeApp(cmd *cobra.Command, args []string) error {
	if insight == nil {
		return nil
	}
	return insight.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func requireYouTube() error {
	if insight.YouTube == nil {
		return cfg.RequireYouTube()
	}
	return nil
}

// ============ ANALYZE ============

func analyzeCmd() *cobra.Command {
	var (
		count    int
		filters  string
		analyzer string
		stream   bool
		asJSON   bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Search videos and analyze their comments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYouTube(); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			query := strings.Join(args, " ")
			f, err := models.ParseSearchFilters(filters)
			if err != nil {
				return err
			}
			kind, err := models.ParseAnalyzer(analyzer)
			if err != nil {
				return err
			}
			if kind == models.AnalyzerLLM && insight.Chain == nil {
				return fmt.Errorf("llm analyzer: %w", jobs.ErrAnalyzerUnavailable)
			}

			if save {
				return runSavedJob(ctx, jobs.Request{
					Query:      query,
					VideoCount: count,
					Filters:    f,
					Analyzer:   kind,
					Source:     "cli",
				})
			}

			if count < 1 || count > jobs.MaxVideoCount {
				return fmt.Errorf("--count must be between 1 and %d", jobs.MaxVideoCount)
			}
			videos, err := insight.YouTube.SearchVideos(ctx, query, count, f)
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				return jobs.ErrNoVideos
			}

			if kind == models.AnalyzerLLM {
				orch := batch.New[models.LLMAnalysis](insight.YouTube, llm.NewStrategy(insight.Chain), insight.BatchOptions(), log)
				return runAnalyze(ctx, orch, videos, stream, asJSON, printSummaries)
			}
			orch := batch.New[models.VideoAnalysis](insight.YouTube, insight.Heuristic, insight.BatchOptions(), log)
			return runAnalyze(ctx, orch, videos, stream, asJSON, printAnalyses)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of videos to analyze (1-50)")
	cmd.Flags().StringVar(&filters, "filters", "", `Search filters as JSON, e.g. {"upload_date":"week","sort_by":"viewCount"}`)
	cmd.Flags().StringVar(&analyzer, "analyzer", "heuristic", "Analyzer to use (heuristic, llm)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print progress records as JSON lines while running")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Record the run as a job in the database")

	return cmd
}

func runAnalyze[R any](
	ctx context.Context,
	orch *batch.Orchestrator[R],
	videos []models.VideoDescriptor,
	stream, asJSON bool,
	report func(*models.BatchResponse[R]),
) error {
	if stream {
		enc := json.NewEncoder(os.Stdout)
		for ev := range orch.Stream(ctx, videos) {
			switch {
			case ev.Progress != nil:
				enc.Encode(ev.Progress)
			case ev.Final != nil:
				enc.Encode(map[string]any{"final_results": ev.Final})
			case ev.Err != nil:
				return ev.Err
			}
		}
		return nil
	}

	resp, err := orch.Run(ctx, videos, func(s models.BatchProcessingStatus) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %-20s %s\n", s.CurrentVideo, s.TotalVideos, s.Status, s.VideoTitle)
	})
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(resp)
	}
	report(resp)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalyses(resp *models.BatchAnalysisResponse) {
	fmt.Printf("\n=== Analysis Results ===\n")
	printTotals(resp.TotalProcessed, resp.SuccessfulAnalyses, resp.FailedAnalyses, resp.ProcessingTimeSeconds)

	for i, v := range resp.Videos {
		fmt.Printf("\n[%d] %s\n", i+1, v.Title)
		fmt.Printf("    Channel:   %s | Views: %d\n", v.ChannelName, v.ViewCount)
		fmt.Printf("    URL:       https://www.youtube.com/watch?v=%s\n", v.VideoID)
		fmt.Printf("    Comments:  %d (%s)\n", v.CommentCount, v.Variant)
		fmt.Printf("    Sentiment: %.1f%% positive, %.1f%% neutral, %.1f%% negative\n",
			v.SentimentSummary.Positive*100, v.SentimentSummary.Neutral*100, v.SentimentSummary.Negative*100)
		if len(v.TopKeywords) > 0 {
			fmt.Printf("    Keywords:  %s\n", strings.Join(v.TopKeywords, ", "))
		}
		printList("Pros", v.Pros)
		printList("Cons", v.Cons)
		printList("Next video ideas", v.NextTopicIdeas)
	}
}

func printSummaries(resp *models.BatchSummaryResponse) {
	fmt.Printf("\n=== Summary Results ===\n")
	printTotals(resp.TotalProcessed, resp.SuccessfulAnalyses, resp.FailedAnalyses, resp.ProcessingTimeSeconds)

	for i, v := range resp.Videos {
		fmt.Printf("\n[%d] %s\n", i+1, v.VideoTitle)
		printSummary(v)
	}
}

func printSummary(v models.LLMAnalysis) {
	fmt.Printf("    Channel:  %s\n", v.ChannelTitle)
	fmt.Printf("    Comments: %d fetched, %d kept\n", v.CommentsFetched, v.CommentsSanitized)
	if v.Model != "" {
		fmt.Printf("    Model:    %s\n", v.Model)
	}
	if v.Reason != "" {
		fmt.Printf("    Skipped:  %s\n", v.Reason)
		return
	}
	printList("Pros", splitLines(v.Pros))
	printList("Cons", splitLines(v.Cons))
	printList("Next hot topic", splitLines(v.NextHotTopic))
}

func printTotals(total, ok, failed int, secs float64) {
	fmt.Printf("Videos:     %d\n", total)
	fmt.Printf("Successful: %d\n", ok)
	fmt.Printf("Failed:     %d\n", failed)
	fmt.Printf("Duration:   %.2fs\n", secs)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("    %s:\n", title)
	for _, it := range items {
		fmt.Printf("      - %s\n", it)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func runSavedJob(ctx context.Context, req jobs.Request) error {
	if insight.Jobs == nil {
		return fmt.Errorf("job runner unavailable: %w", cfg.RequireYouTube())
	}
	job, runErr := insight.Jobs.Run(ctx, req)
	if job == nil {
		return runErr
	}
	if err := showJob(ctx, job.ID); err != nil {
		return err
	}
	return runErr
}

// ============ SUMMARIZE ============

func summarizeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize <video-id>",
		Short: "Summarize one video's comments with the language-model chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYouTube(); err != nil {
				return err
			}
			if insight.Chain == nil {
				return fmt.Errorf("llm analyzer: %w", jobs.ErrAnalyzerUnavailable)
			}
			ctx, cancel := signalContext()
			defer cancel()

			video, err := insight.YouTube.GetVideo(ctx, args[0])
			if err != nil {
				return err
			}
			comments, err := insight.YouTube.FetchComments(ctx, video.VideoID, cfg.YouTube.MaxComments)
			if err != nil {
				return err
			}

			res := insight.Chain.Summarize(ctx, video, models.Texts(comments))
			if asJSON {
				return printJSON(res.Value)
			}

			fmt.Printf("\n=== %s ===\n", video.Title)
			fmt.Printf("    URL:      %s\n", video.WatchURL())
			printSummary(res.Value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

// ============ SEARCH ============

func searchCmd() *cobra.Command {
	var (
		count   int
		filters string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "List videos matching a query without analyzing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYouTube(); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			f, err := models.ParseSearchFilters(filters)
			if err != nil {
				return err
			}
			videos, err := insight.YouTube.SearchVideos(ctx, strings.Join(args, " "), count, f)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Videos (%d) ===\n\n", len(videos))
			for _, v := range videos {
				fmt.Printf("%s | %s\n", v.VideoID, v.Title)
				fmt.Printf("    Channel: %s | Views: %d | Published: %s\n", v.ChannelName, v.ViewCount, v.PublishedAt)
				fmt.Printf("    %s\n\n", v.WatchURL())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of videos to list (1-50)")
	cmd.Flags().StringVar(&filters, "filters", "", "Search filters as JSON")
	return cmd
}

// ============ JOBS ============

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and inspect recorded jobs",
	}

	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsShowCmd())
	return cmd
}

func jobsListCmd() *cobra.Command {
	var (
		status string
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultJobFilter()
			filter.Limit = limit
			if status != "" {
				s := models.JobStatus(status)
				filter.Status = &s
			}
			if source != "" {
				filter.Source = &source
			}

			list, err := insight.Repo.ListJobs(ctx, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Jobs (%d) ===\n\n", len(list))
			for _, j := range list {
				fmt.Printf("%s | %-9s | %s\n", j.ID, j.Status, j.Query)
				fmt.Printf("    Source: %s | Analyzer: %s | Videos: %d/%d ok | Created: %s\n",
					j.Source, j.Analyzer, j.SuccessfulAnalyses, j.TotalProcessed,
					j.CreatedAt.Format("2006-01-02 15:04"))
				if j.ErrorMessage != "" {
					fmt.Printf("    Error: %s\n", j.ErrorMessage)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, completed, failed)")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source (api, scheduler, cli)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to show")
	return cmd
}

func jobsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job and its per-video results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showJob(context.Background(), args[0])
		},
	}
}

func showJob(ctx context.Context, id string) error {
	job, err := insight.Repo.GetJob(ctx, id)
	if err != nil {
		return err
	}
	results, err := insight.Repo.ListResults(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Job %s ===\n", job.ID)
	fmt.Printf("Query:    %s\n", job.Query)
	fmt.Printf("Status:   %s\n", job.Status)
	fmt.Printf("Analyzer: %s | Source: %s\n", job.Analyzer, job.Source)
	if job.Filters != "" {
		fmt.Printf("Filters:  %s\n", job.Filters)
	}
	printTotals(job.TotalProcessed, job.SuccessfulAnalyses, job.FailedAnalyses, job.ProcessingTimeSeconds)
	if job.ErrorMessage != "" {
		fmt.Printf("Error:    %s\n", job.ErrorMessage)
	}

	for i, r := range results {
		fmt.Printf("\n[%d] %s (%s)\n", i+1, r.VideoTitle, r.ChannelTitle)
		fmt.Printf("    Comments: %d", r.CommentCount)
		if job.Analyzer == models.AnalyzerHeuristic {
			fmt.Printf(" | %.1f%% positive, %.1f%% negative", r.Positive*100, r.Negative*100)
		}
		fmt.Println()
		if len(r.Keywords) > 0 {
			fmt.Printf("    Keywords: %s\n", strings.Join(r.Keywords, ", "))
		}
		printList("Pros", splitLines(r.Pros))
		printList("Cons", splitLines(r.Cons))
		printList("Next", splitLines(r.Summary))
	}
	return nil
}
