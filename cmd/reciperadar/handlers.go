package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/reciperadar/internal/config"
	"github.com/elonfeng/reciperadar/internal/scheduler"
	"github.com/elonfeng/reciperadar/internal/store"
	"github.com/elonfeng/reciperadar/pkg/alert"
	"github.com/elonfeng/reciperadar/pkg/capture"
	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/server"
	"github.com/elonfeng/reciperadar/pkg/source"
	"github.com/elonfeng/reciperadar/pkg/title"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildEngine(cfg *config.Config, saver capture.Saver) (*capture.Engine, error) {
	scorer := recipe.DefaultScorer()
	if len(cfg.Scoring.Weights) > 0 {
		var err error
		scorer, err = scorer.Reweight(cfg.Scoring.Weights)
		if err != nil {
			return nil, fmt.Errorf("scoring weights: %w", err)
		}
	}
	threshold := recipe.Score(cfg.Capture.DetectThreshold)
	return capture.NewEngine(saver, capture.Options{
		Scorer: scorer,
		Titles: title.New(),
		Comments: recipe.CommentRanker{
			MinLength: cfg.Comments.MinLength,
			MinScore:  recipe.Score(cfg.Comments.MinScore),
			Limit:     cfg.Comments.Limit,
		},
		DetectThreshold: &threshold,
	}), nil
}

func buildSources(cfg *config.Config) []source.Source {
	var sources []source.Source
	filter := source.NewFilter(cfg.Sources.Filter.ExtraKeywords, cfg.Sources.Filter.ExcludeKeywords)

	if cfg.Sources.Reddit.Enabled {
		sources = append(sources, source.NewReddit(
			cfg.Sources.Reddit.ClientID,
			cfg.Sources.Reddit.ClientSecret,
			cfg.Sources.Reddit.Subreddits,
		))
	}
	if cfg.Sources.YouTube.Enabled {
		sources = append(sources, source.NewYouTube(cfg.Sources.YouTube.APIKey, cfg.Sources.YouTube.Queries))
	}
	if cfg.Sources.RSS.Enabled {
		feeds := make([]source.RSSFeed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = source.RSSFeed{Name: f.Name, URL: f.URL}
		}
		sources = append(sources, source.NewRSS(feeds, filter))
	}
	if cfg.Sources.Pages.Enabled && len(cfg.Sources.Pages.URLs) > 0 {
		sources = append(sources, source.NewPage(cfg.Sources.Pages.URLs...))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}
	if cfg.Alerts.Telegram.Enabled && cfg.Alerts.Telegram.BotToken != "" {
		tg, err := alert.NewTelegram(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerts disabled")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	return alert.NewManager(notifiers)
}

// pipeline is everything the long-running commands share.
type pipeline struct {
	cfg     *config.Config
	db      *store.SQLiteStore
	engine  *capture.Engine
	sources []source.Source
	sched   *scheduler.Scheduler
}

func openPipeline() (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine, err := buildEngine(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	sources := buildSources(cfg)
	sched := scheduler.New(db, sources, engine, buildAlertManager(cfg),
		cfg.Schedule.CronSpec(), cfg.Schedule.Location())

	return &pipeline{cfg: cfg, db: db, engine: engine, sources: sources, sched: sched}, nil
}

func runScore(cmd *cobra.Command, args []string, explain, jsonOutput bool) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	engine, err := buildEngine(cfg, nil)
	if err != nil {
		return err
	}
	scorer := engine.Scorer()
	score := scorer.Score(text)
	out := cmd.OutOrStdout()

	if jsonOutput {
		resp := map[string]any{"score": score}
		if explain {
			resp["signals"] = scorer.Explain(text)
		}
		return writeJSON(out, resp)
	}

	if !explain {
		fmt.Fprintf(out, "%.1f\n", score)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNAL\tWEIGHT\tMEASURE\tVALUE")
	for _, c := range scorer.Explain(text) {
		if c.Measure == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%.0f\t%.2f\t%.1f\n", c.Signal, c.Weight, c.Measure, c.Value)
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%.1f\n", score)
	return w.Flush()
}

func runAnalyze(cmd *cobra.Command, file, url string, save bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var post source.Post
	switch {
	case url != "":
		post, err = source.NewPage().Fetch(cmd.Context(), url)
		if err != nil {
			return err
		}
	default:
		var r io.Reader = cmd.InOrStdin()
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()
			r = f
		}
		if err := json.NewDecoder(r).Decode(&post.Content); err != nil {
			return fmt.Errorf("decode sources: %w", err)
		}
	}

	var saver capture.Saver
	if save && url != "" {
		db, err := store.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		saver = db
	}

	engine, err := buildEngine(cfg, saver)
	if err != nil {
		return err
	}

	c := engine.Analyze(post)
	if saver != nil {
		if err := saver.UpsertCapture(cmd.Context(), &c); err != nil {
			return err
		}
		log.Info().Str("post", c.ID).Msg("capture saved")
	}

	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"result": recipe.ContentResult{
			Title:    c.Title,
			MainText: c.MainText,
			Comments: c.Comments,
			Score:    c.Score,
		},
		"top_comments": c.TopComments,
		"detected":     c.Detected,
	})
}

func runCollect(cmd *cobra.Command, only string) error {
	if only != "" && !knownSource(source.SourceType(only)) {
		return fmt.Errorf("unknown source %q", only)
	}

	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer p.db.Close()

	report := p.sched.RunOnce(cmd.Context(), source.SourceType(only))

	total := 0
	for _, n := range report.Collected {
		total += n
	}
	log.Info().
		Int("posts", total).
		Int("detected", report.Detected).
		Int("notified", report.Notified).
		Int("failed_sources", len(report.Errors)).
		Msg("collection done")
	return nil
}

func runCaptures(cmd *cobra.Command, src string, minScore float64, detected bool, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	captures, err := db.ListCaptures(cmd.Context(), store.ListOpts{
		Source:   source.SourceType(src),
		MinScore: recipe.Score(minScore),
		Detected: detected,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("list captures: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, captures)
	}

	if len(captures) == 0 {
		fmt.Fprintln(out, "no captures found (try collecting first: reciperadar collect)")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRECIPE\tSOURCE\tTITLE\tCAPTURED")
	for _, c := range captures {
		mark := ""
		if c.Detected {
			mark = "yes"
		}
		fmt.Fprintf(w, "%.1f\t%s\t%s\t%s\t%s\n",
			c.Score, mark, c.Source, c.Title, humanize.Time(c.CapturedAt))
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, port int) error {
	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer p.db.Close()

	if port == 0 {
		port = p.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.New(p.db, p.engine, p.sched, p.sources, port).ListenAndServe(ctx)
}

func runDaemon(cmd *cobra.Command, port int) error {
	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer p.db.Close()

	if port == 0 {
		port = p.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.sched.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return server.New(p.db, p.engine, p.sched, p.sources, port).ListenAndServe(ctx)
	})

	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}

func knownSource(st source.SourceType) bool {
	for _, t := range source.AllSourceTypes() {
		if t == st {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
