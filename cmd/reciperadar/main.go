package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("reciperadar failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reciperadar",
		Short:         "Spot recipes in social posts and comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(scoreCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(capturesCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func scoreCmd() *cobra.Command {
	var (
		explain    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score how likely a text is to be a recipe (reads stdin without an argument)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args, explain, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "show each signal's contribution")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		file string
		url  string
		save bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Pick the main text, title and best comments of a post",
		Long: "Reads a JSON object {caption, text, pageTitle, comments} from --file or stdin,\n" +
			"or fetches a recipe page with --url.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, file, url, save)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with the post's text sources")
	cmd.Flags().StringVar(&url, "url", "", "page to fetch and analyze")
	cmd.Flags().BoolVar(&save, "save", false, "store the capture (with --url)")
	return cmd
}

func collectCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run collectors once, capture posts and send alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, only)
		},
	}

	cmd.Flags().StringVar(&only, "source", "", "only this source (reddit, youtube, rss, page)")
	return cmd
}

func capturesCmd() *cobra.Command {
	var (
		jsonOutput bool
		minScore   float64
		detected   bool
		limit      int
		src        string
	)

	cmd := &cobra.Command{
		Use:   "captures",
		Short: "List stored captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCaptures(cmd, src, minScore, detected, limit, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum recipe score")
	cmd.Flags().BoolVar(&detected, "detected", false, "only detected recipes")
	cmd.Flags().IntVar(&limit, "limit", 20, "max captures to show")
	cmd.Flags().StringVar(&src, "source", "", "only this source")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
