package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"geonews/internal/config"
	"geonews/internal/database"
	"geonews/internal/draft"
	"geonews/internal/flow"
	"geonews/internal/gather"
	"geonews/internal/llm"
	"geonews/internal/publish"
	"geonews/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "geonews",
	Short:   "Geopolitics newsletter pipeline",
	Long:    "GeoNews gathers geopolitical reporting, drafts a reviewed newsletter with an LLM, and mails it to subscribers.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Credentials live in the environment; a local .env is a convenience.
		godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subscribersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("geonews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/geonews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, SMTP, and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.GetToday())
		fmt.Println("Runs:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		fmt.Printf("  Published: %d\n", stats.PublishedRuns)
		fmt.Printf("  Failed: %d\n", stats.FailedRuns)
		fmt.Println("\nContent:")
		fmt.Printf("  Newsletters archived: %d\n", stats.Newsletters)
		fmt.Printf("  Source articles cached: %d\n", stats.SourceArticles)
		fmt.Println("\nSubscribers:")
		fmt.Printf("  Total: %d\n", stats.TotalSubscribers)
		fmt.Printf("  Active: %d\n", stats.ActiveSubscribers)

		if runs, err := db.GetRecentRuns(5); err == nil && len(runs) > 0 {
			fmt.Println("\nRecent runs:")
			for _, r := range runs {
				line := fmt.Sprintf("  %s  %s  %s (retries: %d)", r.RunID, r.Date, r.Status, r.RetryCount)
				if r.FailReason != "" {
					line += "  " + r.FailReason
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

// --- run command ---

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the newsletter flow: gather -> draft -> review -> send",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		date := runDate
		if date == "" {
			date = database.GetToday()
		}

		st := flow.NewState(uuid.NewString(), date)
		fmt.Printf("Starting run %s for %s\n", st.RunID, st.Date)

		final, err := driveRun(cmd.Context(), db, st)
		if err != nil {
			return err
		}
		reportRun(final)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "Run date (YYYY-MM-DD, default today)")
}

// --- resume command ---

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume an interrupted run from its last persisted state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		st, err := db.Runs().Load(ctx, args[0])
		if err != nil {
			if errors.Is(err, flow.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			return fmt.Errorf("loading run: %w", err)
		}

		fmt.Printf("Resuming run %s for %s (status %s, retries %d)\n",
			st.RunID, st.Date, st.Status, st.RetryCount)

		final, err := driveRun(ctx, db, st)
		if err != nil {
			return err
		}
		reportRun(final)
		return nil
	},
}

// driveRun wires the flow stages to their concrete adapters and drives the
// state to a terminal status. A PUBLISHED run is archived for the web UI.
func driveRun(ctx context.Context, db *database.DB, st *flow.State) (*flow.State, error) {
	provider := llm.CreateProvider(
		cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.OllamaURL,
		cfg.LLM.OpenAIModel, os.Getenv(cfg.LLM.APIKeyEnv),
	)

	gatherer := gather.NewGatherer(cfg, db, os.Getenv(cfg.Gather.NewsAPI.APIKeyEnv))
	drafter := draft.NewDrafter(provider, gatherer, cfg.Flow.GuardrailRetries, cfg.LLM.MaxTokens)

	mailer := publish.NewMailer(
		cfg.SMTP.Host, cfg.SMTP.Port,
		os.Getenv(cfg.SMTP.UsernameEnv), os.Getenv(cfg.SMTP.PasswordEnv),
		cfg.SMTP.From,
		fmt.Sprintf("GeoNews Briefing — %s", st.Date),
	)

	orch := flow.NewOrchestrator(db.Runs(), drafter, mailer, db.Subscribers(), cfg.Flow.MaxRetries)
	if ctx == nil {
		ctx = context.Background()
	}

	final, err := orch.Run(ctx, st)
	if err != nil {
		return final, err
	}

	if final.Status == flow.StatusPublished {
		recipients, _ := db.Subscribers().List(ctx)
		if _, err := db.InsertNewsletter(final.RunID, final.Date, final.Content, len(recipients)); err != nil {
			log.Printf("Archiving newsletter failed: %v", err)
		}
	}
	return final, nil
}

func reportRun(st *flow.State) {
	switch st.Status {
	case flow.StatusPublished:
		fmt.Printf("\nRun %s published. View it with 'geonews serve'.\n", st.RunID)
	case flow.StatusFailed:
		fmt.Printf("\nRun %s failed after %d retries: %s\n", st.RunID, st.RetryCount, st.FailReason)
	default:
		fmt.Printf("\nRun %s stopped in state %s. Resume with 'geonews resume %s'.\n",
			st.RunID, st.Status, st.RunID)
	}
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- subscribers command ---

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "Manage newsletter subscribers",
}

var subscribersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all subscribers",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		subs, err := db.GetAllSubscribers()
		if err != nil {
			return err
		}

		if len(subs) == 0 {
			fmt.Println("No subscribers. Add one with: geonews subscribers add")
			return nil
		}

		fmt.Println("Subscribers:")
		fmt.Println()
		for _, s := range subs {
			icon := " "
			if s.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s %s\n", s.ID, icon, s.Email)
		}
		return nil
	},
}

var subscribersAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Add a subscriber",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.InsertSubscriber(args[0])
		if err != nil {
			return err
		}
		if id == 0 {
			fmt.Printf("Already subscribed: %s\n", args[0])
			return nil
		}
		fmt.Printf("Added subscriber [%d]: %s\n", id, args[0])
		return nil
	},
}

var subscribersRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a subscriber",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subscriber ID: %s", args[0])
		}

		sub, err := db.GetSubscriber(id)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("subscriber %d not found", id)
		}

		if err := db.DeleteSubscriber(id); err != nil {
			return err
		}
		fmt.Printf("Removed subscriber [%d]: %s\n", id, sub.Email)
		return nil
	},
}

var subscribersToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Toggle a subscriber's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subscriber ID: %s", args[0])
		}

		sub, err := db.GetSubscriber(id)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("subscriber %d not found", id)
		}

		if err := db.ToggleSubscriber(id); err != nil {
			return err
		}
		newState := "deactivated"
		if !sub.IsActive {
			newState = "activated"
		}
		fmt.Printf("Subscriber [%d] %s: %s\n", id, sub.Email, newState)
		return nil
	},
}

func init() {
	subscribersCmd.AddCommand(subscribersListCmd)
	subscribersCmd.AddCommand(subscribersAddCmd)
	subscribersCmd.AddCommand(subscribersRemoveCmd)
	subscribersCmd.AddCommand(subscribersToggleCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "geonews.db")
	return database.Open(dbPath)
}
