package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/sparring/internal/config"
	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/engine"
	"github.com/alienxp03/sparring/internal/export"
	"github.com/alienxp03/sparring/internal/ingest"
	"github.com/alienxp03/sparring/internal/policy"
	"github.com/alienxp03/sparring/internal/provider"
	"github.com/alienxp03/sparring/internal/session"
	"github.com/alienxp03/sparring/internal/storage"
	"github.com/alienxp03/sparring/web/handlers"
)

var (
	dbPath     string
	configPath string
	debugFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sparring",
	Short: "Debate your startup idea against an AI sparring partner",
	Long: `sparring puts a startup idea through a structured debate: an Advocate
argues for it, a Skeptic argues against it, and an impartial judge
declares a winner. Both sides may stop mid-debate to ask the founder
clarifying questions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if debugFlag {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.sparring/sparring.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config path (default: ~/.sparring/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = cfg.DatabasePath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		return nil, err
	}
	return store, nil
}

type app struct {
	cfg      *config.Config
	store    storage.Storage
	registry *provider.Registry
	engine   *engine.Engine
}

func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := getStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := cfg.CreateRegistry()
	prov := providerFlag
	if prov == "" {
		prov = cfg.Defaults.Provider
	}
	model := modelFlag
	if model == "" {
		model = cfg.Defaults.Model
	}

	eng := engine.New(
		session.NewStore(),
		registry,
		store,
		policy.NewTierPolicy(cfg.Policy.FreeRounds, store),
		engine.Options{Provider: prov, Model: model},
	)
	return &app{cfg: cfg, store: store, registry: registry, engine: eng}, nil
}

// new command - start an interactive debate
var (
	providerFlag string
	modelFlag    string
	userFlag     string
	fileFlags    []string
	roundsFlag   int
	skipFlag     bool
)

var newCmd = &cobra.Command{
	Use:   "new [idea]",
	Short: "Start a new debate about a startup idea",
	Long: `Start a new debate. The personas may ask clarifying questions before
and during the debate; answer them at the prompt, or press enter on an
empty line at discovery time to skip.

Examples:
  sparring new "A marketplace for renting out idle 3D printers"
  sparring new "AI bookkeeping for food trucks" --file pitch.md --rounds 2
  sparring new "Dating app for climbers" --provider gemini`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNewDebate,
}

func init() {
	newCmd.Flags().StringVarP(&providerFlag, "provider", "p", "", "AI provider (default from config)")
	newCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model override")
	newCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID for round accounting")
	newCmd.Flags().StringArrayVarP(&fileFlags, "file", "f", nil, "Supporting file (repeatable)")
	newCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 3, "Rounds to play before judging")
	newCmd.Flags().BoolVar(&skipFlag, "skip-discovery", false, "Skip pre-debate questions")
}

func runNewDebate(cmd *cobra.Command, args []string) error {
	idea := strings.Join(args, " ")

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.store.Close()

	supportingContext := ""
	if len(fileFlags) > 0 {
		fmt.Println("Reading supporting files...")
		ing := ingest.New(app.registry, app.engine.ProviderName(), modelFlag, app.cfg.Policy.MaxFiles)
		supportingContext = ing.Ingest(cmd.Context(), fileFlags)
	}

	fmt.Printf("\nStarting debate: %s\n", idea)
	result, err := app.engine.StartSession(cmd.Context(), engine.StartConfig{
		Idea:              idea,
		SupportingContext: supportingContext,
		UserID:            userFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to start debate: %w", err)
	}
	fmt.Printf("ID: %s\n\n", result.SessionID)

	reader := bufio.NewReader(os.Stdin)

	if result.State == core.StateDiscoveryPending {
		if skipFlag {
			if _, err := app.engine.SkipDiscovery(result.SessionID); err != nil {
				return err
			}
		} else {
			fmt.Println("Before we start, the debaters have some questions.")
			fmt.Println("(press enter on the first question to skip them all)")
			answers, skipped := collectAnswers(reader, result.Questions, true)
			if skipped {
				if _, err := app.engine.SkipDiscovery(result.SessionID); err != nil {
					return err
				}
				fmt.Println("Skipping questions.")
			} else if _, err := app.engine.SubmitDiscoveryAnswers(result.SessionID, answers); err != nil {
				return err
			}
		}
		fmt.Println()
	}

	return playDebate(cmd, app, reader, result.SessionID)
}

// playDebate drives rounds until the target count, an interrupt the user
// declines, or the round limit, then judges.
func playDebate(cmd *cobra.Command, app *app, reader *bufio.Reader, sessionID string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\n\nInterrupted. Resume later with: sparring resume", sessionID)
		os.Exit(0)
	}()

	for {
		snapshot, err := app.engine.State(sessionID)
		if err != nil {
			return err
		}
		if snapshot.Round >= roundsFlag && snapshot.State == core.StateAdvocateTurnPending {
			break
		}

		result, err := app.engine.NextTurnStream(cmd.Context(), sessionID, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			if errors.Is(err, engine.ErrRoundLimit) {
				fmt.Println("\nFree round limit reached. Upgrade to continue, or judge now.")
				break
			}
			if errors.Is(err, engine.ErrHalted) {
				return fmt.Errorf("debate halted after repeated failures: %w", err)
			}
			return err
		}
		fmt.Println()

		if result.State == core.StateAwaitingClarification {
			pending, err := app.engine.State(sessionID)
			if err != nil {
				return err
			}
			fmt.Printf("\nThe %s needs some facts checked before this argument stands:\n", pending.PendingRole)
			answers, _ := collectAnswers(reader, result.Clarifications, false)
			if _, err := app.engine.SubmitClarificationAnswers(sessionID, answers); err != nil {
				return err
			}
			fmt.Println("Thanks. Regenerating the argument with those facts.")
			continue
		}

		if result.Turn != nil {
			fmt.Println(strings.Repeat("-", 60))
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("JUDGING")
	fmt.Println(strings.Repeat("=", 60))

	verdict, err := app.engine.RequestJudgment(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("judgment failed: %w", err)
	}
	fmt.Println(verdict.Text)
	fmt.Printf("\nWinner: %s\n", verdict.Winner)
	return nil
}

// collectAnswers prompts for an answer to each question. When skippable,
// an empty first answer abandons the whole batch.
func collectAnswers(reader *bufio.Reader, questions []core.ClarificationRequest, skippable bool) (map[string]string, bool) {
	answers := make(map[string]string)
	for i, q := range questions {
		if q.SourceClaim != "" {
			fmt.Printf("\n[%s]\n", q.SourceClaim)
		}
		fmt.Printf("%d. %s\n> ", i+1, q.Question)
		line, _ := reader.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "" {
			if skippable && i == 0 {
				return nil, true
			}
			fmt.Print("An answer is required.\n> ")
			line, _ = reader.ReadString('\n')
			answer = strings.TrimSpace(line)
		}
		answers[q.Question] = answer
	}
	return answers, false
}

// resume command - continue a saved debate
var resumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a saved debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		id, err := resolveDebateID(app.store, args[0])
		if err != nil {
			return err
		}

		snapshot, err := app.engine.ResumeSaved(id)
		if err != nil {
			return err
		}
		if snapshot.State == core.StateJudged {
			fmt.Println("This debate has already been judged.")
			if snapshot.Verdict != nil {
				fmt.Printf("Winner: %s\n", snapshot.Verdict.Winner)
			}
			return nil
		}

		fmt.Printf("Resuming debate: %s (round %d)\n", snapshot.Idea, snapshot.Round)
		return playDebate(cmd, app, bufio.NewReader(os.Stdin), id)
	},
}

func init() {
	resumeCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 3, "Total rounds to play before judging")
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all debates",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		debates, err := app.store.ListDebates(50, 0)
		if err != nil {
			return err
		}
		if len(debates) == 0 {
			fmt.Println("No debates found. Start one with: sparring new \"Your idea\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tIDEA\tSTATUS\tROUNDS\tWINNER\tCREATED")
		for _, d := range debates {
			shortIdea := d.Idea
			if d.Title != "" {
				shortIdea = d.Title
			}
			if len(shortIdea) > 40 {
				shortIdea = shortIdea[:37] + "..."
			}
			winner := ""
			if d.Winner != "" && d.Winner != core.WinnerUnknown {
				winner = string(d.Winner)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				shortID(d.ID), shortIdea, d.Status, d.Rounds, winner,
				d.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show debate details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		id, err := resolveDebateID(app.store, args[0])
		if err != nil {
			return err
		}
		record, err := app.store.GetDebate(id)
		if err != nil {
			return err
		}
		turns, err := app.store.GetArguments(id)
		if err != nil {
			return err
		}

		title := record.Title
		if title == "" {
			title = record.Idea
		}
		fmt.Printf("\nDebate: %s\n", title)
		fmt.Printf("  ID: %s\n", record.ID)
		fmt.Printf("  Idea: %s\n", record.Idea)
		fmt.Printf("  Status: %s\n", record.Status)
		fmt.Printf("  Rounds: %d\n", record.Rounds)
		fmt.Printf("  Created: %s\n", record.CreatedAt.Format(time.RFC3339))

		if clarifications, err := app.store.GetClarifications(id); err == nil && len(clarifications) > 0 {
			fmt.Println("\nConfirmed facts:")
			for _, c := range clarifications {
				fmt.Printf("  Q: %s\n  A: %s\n", c.Question, c.Answer)
			}
		}

		for _, turn := range turns {
			fmt.Printf("\n%s (Round %d)\n", turn.Role.DisplayName(), turn.Round)
			fmt.Println(strings.Repeat("-", 40))
			fmt.Println(turn.FinalArgument)
		}

		if record.Verdict != nil {
			fmt.Println()
			fmt.Println(strings.Repeat("=", 60))
			fmt.Println("VERDICT")
			fmt.Println(strings.Repeat("=", 60))
			fmt.Println(record.Verdict.Text)
			fmt.Printf("\nWinner: %s\n", record.Verdict.Winner)
		}
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		id, err := resolveDebateID(app.store, args[0])
		if err != nil {
			return err
		}
		if err := app.store.DeleteDebate(id); err != nil {
			return err
		}
		fmt.Printf("Deleted debate: %s\n", id)
		return nil
	},
}

// export command
var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a debate to markdown, json, or pdf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		id, err := resolveDebateID(app.store, args[0])
		if err != nil {
			return err
		}
		record, err := app.store.GetDebate(id)
		if err != nil {
			return err
		}
		turns, err := app.store.GetArguments(id)
		if err != nil {
			return err
		}
		clarifications, err := app.store.GetClarifications(id)
		if err != nil {
			return err
		}

		exporter, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}

		filename := export.GenerateFilename(record, exporter.FileExtension())
		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(record, turns, clarifications, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported to %s\n", filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "o", "markdown", "Export format (markdown, json, pdf)")
}

// providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available AI providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry := cfg.CreateRegistry()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS")
		for _, p := range registry.List() {
			status := "not installed"
			if p.Available() {
				status = "available"
			}
			fmt.Fprintf(w, "%s\t%s\n", p.Name(), status)
		}
		w.Flush()
		return nil
	},
}

// serve command - start the web API
var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.store.Close()

		port := servePort
		if port == 0 {
			port = app.cfg.Server.Port
		}

		h := handlers.New(app.engine, app.registry, app.store)
		addr := fmt.Sprintf(":%d", port)
		server := &http.Server{Addr: addr, Handler: h.Router()}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nShutting down...")
			server.Close()
		}()

		fmt.Printf("Starting sparring API on http://localhost%s\n", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "P", 0, "Server port (default from config)")
}

// resolveDebateID expands an ID prefix into a full debate ID.
func resolveDebateID(store storage.Storage, prefix string) (string, error) {
	debates, err := store.ListDebates(100, 0)
	if err != nil {
		return "", err
	}
	for _, d := range debates {
		if strings.HasPrefix(d.ID, prefix) {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("debate not found: %s", prefix)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
