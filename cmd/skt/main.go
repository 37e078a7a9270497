// Package main provides the skt CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/logging"
	"github.com/matsen/skilltree/internal/session"
	"github.com/matsen/skilltree/internal/storage"
	"github.com/matsen/skilltree/internal/taxonomy"
)

// Version is set at build time via ldflags
var Version = "dev"

// Global flags
var (
	humanOutput  bool   // Human-readable output instead of JSON
	userFlag     string // Overrides the configured user
	logLevelFlag string // Overrides the configured log level
	devLogs      bool   // Console log encoding
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "skt",
	Short: "Skill tree editor with a live force-directed graph",
	Long: `skt keeps a personal skill tree: skills nested to any depth, each with a
proficiency level (beginner, intermediate, advanced, expert), grouped by the
categories of a skill taxonomy.

The tree is drawn as a force-directed graph, either interactively in the
terminal ('skt view') or as a standalone SVG/HTML file ('skt viz').

Data is stored in git-versionable JSONL, with an optional SQLite backend.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; variables may come from the shell.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User whose skill tree to use (overrides config and SKT_USER)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev-logs", false, "Write human-readable logs instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository finds the repository containing the working directory,
// falling back to the global home_repo. Exits on error.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		os.Exit(outputError(ExitError, "getting current directory: %v", err))
	}

	repoRoot, err := config.ResolveRepository(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustLoadConfig loads the repository configuration as stored, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// resolveConfig applies the global config, the environment and the command
// line to cfg, in increasing precedence.
func resolveConfig(cfg *config.Config) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	cfg.ApplyGlobal(global)
	cfg.ApplyEnv()
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
}

// env holds what commands need about the current repository.
type env struct {
	root   string
	cfg    *config.Config
	logger *zap.Logger
}

// mustLoadEnv resolves the repository, its configuration and a logger
// writing to stderr.
func mustLoadEnv() *env {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	resolveConfig(cfg)
	return &env{root: root, cfg: cfg, logger: mustNewLogger(cfg, nil)}
}

// mustNewLogger builds the logger for cfg. outputs defaults to stderr.
func mustNewLogger(cfg *config.Config, outputs []string) *zap.Logger {
	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: devLogs,
		OutputPaths: outputs,
	})
	if err != nil {
		exitWithError(ExitConfigError, "configuring logging: %v", err)
	}
	return logger
}

// mustUser returns the configured user, exits if none is set.
func (e *env) mustUser() string {
	if e.cfg.UserID == "" {
		exitWithError(ExitConfigError, "no user configured\n\nSet one with 'skt config user_id <name>', SKT_USER, or --user.")
	}
	return e.cfg.UserID
}

// mustOpenStore opens the configured storage backend, exits on error.
// The caller is responsible for calling Close() on the returned store.
func (e *env) mustOpenStore() storage.Store {
	store, err := storage.Open(storage.Backend(e.cfg.Storage), config.DataPath(e.root), e.logger)
	if err != nil {
		exitWithError(ExitConfigError, "opening %s storage: %v", e.cfg.Storage, err)
	}
	return store
}

// mustLoadTaxonomy loads the configured taxonomy, or the built-in one.
func (e *env) mustLoadTaxonomy() *taxonomy.Store {
	if e.cfg.TaxonomyPath == "" {
		return taxonomy.Default()
	}
	store, err := taxonomy.Load(config.ExpandPath(e.cfg.TaxonomyPath))
	if err != nil {
		exitWithError(ExitConfigError, "loading taxonomy: %v", err)
	}
	return store
}

// mustOpenSession opens a session on the user's skill tree and loads it.
// Close the session to flush pending saves.
func (e *env) mustOpenSession(ctx context.Context, store storage.SkillStore) *session.Session {
	sess := session.New(store, e.mustUser(), session.WithLogger(e.logger))
	if _, err := sess.Load(ctx); err != nil {
		exitOnError(err, "loading skills")
	}
	return sess
}
