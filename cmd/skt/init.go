package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/config"
)

var initStorage string

func init() {
	initCmd.Flags().StringVar(&initStorage, "storage", "jsonl", "Storage backend: jsonl, sqlite, or memory")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new skilltree repository",
	Long: `Initialize a new skilltree repository in the current directory. The user
given with --user becomes the repository's default user.

Creates:
  .skilltree/
  ├── skills.jsonl    # Empty file, one skill tree per user
  ├── config.json     # Default config
  └── .gitignore      # Ignores the SQLite cache and logs`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

// gitignoreContent keeps generated files out of version control.
const gitignoreContent = "cache.db\nskt.log\n"

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		os.Exit(outputError(ExitError, "getting current directory: %v", err))
	}

	// Check if already initialized
	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a skilltree repository")
	}
	if err := config.ValidateStorage(initStorage); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	dataDir := config.DataPath(root)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		exitWithError(ExitError, "creating %s directory: %v", config.SkilltreeDir, err)
	}

	skillsFile, err := os.Create(config.SkillsPath(root))
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", config.SkillsFile, err)
	}
	skillsFile.Close()

	if err := os.WriteFile(filepath.Join(dataDir, ".gitignore"), []byte(gitignoreContent), 0644); err != nil {
		exitWithError(ExitError, "creating .gitignore: %v", err)
	}

	cfg := &config.Config{UserID: userFlag, Storage: initStorage}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("%s skilltree repository in %s\n", colorGood.Sprint("Initialized"), dataDir)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
