package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the SQLite store from the JSONL source",
	Long: `Rebuild the SQLite database from skills.jsonl.

Use this after pulling changes from git, before switching storage to sqlite,
or if the database becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	users, err := db.RebuildFromJSONL(config.SkillsPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding skills database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt database: %d users\n", users)
		return nil
	}
	outputJSON(RebuildResult{Status: "rebuilt", Users: users})
	return nil
}
