package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/storage"
	"github.com/matsen/skilltree/internal/tui"
)

var viewWatch bool

// viewLogFile receives logs while the terminal belongs to the view.
const viewLogFile = "skt.log"

func init() {
	viewCmd.Flags().BoolVarP(&viewWatch, "watch", "w", false, "Reload when the skills file changes on disk (jsonl storage only)")
	rootCmd.AddCommand(viewCmd)
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Edit the skill tree in an interactive graph",
	Long: `Open the interactive terminal view of the skill tree.

The graph animates while the force layout settles. Drag a node to move it;
click a skill to rename it.

Keys:
  tab / shift+tab  cycle focus between skills
  a                add a skill ("name" or "name:parent")
  e, enter         rename the focused skill
  + / -            raise or lower its level
  d                delete it and its sub-skills
  r                reheat the layout
  ?                toggle help
  q                quit

Every edit is saved immediately. Logs go to .skilltree/skt.log.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	resolveConfig(cfg)

	logPath := filepath.Join(config.DataPath(root), viewLogFile)
	e := &env{root: root, cfg: cfg, logger: mustNewLogger(cfg, []string{logPath})}
	defer e.logger.Sync()

	opts := tui.Options{
		Categories: e.mustLoadTaxonomy(),
		Layout:     cfg.Layout,
		FPS:        cfg.FPS,
		Logger:     e.logger,
	}
	if viewWatch {
		if b := storage.Backend(cfg.Storage); b != "" && b != storage.BackendJSONL {
			exitWithError(ExitConfigError, "--watch needs jsonl storage, not %s", cfg.Storage)
		}
		opts.WatchPath = config.SkillsPath(root)
	}

	store := e.mustOpenStore()
	defer store.Close()

	if err := tui.Run(cmd.Context(), store, e.mustUser(), opts); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return nil
}
