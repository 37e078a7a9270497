package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/view"
)

var (
	vizOutput string
	vizFormat string
	vizTitle  string
	vizWidth  int
	vizHeight int
)

func init() {
	addGraphSourceFlags(vizCmd)
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizFormat, "format", "html", "Output format: html or svg")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title (default: the user's name)")
	vizCmd.Flags().IntVar(&vizWidth, "width", 0, "SVG width in pixels (default: model units)")
	vizCmd.Flags().IntVar(&vizHeight, "height", 0, "SVG height in pixels (default: model units)")
	vizCmd.Flags().IntVar(&layoutTicks, "ticks", 0, "Maximum layout ticks (default: until settled)")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render the skill tree as SVG or HTML",
	Long: `Lay out the skill tree and render it as a standalone SVG image or a
self-contained HTML page.

Skills are colored by level (beginner blue, intermediate green, advanced
amber, expert red); categories and the root are drawn larger.

Examples:
  # Generate HTML to stdout
  skt viz > skills.html

  # Generate an SVG file
  skt viz --format svg --output skills.svg

  # Render part of the taxonomy catalog
  skt viz --catalog --path programming -o programming.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	if vizFormat != "html" && vizFormat != "svg" {
		exitWithError(ExitError, "invalid --format %q: use html or svg", vizFormat)
	}

	e := mustLoadEnv()
	g := e.buildGraph(cmd.Context())

	sim := e.newSimulation(g)
	sim.RunUntilSettled(settleBudget(layoutTicks))
	laid := sim.Graph()

	svgOpts := view.DefaultSVGOptions()
	svgOpts.Width, svgOpts.Height = vizWidth, vizHeight

	var out string
	var err error
	if vizFormat == "svg" {
		out, err = view.RenderSVG(laid.Nodes, laid.Edges, svgOpts)
	} else {
		opts := view.DefaultHTMLOptions()
		opts.SVG = svgOpts
		opts.Title = vizTitle
		if opts.Title == "" && !graphCatalog && e.cfg.UserID != "" {
			opts.Title = e.cfg.UserID + "'s skills"
		}
		out, err = view.GenerateHTML(laid, opts)
	}
	if err != nil {
		return fmt.Errorf("generating %s: %w", vizFormat, err)
	}

	if vizOutput == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
	} else {
		outputJSON(StatusResponse{Status: "written", Path: vizOutput})
	}
	return nil
}
