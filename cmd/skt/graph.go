package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/layout"
	"github.com/matsen/skilltree/internal/skill"
)

var (
	graphCheck   bool
	graphFormat  string
	graphCatalog bool
	graphPath    string

	layoutTicks  int
	layoutStream bool
	layoutFPS    float64
)

func init() {
	addGraphSourceFlags(graphCmd)
	graphCmd.Flags().BoolVar(&graphCheck, "check", false, "Only verify the tree invariants of the graph")
	graphCmd.Flags().StringVar(&graphFormat, "format", "json", "Output format: json or cytoscape")

	addGraphSourceFlags(layoutCmd)
	layoutCmd.Flags().IntVar(&layoutTicks, "ticks", 0, "Maximum ticks to run (default: until settled)")
	layoutCmd.Flags().BoolVar(&layoutStream, "stream", false, "Print every frame as a JSON line while the layout runs")
	layoutCmd.Flags().Float64Var(&layoutFPS, "fps", 0, "Frame rate for --stream (default: configured fps)")

	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(layoutCmd)
}

func addGraphSourceFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&graphCatalog, "catalog", false, "Use the taxonomy catalog instead of the user's skills")
	cmd.Flags().StringVar(&graphPath, "path", "", "Taxonomy id path to show with --catalog, e.g. programming/web")
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the skill tree as a graph",
	Long: `Print the node and edge graph built from the user's skill tree.

Top-level skills that name a taxonomy category become category nodes;
everything else is grouped under "Other". With --catalog the graph is built
from the taxonomy itself.

Examples:
  skt graph --check
  skt graph --format cytoscape
  skt graph --catalog --path programming/web`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Run the force layout and print node positions",
	Long: `Run the force-directed layout headlessly and print the resulting frame.

With --stream the layout runs at the configured frame rate and every frame
is printed as one JSON line until the layout settles.`,
	Args: cobra.NoArgs,
	RunE: runLayout,
}

// FrameResponse is one layout frame.
type FrameResponse struct {
	layout.Frame
	State string `json:"state"`
}

// GraphCheckResponse is the response for graph --check.
type GraphCheckResponse struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
}

// buildGraph returns the graph selected by the source flags.
func (e *env) buildGraph(ctx context.Context) *graph.Graph {
	tax := e.mustLoadTaxonomy()

	if graphCatalog {
		var path []string
		if p := strings.Trim(graphPath, "/"); p != "" {
			path = strings.Split(p, "/")
		}
		g, err := graph.BuildFromTaxonomy(tax, path)
		exitOnError(err, "building catalog graph")
		return g
	}
	if graphPath != "" {
		exitWithError(ExitError, "--path requires --catalog")
	}

	store := e.mustOpenStore()
	defer store.Close()
	sess := e.mustOpenSession(ctx, store)
	defer sess.Close()

	f := sess.Forest()
	e.logger.Debug("building graph", zap.String("user", sess.UserID()), zap.String("forest", forestSummary(f)))
	return graph.Build(f, tax)
}

func runGraph(cmd *cobra.Command, args []string) error {
	if graphFormat != "json" && graphFormat != "cytoscape" {
		exitWithError(ExitError, "invalid --format %q: use json or cytoscape", graphFormat)
	}

	e := mustLoadEnv()
	g := e.buildGraph(cmd.Context())

	if graphCheck {
		if err := graph.Check(g); err != nil {
			exitWithError(ExitDataError, "graph check failed: %v", err)
		}
		if humanOutput {
			fmt.Printf("%s %d nodes, %d edges\n", colorGood.Sprint("ok"), len(g.Nodes), len(g.Edges))
			return nil
		}
		outputJSON(GraphCheckResponse{Status: "ok", Nodes: len(g.Nodes), Edges: len(g.Edges)})
		return nil
	}

	if graphFormat == "cytoscape" {
		out, err := g.ToCytoscapeJSON()
		if err != nil {
			return fmt.Errorf("encoding graph: %w", err)
		}
		fmt.Println(out)
		return nil
	}

	if humanOutput {
		printGraphHuman(g)
		return nil
	}
	outputJSON(g)
	return nil
}

// printGraphHuman prints the graph as an indented tree from the root.
func printGraphHuman(g *graph.Graph) {
	children := make(map[string][]string)
	for _, edge := range g.Edges {
		children[edge.SourceID] = append(children[edge.SourceID], edge.TargetID)
	}
	index := g.Index()

	var print func(id string, depth int)
	print = func(id string, depth int) {
		n := g.Nodes[index[id]]
		label := n.Label
		switch n.Kind {
		case graph.KindRoot, graph.KindCategory:
			label = colorTitle.Sprint(label)
			if n.Owned && n.Level != "" {
				label += " " + levelLabel(n.Level)
			}
		default:
			if n.Level != "" {
				label += " " + levelLabel(n.Level)
			}
		}
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), label, colorSubtle.Sprintf("[%s]", n.ID))
		for _, c := range children[id] {
			print(c, depth+1)
		}
	}
	if _, ok := index[graph.RootID]; ok {
		print(graph.RootID, 0)
	}
	fmt.Printf("\n%d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
}

// newSimulation lays g out with the configured layout parameters.
func (e *env) newSimulation(g *graph.Graph) *layout.Simulation {
	sim := layout.New(e.cfg.Layout.WithDefaults())
	sim.SetGraph(g)
	return sim
}

// settleBudget returns the tick limit for a headless run.
func settleBudget(ticks int) int {
	if ticks > 0 {
		return ticks
	}
	// Ample for any alpha decay a user would configure.
	return 100 * layout.DefaultSettleTicks
}

func runLayout(cmd *cobra.Command, args []string) error {
	e := mustLoadEnv()
	g := e.buildGraph(cmd.Context())
	sim := e.newSimulation(g)

	if layoutStream {
		return streamLayout(cmd.Context(), e, sim)
	}

	ran := sim.RunUntilSettled(settleBudget(layoutTicks))
	e.logger.Debug("layout finished", zap.Int("ticks", ran), zap.Stringer("state", sim.State()))
	frame := sim.Frame()

	if humanOutput {
		fmt.Printf("%s after %d ticks (alpha %.4f)\n", frame.State, ran, frame.Alpha)
		for _, n := range frame.Nodes {
			fmt.Printf("  %-24s %8.1f %8.1f\n", n.Label, n.X, n.Y)
		}
		return nil
	}
	outputJSON(FrameResponse{Frame: frame, State: frame.State.String()})
	return nil
}

// streamLayout runs sim on a paced runner and prints each frame until the
// layout settles, the tick limit is reached or ctx is cancelled.
func streamLayout(ctx context.Context, e *env, sim *layout.Simulation) error {
	fps := layoutFPS
	if fps <= 0 {
		fps = e.cfg.FPS
	}
	if fps <= 0 {
		fps = layout.DefaultFPS
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := settleBudget(layoutTicks)
	runner := layout.NewRunner(sim,
		layout.WithFPS(fps),
		layout.WithLogger(e.logger),
		layout.WithObserver(func(f layout.Frame) {
			printFrameLine(f)
			if f.State == layout.Settled || f.Tick >= limit {
				cancel()
			}
		}),
	)

	if sim.State() == layout.Settled {
		// Nothing to animate; report the single frame.
		printFrameLine(sim.Frame())
		return nil
	}
	return runner.Run(ctx)
}

func printFrameLine(f layout.Frame) {
	if humanOutput {
		fmt.Printf("tick %4d  alpha %.4f  %s\n", f.Tick, f.Alpha, f.State)
		return
	}
	outputJSONCompact(FrameResponse{Frame: f, State: f.State.String()})
}

// forestSummary describes f for log lines.
func forestSummary(f skill.Forest) string {
	return fmt.Sprintf("%d skills, depth %d", skill.Count(f), skill.Depth(f))
}
