package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/taxonomy"
)

func init() {
	taxonomyCmd.AddCommand(taxonomyListCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	taxonomyCmd.AddCommand(taxonomySkillsCmd)
	taxonomyCmd.AddCommand(taxonomyFindCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Browse the skill taxonomy",
	Long: `Browse the skill taxonomy: categories, subcategories and
specializations, and the skill labels each specialization offers.

Uses the taxonomy configured in the current repository, or the built-in
one outside of any repository.`,
}

var taxonomyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and their groupings",
	Args:  cobra.NoArgs,
	RunE:  runTaxonomyList,
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show <id-path>",
	Short: "Show a taxonomy node by its id path",
	Long: `Show a taxonomy node by the ids leading to it, separated by slashes.

Examples:
  skt taxonomy show programming
  skt taxonomy show programming/web/frontend`,
	Args: cobra.ExactArgs(1),
	RunE: runTaxonomyShow,
}

var taxonomySkillsCmd = &cobra.Command{
	Use:   "skills <node-id>",
	Short: "List every skill label at or below a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaxonomySkills,
}

var taxonomyFindCmd = &cobra.Command{
	Use:   "find <skill>",
	Short: "Find where a skill label appears",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaxonomyFind,
}

// TaxonomyListResponse is the response for taxonomy list.
type TaxonomyListResponse struct {
	Categories []taxonomy.Node `json:"categories"`
	Stats      taxonomy.Stats  `json:"stats"`
}

// TaxonomySkillsResponse is the response for taxonomy skills.
type TaxonomySkillsResponse struct {
	NodeID string              `json:"node_id"`
	Skills []taxonomy.SkillRef `json:"skills"`
	Count  int                 `json:"count"`
}

// TaxonomyFindResponse is the response for taxonomy find.
type TaxonomyFindResponse struct {
	Query   string                `json:"query"`
	Matches []taxonomy.SkillMatch `json:"matches"`
	Count   int                   `json:"count"`
}

// loadTaxonomy returns the repository's taxonomy when run inside one, and
// the built-in taxonomy otherwise.
func loadTaxonomy() *taxonomy.Store {
	cwd, err := os.Getwd()
	if err != nil {
		return taxonomy.Default()
	}
	root, err := config.ResolveRepository(cwd)
	if err != nil {
		return taxonomy.Default()
	}
	cfg := mustLoadConfig(root)
	resolveConfig(cfg)
	e := &env{root: root, cfg: cfg}
	return e.mustLoadTaxonomy()
}

func runTaxonomyList(cmd *cobra.Command, args []string) error {
	store := loadTaxonomy()

	if !humanOutput {
		outputJSON(TaxonomyListResponse{Categories: groupingsOnly(store.Categories()), Stats: store.Stats()})
		return nil
	}

	var print func(nodes []taxonomy.Node, depth int)
	print = func(nodes []taxonomy.Node, depth int) {
		for _, n := range nodes {
			indent := strings.Repeat("  ", depth)
			if n.IsSpecialization() {
				fmt.Printf("%s%s %s\n", indent, n.Name, colorSubtle.Sprintf("[%s, %d skills]", n.ID, len(n.Skills)))
				continue
			}
			fmt.Printf("%s%s %s\n", indent, colorTitle.Sprint(n.Name), colorSubtle.Sprintf("[%s]", n.ID))
			print(n.Children, depth+1)
		}
	}
	print(store.Categories(), 0)

	st := store.Stats()
	fmt.Printf("\n%d categories, %d specializations, %d skills\n", st.Categories, st.Specializations, st.Skills)
	return nil
}

// groupingsOnly copies nodes without their skill labels.
func groupingsOnly(nodes []taxonomy.Node) []taxonomy.Node {
	out := make([]taxonomy.Node, len(nodes))
	for i, n := range nodes {
		out[i] = taxonomy.Node{ID: n.ID, Name: n.Name, Children: groupingsOnly(n.Children)}
	}
	return out
}

func runTaxonomyShow(cmd *cobra.Command, args []string) error {
	store := loadTaxonomy()
	path := strings.Split(strings.Trim(args[0], "/"), "/")

	n := store.FindNode(path)
	if n == nil {
		exitWithError(ExitNotFound, "%v: %s", graph.ErrUnknownPath, args[0])
	}

	if !humanOutput {
		outputJSON(n)
		return nil
	}
	fmt.Printf("%s %s\n", colorTitle.Sprint(n.Name), colorSubtle.Sprintf("[%s]", n.ID))
	for _, c := range n.Children {
		fmt.Printf("  %s %s\n", c.Name, colorSubtle.Sprintf("[%s]", c.ID))
	}
	for _, s := range n.Skills {
		fmt.Printf("  - %s\n", s.Name)
	}
	return nil
}

func runTaxonomySkills(cmd *cobra.Command, args []string) error {
	store := loadTaxonomy()
	id := args[0]

	if store.FindByID(id) == nil {
		exitWithError(ExitNotFound, "taxonomy node not found: %s", id)
	}
	skills := store.ListSkillsUnder(id)

	if !humanOutput {
		outputJSON(TaxonomySkillsResponse{NodeID: id, Skills: skills, Count: len(skills)})
		return nil
	}
	for _, s := range skills {
		fmt.Println(s.Name)
	}
	fmt.Println(colorSubtle.Sprintf("%d skills", len(skills)))
	return nil
}

func runTaxonomyFind(cmd *cobra.Command, args []string) error {
	store := loadTaxonomy()
	matches := store.FindSkill(args[0])
	if matches == nil {
		matches = []taxonomy.SkillMatch{}
	}

	if !humanOutput {
		outputJSON(TaxonomyFindResponse{Query: args[0], Matches: matches, Count: len(matches)})
		return nil
	}
	if len(matches) == 0 {
		fmt.Printf("No skill named %q in the taxonomy\n", args[0])
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%s  %s\n", m.Skill.Name, colorSubtle.Sprint(strings.Join(m.Path, "/")))
	}
	return nil
}
