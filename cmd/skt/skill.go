package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/session"
	"github.com/matsen/skilltree/internal/skill"
)

var (
	skillParent  string
	skillLevel   string
	updateLevel  string
	updateRename string
)

func init() {
	skillAddCmd.Flags().StringVarP(&skillParent, "parent", "p", "", "Name of the parent skill (default: top level)")
	skillAddCmd.Flags().StringVarP(&skillLevel, "level", "l", string(skill.DefaultLevel), "Proficiency level")

	skillUpdateCmd.Flags().StringVarP(&updateLevel, "level", "l", "", "New proficiency level")
	skillUpdateCmd.Flags().StringVar(&updateRename, "name", "", "New name")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillAddCmd)
	skillCmd.AddCommand(skillRemoveCmd)
	skillCmd.AddCommand(skillUpdateCmd)
	skillCmd.AddCommand(skillNormalizeCmd)
	rootCmd.AddCommand(skillCmd)
}

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Edit the skill tree",
	Long: `Edit the current user's skill tree.

Skill names are unique across the whole tree, ignoring case. Parents and
targets are matched by exact name. Levels are one of beginner,
intermediate, advanced, expert.`,
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the skill tree",
	Args:  cobra.NoArgs,
	RunE:  runSkillList,
}

var skillAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a skill",
	Long: `Add a skill at the top level, or under an existing skill with --parent.

Examples:
  skt skill add Programming
  skt skill add Go --parent Programming --level advanced`,
	Args: cobra.ExactArgs(1),
	RunE: runSkillAdd,
}

var skillRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a skill and its sub-skills",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillRemove,
}

var skillUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Change a skill's level or name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillUpdate,
}

var skillNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Repair ids and levels of the stored tree",
	Long: `Rewrite the stored tree in normalized form: every node gets an id and
missing or unknown levels become beginner.`,
	Args: cobra.NoArgs,
	RunE: runSkillNormalize,
}

// mustCloseSession flushes pending saves, exits if the last one failed.
func mustCloseSession(sess *session.Session) {
	exitOnError(sess.Close(), "saving skills")
}

func runSkillList(cmd *cobra.Command, args []string) error {
	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	sess := e.mustOpenSession(cmd.Context(), store)
	defer sess.Close()
	f := sess.Forest()

	if humanOutput {
		printForestHuman(sess.UserID(), f)
		return nil
	}
	if f == nil {
		f = skill.Forest{}
	}
	outputJSON(SkillsResponse{UserID: sess.UserID(), Count: skill.Count(f), Skills: f})
	return nil
}

func runSkillAdd(cmd *cobra.Command, args []string) error {
	level, err := skill.ParseLevel(skillLevel)
	exitOnError(err, "parsing --level")

	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	sess := e.mustOpenSession(cmd.Context(), store)
	f, err := sess.Add(skill.AddRequest{Name: args[0], Level: level, ParentName: skillParent})
	exitOnError(err, "adding skill")
	mustCloseSession(sess)

	outputChange("added", args[0], f)
	return nil
}

func runSkillRemove(cmd *cobra.Command, args []string) error {
	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	sess := e.mustOpenSession(cmd.Context(), store)
	if !skill.Contains(sess.Forest(), args[0]) {
		sess.Close()
		exitWithError(ExitNotFound, "%v: %s", skill.ErrNodeNotFound, args[0])
	}
	f, err := sess.Remove(args[0])
	exitOnError(err, "removing skill")
	mustCloseSession(sess)

	outputChange("removed", args[0], f)
	return nil
}

func runSkillUpdate(cmd *cobra.Command, args []string) error {
	var patch skill.Patch
	if cmd.Flags().Changed("level") {
		l := skill.Level(updateLevel)
		patch.Level = &l
	}
	if cmd.Flags().Changed("name") {
		patch.Name = &updateRename
	}
	if patch.Level == nil && patch.Name == nil {
		exitWithError(ExitError, "nothing to update: pass --level and/or --name")
	}

	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	sess := e.mustOpenSession(cmd.Context(), store)
	f, err := sess.Update(args[0], patch)
	exitOnError(err, "updating skill")
	mustCloseSession(sess)

	name := args[0]
	if patch.Name != nil {
		name = updateRename
	}
	outputChange("updated", name, f)
	return nil
}

func runSkillNormalize(cmd *cobra.Command, args []string) error {
	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	sess := e.mustOpenSession(cmd.Context(), store)
	f, err := sess.Replace(sess.Forest())
	exitOnError(err, "normalizing skills")
	mustCloseSession(sess)

	if humanOutput {
		fmt.Printf("Normalized %d skills for %s\n", skill.Count(f), sess.UserID())
		return nil
	}
	outputJSON(SkillChangeResponse{Status: "normalized", Count: skill.Count(f)})
	return nil
}

// outputChange reports an edit and the resulting tree size.
func outputChange(status, name string, f skill.Forest) {
	if humanOutput {
		fmt.Printf("%s %s %s\n", colorGood.Sprint(status), name, colorSubtle.Sprintf("(%d skills)", skill.Count(f)))
		return
	}
	outputJSON(SkillChangeResponse{Status: status, Name: name, Count: skill.Count(f)})
}
