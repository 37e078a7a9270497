package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/storage"
)

// Human output colors
var (
	colorTitle  = color.New(color.FgHiGreen, color.Bold)
	colorSubtle = color.New(color.FgHiBlack)
	colorGood   = color.New(color.FgGreen)
	colorBad    = color.New(color.FgRed)

	levelColors = map[skill.Level]*color.Color{
		skill.Beginner:     color.New(color.FgBlue),
		skill.Intermediate: color.New(color.FgGreen),
		skill.Advanced:     color.New(color.FgYellow),
		skill.Expert:       color.New(color.FgRed),
	}
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONCompact writes a value as compact JSON to stdout.
func outputJSONCompact(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorBad.Sprint("error:"), fmt.Sprintf(format, args...))
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "%s %s\n", colorBad.Sprint("error:"), msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitOnError exits with the code exitCodeFor assigns to err, if err is set.
func exitOnError(err error, context string) {
	if err != nil {
		exitWithError(exitCodeFor(err), "%s: %v", context, err)
	}
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SkillsResponse is the response for commands that return a forest.
type SkillsResponse struct {
	UserID string       `json:"user_id"`
	Count  int          `json:"count"`
	Skills skill.Forest `json:"skills"`
}

// SkillChangeResponse is the response for commands that edit a forest.
type SkillChangeResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// UsersResponse lists stored skill trees.
type UsersResponse struct {
	Users []storage.UserSummary `json:"users"`
	Count int                   `json:"count"`
}

// levelLabel returns l colored by proficiency.
func levelLabel(l skill.Level) string {
	l = skill.NormalizeLevel(l)
	if c, ok := levelColors[l]; ok {
		return c.Sprint(string(l))
	}
	return string(l)
}

// printForestHuman prints a forest as an indented tree.
func printForestHuman(userID string, f skill.Forest) {
	fmt.Printf("%s %s\n", colorTitle.Sprint(userID), colorSubtle.Sprintf("(%d skills)", skill.Count(f)))
	if len(f) == 0 {
		fmt.Println(colorSubtle.Sprint("  no skills yet; add one with 'skt skill add <name>'"))
		return
	}
	skill.Walk(f, func(n skill.Node, path []string) bool {
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", len(path)+1), n.Name, levelLabel(n.Level))
		return true
	})
}
