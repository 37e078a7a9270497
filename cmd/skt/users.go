package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/skilltree/internal/storage"
)

func init() {
	rootCmd.AddCommand(usersCmd)
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with a stored skill tree",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

// userLister is implemented by stores that can enumerate their users.
type userLister interface {
	ListUsers(ctx context.Context) ([]storage.UserSummary, error)
}

func runUsers(cmd *cobra.Command, args []string) error {
	e := mustLoadEnv()
	store := e.mustOpenStore()
	defer store.Close()

	lister, ok := store.(userLister)
	if !ok {
		exitWithError(ExitConfigError, "%s storage cannot list users", e.cfg.Storage)
	}
	users, err := lister.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if users == nil {
		users = []storage.UserSummary{}
	}

	if humanOutput {
		if len(users) == 0 {
			fmt.Println("No skill trees stored yet")
			return nil
		}
		for _, u := range users {
			marker := " "
			if u.UserID == e.cfg.UserID {
				marker = "*"
			}
			fmt.Printf("%s %-20s %4d skills  %s\n", marker, u.UserID, u.NodeCount, colorSubtle.Sprint(u.UpdatedAt))
		}
		return nil
	}
	outputJSON(UsersResponse{Users: users, Count: len(users)})
	return nil
}
