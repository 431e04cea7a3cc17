package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login and server status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Printf("Server: %s\n", env.session.ServerURL())

	if !env.session.IsLoggedIn() {
		fmt.Println("Not logged in. Run 'taskpad auth login' or 'taskpad auth register'.")
		return nil
	}
	if !env.user.Present() {
		fmt.Println("Logged in, but the session was rejected; log in again.")
		return nil
	}

	fmt.Printf("Logged in as %s\n", env.user.Email)

	projects, err := env.fetchProjects(context.Background())
	if err != nil {
		fmt.Printf("Server unreachable: %v\n", err)
		return nil
	}
	fmt.Printf("Projects: %d\n", len(projects))
	return nil
}
