package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskpad/taskpad/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add <project> <text...>",
	Short: "Add a task to a project",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	project, err := env.findProject(ctx, args[0])
	if err != nil {
		return err
	}

	text := strings.Join(args[1:], " ")
	task, err := env.gw.CreateTask(ctx, project.ID, model.TaskCreate{Text: text})
	if err != nil {
		return err
	}

	fmt.Printf("Added %q to %s (%s)\n", task.Text, project.Name, shortID(task.ID))
	return nil
}
