package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "rm <project> <task>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(2),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
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
	task, err := env.findTask(ctx, project.ID, args[1])
	if err != nil {
		return err
	}

	if env.cfg.ConfirmDelete {
		answer := promptLine(fmt.Sprintf("Delete task %q? [y/N] ", task.Text))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := env.gw.DeleteTask(ctx, task.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted %q\n", task.Text)
	return nil
}
