package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskpad/taskpad/internal/model"
)

var doneUndo bool

var doneCmd = &cobra.Command{
	Use:   "done <project> <task>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(2),
	RunE:  runDone,
}

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark the task as not completed instead")
}

func runDone(cmd *cobra.Command, args []string) error {
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

	completed := !doneUndo
	if task.Completed == completed {
		fmt.Printf("Task %q already in that state.\n", task.Text)
		return nil
	}

	if err := env.gw.UpdateTask(ctx, task.ID, model.TaskUpdate{Completed: &completed}); err != nil {
		return err
	}

	if completed {
		fmt.Printf("Completed %q\n", task.Text)
	} else {
		fmt.Printf("Reopened %q\n", task.Text)
	}
	return nil
}
