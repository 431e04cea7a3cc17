package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear <project>",
	Short: "Delete all completed tasks in a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
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

	tasks, err := env.gw.ProjectTasks(ctx, project.ID, env.cfg.TaskOrderDesc)
	if err != nil {
		return err
	}

	// Independent per-task deletes; report the ones that failed rather
	// than stopping at the first.
	cleared := 0
	var failed []string
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		if err := env.gw.DeleteTask(ctx, t.ID); err != nil {
			failed = append(failed, shortID(t.ID))
			continue
		}
		cleared++
	}

	if len(failed) > 0 {
		fmt.Printf("Cleared %d completed tasks; %d could not be deleted: %v\n", cleared, len(failed), failed)
		return nil
	}
	if cleared == 0 {
		fmt.Printf("No completed tasks in %s.\n", project.Name)
		return nil
	}
	fmt.Printf("Cleared %d completed tasks from %s.\n", cleared, project.Name)
	return nil
}
