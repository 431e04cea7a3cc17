package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List a project's tasks",
	Args:    cobra.ExactArgs(1),
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
}

func runList(cmd *cobra.Command, args []string) error {
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

	tasks, err := env.fetchTasks(ctx, project.ID)
	if err != nil {
		return err
	}

	shown := 0
	for _, t := range tasks {
		if t.Completed && !listAll {
			continue
		}
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		fmt.Printf("%s %s  %s\n", mark, shortID(t.ID), t.Text)
		shown++
	}

	if shown == 0 {
		if listAll {
			fmt.Printf("No tasks in %s.\n", project.Name)
		} else {
			fmt.Printf("No open tasks in %s. Use --all to include completed ones.\n", project.Name)
		}
	}
	return nil
}
