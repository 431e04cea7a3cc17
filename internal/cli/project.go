package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/sync"
)

var (
	projectColor     string
	projectEditName  string
	projectEditColor string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List projects",
	RunE:    runProjectList,
}

var projectEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Rename or recolor a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectEdit,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"delete"},
	Short:   "Delete a project and all its tasks",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

func init() {
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectAddCmd.Flags().StringVar(&projectColor, "color", "", "Project color (hex, e.g. #FF6B6B)")
	projectEditCmd.Flags().StringVar(&projectEditName, "name", "", "New project name")
	projectEditCmd.Flags().StringVar(&projectEditColor, "color", "", "New project color (hex)")
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	color := projectColor
	if color == "" {
		projects, err := env.fetchProjects(ctx)
		if err != nil {
			return err
		}
		color = model.DefaultColors[len(projects)%len(model.DefaultColors)]
	}

	project, err := env.gw.CreateProject(ctx, env.user.ID, model.ProjectCreate{
		Name:  args[0],
		Color: color,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created project %q (%s)\n", project.Name, shortID(project.ID))
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	projects, err := env.fetchProjects(context.Background())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet. Create one with 'taskpad project add <name>'.")
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%s  %-20s %s\n", shortID(p.ID), p.Name, p.Color)
	}
	return nil
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
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

	var payload model.ProjectUpdate
	if cmd.Flags().Changed("name") {
		payload.Name = &projectEditName
	}
	if cmd.Flags().Changed("color") {
		payload.Color = &projectEditColor
	}
	if payload.Name == nil && payload.Color == nil {
		return fmt.Errorf("nothing to change; pass --name and/or --color")
	}

	if err := env.gw.UpdateProject(ctx, project.ID, payload); err != nil {
		return err
	}

	name := project.Name
	if payload.Name != nil {
		name = *payload.Name
	}
	fmt.Printf("Updated project %q (%s)\n", name, shortID(project.ID))
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
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

	if env.cfg.ConfirmDelete {
		answer := promptLine(fmt.Sprintf("Delete project %q and all its tasks? [y/N] ", project.Name))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	res, err := sync.NewCascade(env.gw).DeleteProject(ctx, project)
	if err != nil {
		return err
	}

	if res.Partial() {
		if res.Err != nil {
			fmt.Printf("Project %q deleted, but its tasks could not be listed: %v\n", project.Name, res.Err)
		} else {
			fmt.Printf("Project %q deleted; %d of %d tasks removed, %d left behind: %s\n",
				project.Name, res.Deleted, res.Expected, len(res.Orphaned), strings.Join(res.Orphaned, ", "))
		}
		return nil
	}

	fmt.Printf("Deleted project %q and %d tasks.\n", project.Name, res.Deleted)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
