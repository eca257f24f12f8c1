package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/strategist/internal/export"
	"github.com/abelbrown/strategist/internal/gateway"
	"github.com/abelbrown/strategist/internal/model"
)

var flagExportDir string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()

		projects, err := newClient(cfg, nil).ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDONE\tSTATUS\tCREATED")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
				p.ID, p.Name, p.CompletedArticles, p.TotalArticles, p.Status, p.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Write a project's opportunities to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()

		client := newClient(cfg, nil)
		projects, err := client.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		name := projectName(projects, args[0])

		exp, err := client.Export(ctx, args[0])
		if err != nil {
			return exportError(err, args[0], cfg.ServerURL)
		}

		dir := cfg.ResolvedExportDir()
		if flagExportDir != "" {
			dir = flagExportDir
		}
		path, err := export.WriteFile(dir, name, exp.Results, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d opportunities to %s\n", len(exp.Results), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportDir, "dir", "o", "", "output directory (overrides export_dir)")
}

// exportError names the project when the server does not know it.
func exportError(err error, id, server string) error {
	if gateway.IsNotFound(err) {
		return fmt.Errorf("no project %q on %s (see 'strategist projects')", id, server)
	}
	return fmt.Errorf("exporting: %w", err)
}

// projectName returns the name of project id, or id itself when unknown.
func projectName(projects []model.Project, id string) string {
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}
