package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/state"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List, inspect and create BRD projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		projects, err := a.api.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		saved, err := a.state.Load()
		if err != nil {
			return err
		}
		writeProjects(os.Stdout, projects, saved.ProjectID)
		return nil
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		p, err := a.api.GetProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		writeProject(os.Stdout, p)
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := api.CreateProjectRequest{}
		req.Name, _ = cmd.Flags().GetString("name")
		req.Description, _ = cmd.Flags().GetString("description")
		req.JiraProjectKey, _ = cmd.Flags().GetString("jira-key")
		req.ConfluenceSpaceKey, _ = cmd.Flags().GetString("space-key")
		if err := req.Validate(); err != nil {
			return err
		}

		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		p, err := a.api.CreateProject(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectsUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a project the current one",
	Long: `Make a project the current one. Drafts, uploads and review progress
belong to the current project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		p, err := a.api.GetProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		err = a.state.Update(func(s *state.State) {
			if s.ProjectID != p.ID {
				s.Reviewed = nil
				s.Approved = false
				s.Selected = ""
			}
			s.ProjectID = p.ID
			s.Project = p.Name
		})
		if err != nil {
			return err
		}
		fmt.Printf("Now working on %s\n", p.Name)
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List BRD templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		templates, err := a.api.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		writeTemplates(os.Stdout, templates)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload source documents and store the generated BRD draft",
	Long: `Upload one or more documents to the service. When the service generates
a BRD from them, the draft becomes the current project's working copy and
its review progress starts over.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	projectsCreateCmd.Flags().String("name", "", "Project name (required)")
	projectsCreateCmd.Flags().String("description", "", "Project description")
	projectsCreateCmd.Flags().String("jira-key", "", "Jira project key")
	projectsCreateCmd.Flags().String("space-key", "", "Confluence space key")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsUseCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp(config.Get())
	if err != nil {
		return err
	}

	fmt.Printf("Uploading %d file(s)...\n", len(args))
	resp, err := a.api.UploadPaths(cmd.Context(), args)
	if err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	if !resp.HasDraft() {
		fmt.Println("No BRD draft was generated.")
		return nil
	}

	doc := brd.Parse(resp.GeneratedBRD.ContentPreview)
	if doc.Empty() {
		fmt.Println("The generated BRD has no sections.")
		return nil
	}
	if err := a.drafts.Write(a.project, doc.Markdown()); err != nil {
		return err
	}
	err = a.state.Update(func(s *state.State) {
		s.Reviewed = nil
		s.Approved = false
		s.Selected = doc.Sections[0].Title
	})
	if err != nil {
		return err
	}

	fmt.Printf("Stored BRD draft with %d sections for %s\n", doc.Len(), a.projectLabel())
	if url := resp.GeneratedBRD.FrontendURL; url != "" {
		fmt.Printf("View online: %s\n", url)
	}
	return nil
}

func writeProjects(w io.Writer, projects []api.Project, current string) {
	if len(projects) == 0 {
		_, _ = fmt.Fprintln(w, "No projects found.")
		return
	}
	_, _ = fmt.Fprintf(w, "  %-36s  %-28s  %-8s  %s\n", "ID", "NAME", "JIRA", "SPACE")
	for _, p := range projects {
		marker := " "
		if p.ID == current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %-36s  %-28s  %-8s  %s\n",
			marker, p.ID, shared.Truncate(p.Name, 28), p.JiraProjectKey, p.ConfluenceSpaceKey)
	}
}

func writeProject(w io.Writer, p *api.Project) {
	_, _ = fmt.Fprintf(w, "ID:          %s\n", p.ID)
	_, _ = fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	if p.JiraProjectKey != "" {
		_, _ = fmt.Fprintf(w, "Jira:        %s\n", p.JiraProjectKey)
	}
	if p.ConfluenceSpaceKey != "" {
		_, _ = fmt.Fprintf(w, "Space:       %s\n", p.ConfluenceSpaceKey)
	}
	if p.CreatedAt != "" {
		_, _ = fmt.Fprintf(w, "Created:     %s\n", p.CreatedAt)
	}
}

func writeTemplates(w io.Writer, templates []api.Template) {
	if len(templates) == 0 {
		_, _ = fmt.Fprintln(w, "No templates found.")
		return
	}
	for _, t := range templates {
		updated := t.UpdatedAt
		if updated == "" {
			updated = t.CreatedAt
		}
		_, _ = fmt.Fprintf(w, "%-36s  %-32s  %s\n", t.ID, shared.Truncate(t.Name, 32), strings.TrimSpace(updated))
	}
}
