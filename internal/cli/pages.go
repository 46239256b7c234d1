package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/buker/brdesk/internal/tui/views"
	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Browse Confluence pages and turn them into Jira stories",
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages in the configured space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		wiki, err := a.requireWiki()
		if err != nil {
			return err
		}
		pages, err := wiki.ListPages(cmd.Context())
		if err != nil {
			return err
		}
		writePages(os.Stdout, wiki.SpaceKey(), pages)
		return nil
	},
}

var pagesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		wiki, err := a.requireWiki()
		if err != nil {
			return err
		}
		page, err := wiki.GetPage(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(shared.TitleStyle.Render(page.Title))
		fmt.Println(views.PageDetail(page, wiki.WebURL(page.Page), renderWidth))
		return nil
	},
}

var pagesStoryCmd = &cobra.Command{
	Use:   "story <id>",
	Short: "Create a Jira story from a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		result, err := a.api.CreateStoryFromPage(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if result.IssueKey != "" {
			fmt.Printf("Created %s\n", result.IssueKey)
		}
		if result.Message != "" {
			fmt.Println(result.Message)
		}
		return nil
	},
}

func init() {
	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesShowCmd)
	pagesCmd.AddCommand(pagesStoryCmd)
}

func writePages(w io.Writer, space string, pages []confluence.Page) {
	if len(pages) == 0 {
		_, _ = fmt.Fprintf(w, "No pages in space %s.\n", space)
		return
	}
	_, _ = fmt.Fprintf(w, "%-12s  %-48s  %4s  %s\n", "ID", "TITLE", "VER", "AUTHOR")
	for _, p := range pages {
		version := "-"
		if p.Version != nil {
			version = fmt.Sprintf("%d", p.Version.Number)
		}
		_, _ = fmt.Fprintf(w, "%-12s  %-48s  %4s  %s\n",
			p.ID, shared.Truncate(p.Title, 48), version, p.Version.Author())
	}
}
