package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/buker/brdesk/internal/tui/views"
	"github.com/spf13/cobra"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Search and inspect Jira issues",
}

var issuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues matching a JQL query",
	Long: `List issues matching a JQL query (default jira.jql). The results can be
narrowed further with --search, --status and --type, which are applied
locally the same way the dashboard filter is.`,
	Args: cobra.NoArgs,
	RunE: runIssuesList,
}

var issuesShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show one issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		key := strings.ToUpper(strings.TrimSpace(args[0]))
		result, err := a.api.SearchIssues(cmd.Context(), issueJQL(key), 1)
		if err != nil {
			return err
		}
		found := jira.ToViews(result)
		i := jira.Find(found, key)
		if i < 0 {
			return fmt.Errorf("issue %s not found", key)
		}
		writeIssue(os.Stdout, found[i])
		return nil
	},
}

func init() {
	issuesListCmd.Flags().String("jql", "", "JQL query (default jira.jql)")
	issuesListCmd.Flags().String("search", "", "Only issues whose key, title or description contains this text")
	issuesListCmd.Flags().String("status", "", "Only issues with this status")
	issuesListCmd.Flags().String("type", "", "Only issues of this type")
	issuesListCmd.Flags().Int("max", 0, "Maximum results to fetch (default jira.max_results)")

	issuesCmd.AddCommand(issuesListCmd)
	issuesCmd.AddCommand(issuesShowCmd)
}

func runIssuesList(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	jql, _ := cmd.Flags().GetString("jql")
	if jql == "" {
		jql = cfg.Jira.JQL
	}
	maxResults, _ := cmd.Flags().GetInt("max")
	if maxResults <= 0 {
		maxResults = cfg.Jira.MaxResults
	}
	var filter jira.Filter
	filter.Search, _ = cmd.Flags().GetString("search")
	filter.Status, _ = cmd.Flags().GetString("status")
	filter.Type, _ = cmd.Flags().GetString("type")

	result, err := a.api.SearchIssues(cmd.Context(), jql, maxResults)
	if err != nil {
		return err
	}
	all := jira.ToViews(result)
	writeIssues(os.Stdout, filter.Apply(all), len(all))
	return nil
}

// issueJQL returns the query for a single issue key.
func issueJQL(key string) string {
	return fmt.Sprintf("key = %q", key)
}

func writeIssues(w io.Writer, issues []jira.View, total int) {
	if len(issues) == 0 {
		if total > 0 {
			_, _ = fmt.Fprintln(w, "No issues match the filter.")
		} else {
			_, _ = fmt.Fprintln(w, "No issues found.")
		}
		return
	}
	_, _ = fmt.Fprintf(w, "%-12s  %-10s  %-14s  %-4s  %s\n", "KEY", "TYPE", "STATUS", "PRI", "TITLE")
	for _, v := range issues {
		_, _ = fmt.Fprintf(w, "%-12s  %-10s  %-14s  %-4s  %s\n",
			v.Key,
			shared.Truncate(v.Type, 10),
			shared.Truncate(v.Status, 14),
			shared.PriorityAbbrev(v.Priority),
			shared.Truncate(v.Title, 60))
	}
	if len(issues) < total {
		_, _ = fmt.Fprintf(w, "\n%d of %d issues\n", len(issues), total)
	} else {
		_, _ = fmt.Fprintf(w, "\n%d issues\n", total)
	}
}

func writeIssue(w io.Writer, v jira.View) {
	_, _ = fmt.Fprintln(w, shared.TitleStyle.Render(v.Key+": "+v.Title))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, views.IssueDetail(v, renderWidth))
}
