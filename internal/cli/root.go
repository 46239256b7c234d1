// Package cli implements the command-line interface for brdesk using cobra.
// Without subcommands it opens the dashboard; the subcommands cover chat,
// projects, BRD drafts, wiki pages, Jira issues and configuration.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/dashboard"
	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/tui"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	rootCmd = &cobra.Command{
		Use:   "brdesk",
		Short: "Terminal dashboard for BRD authoring, wiki pages and Jira work",
		Long: `brdesk drafts and reviews Business Requirements Documents with a chat
assistant, publishes them to Confluence and browses the related Jira issues.

When run without subcommands, it opens the dashboard:
1. Overview with load progress and statistics
2. BRD sections with review progress and per-section chat
3. Confluence pages of the configured space
4. Jira issues with filtering`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			return logging.Setup(cfg.Debug, cfg.Log.File)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
		RunE: runDashboard,
	}
)

func init() {
	cobra.OnInitialize(config.Init)

	// Global flags
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("chat-url", "", "Chat endpoint (overrides api.chat_url)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Write debug output to a file")

	// Bind flags to viper
	config.BindFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(brdCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns any error encountered.
// This is the main entry point for the CLI application.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// The dashboard owns the terminal, so debug output goes to a file
	if cfg.Debug && cfg.Log.File == "" {
		path := filepath.Join(filepath.Dir(cfg.State.Path), "brdesk.log")
		if err := logging.Setup(true, path); err != nil {
			return err
		}
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	doc, err := a.loadDocument()
	if err != nil {
		return err
	}

	deps := tui.Deps{
		Chat:     a.chat,
		Stories:  a.api,
		SpaceKey: cfg.Confluence.SpaceKey,
		Document: doc,
		Project:  a.project,
		OnChange: func(d *brd.Document) {
			if err := a.saveDocument(d); err != nil {
				log.Debugf("failed to save draft: %v", err)
			}
		},
	}

	var wiki dashboard.Wiki
	if a.wiki != nil {
		wiki = a.wiki
		deps.Pages = a.wiki
		deps.PageURL = a.wiki.WebURL
		deps.SpaceKey = a.wiki.SpaceKey()
	}

	model := tui.NewModel(deps)
	loader := dashboard.NewLoader(a.api, wiki, cfg.Jira.JQL, cfg.Jira.MaxResults)
	program := tui.NewProgram(model, loader)
	if err := program.Run(cmd.Context()); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// shortHash returns a shortened version of a git hash (first 8 chars).
// Returns the full hash if it's shorter than 8 characters.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// pageLink returns the browser URL of p, or its id when the wiki has no link.
func pageLink(wiki *confluence.Client, p confluence.Page) string {
	if u := wiki.WebURL(p); u != "" {
		return u
	}
	return "page " + p.ID
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brdesk version %s\n", Version)
	},
}
