package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/drafts"
	"github.com/buker/brdesk/internal/markdown"
	"github.com/buker/brdesk/internal/state"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/buker/brdesk/internal/tui/views"
	"github.com/spf13/cobra"
)

var brdCmd = &cobra.Command{
	Use:   "brd",
	Short: "Review, edit, version and publish the current BRD draft",
}

var brdSectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the draft's sections with review progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		doc, err := a.requireDocument()
		if err != nil {
			return err
		}
		writeSections(os.Stdout, doc)
		return nil
	},
}

var brdReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Walk through the sections and mark them reviewed",
	Long: `Walk through the draft from the selected section. Each section can be
marked reviewed, edited with the assistant, skipped, or the review stopped.
Edits are shown as a diff and only stored after confirmation.`,
	Args: cobra.NoArgs,
	RunE: runBRDReview,
}

var brdEditCmd = &cobra.Command{
	Use:   "edit <section> [request...]",
	Short: "Ask the assistant to change one section",
	Long: `Ask the assistant to change one section, given by number or title. The
request is read from the arguments or prompted for. The proposed change is
shown as a diff before it is applied.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBRDEdit,
}

var brdDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Render the draft as a Word document",
	Args:  cobra.NoArgs,
	RunE:  runBRDDownload,
}

var brdPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the draft to Confluence",
	Long: `Publish the draft to the configured Confluence space. A page with the
same title is updated to its next version; otherwise a page is created
under confluence.parent_id.`,
	Args: cobra.NoArgs,
	RunE: runBRDPublish,
}

var brdSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the draft as a new revision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		hash, err := a.drafts.Save(a.project, message)
		if errors.Is(err, drafts.ErrNoChanges) {
			fmt.Println("No changes to save.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Saved revision %s\n", shortHash(hash))
		return nil
	},
}

var brdHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved revisions of the draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		revs, err := a.drafts.History(a.project, limit)
		if err != nil {
			return err
		}
		writeHistory(os.Stdout, revs)
		return nil
	},
}

var brdDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show unsaved changes to the draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		diff, err := a.drafts.Diff(a.project)
		if errors.Is(err, drafts.ErrNoChanges) {
			fmt.Println("No unsaved changes.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Print(views.RenderDiff(diff))
		return nil
	},
}

var brdShowCmd = &cobra.Command{
	Use:   "show [revision]",
	Short: "Print the draft, or a saved revision of it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		var content string
		if len(args) == 0 {
			content, err = a.drafts.Read(a.project)
		} else {
			content, err = a.revision(args[0])
		}
		if err != nil {
			return err
		}
		fmt.Println(markdown.NewRenderer(renderWidth, shared.MarkdownTheme).RenderText(content))
		return nil
	},
}

func init() {
	brdDownloadCmd.Flags().StringP("output", "o", "", "Output file (default <project>.docx)")
	brdPublishCmd.Flags().StringP("title", "t", "", "Page title (default \"<project> BRD\")")
	brdPublishCmd.Flags().BoolP("force", "f", false, "Publish even if the draft is not approved")
	brdSaveCmd.Flags().StringP("message", "m", "", "Revision message")
	brdHistoryCmd.Flags().IntP("limit", "n", 20, "Maximum revisions to list (0 for all)")
	brdEditCmd.Flags().BoolP("yes", "y", false, "Apply the change without asking")

	brdCmd.AddCommand(brdSectionsCmd)
	brdCmd.AddCommand(brdReviewCmd)
	brdCmd.AddCommand(brdEditCmd)
	brdCmd.AddCommand(brdDownloadCmd)
	brdCmd.AddCommand(brdPublishCmd)
	brdCmd.AddCommand(brdSaveCmd)
	brdCmd.AddCommand(brdHistoryCmd)
	brdCmd.AddCommand(brdDiffCmd)
	brdCmd.AddCommand(brdShowCmd)
}

// editFunc asks the assistant for the new content of a section.
func (a *app) editFunc() brd.EditFunc {
	return func(ctx context.Context, sec brd.Section, request string) (string, error) {
		sectionContext := sec.Content
		if sectionContext == "" {
			sectionContext = sec.Description
		}
		return a.ask(ctx, chat.SlotBRD, request, sectionContext)
	}
}

func runBRDReview(cmd *cobra.Command, args []string) error {
	a, err := newApp(config.Get())
	if err != nil {
		return err
	}
	doc, err := a.requireDocument()
	if err != nil {
		return err
	}
	if doc.Approved {
		fmt.Println("The draft is already approved.")
		return nil
	}

	reviewer := brd.NewReviewer(stdin, os.Stdout, a.editFunc())
	stats := reviewer.Run(cmd.Context(), doc)
	if stats.Reviewed == 0 && stats.Edited == 0 {
		return nil
	}
	return a.saveDocument(doc)
}

func runBRDEdit(cmd *cobra.Command, args []string) error {
	a, err := newApp(config.Get())
	if err != nil {
		return err
	}
	doc, err := a.requireDocument()
	if err != nil {
		return err
	}
	i, err := doc.Lookup(args[0])
	if err != nil {
		return err
	}
	_ = doc.Select(i)
	sec := doc.Sections[i]

	request := strings.TrimSpace(strings.Join(args[1:], " "))
	if request == "" {
		fmt.Printf("Editing %q. Describe the change: ", sec.Title)
		request, _ = readLine(stdin)
		if request == "" {
			return fmt.Errorf("no change requested")
		}
	}

	fmt.Println("Asking the assistant...")
	reply, err := a.editFunc()(cmd.Context(), sec, request)
	if err != nil {
		return err
	}
	e, err := doc.ProposeEdit(i, reply)
	if err != nil {
		return err
	}
	if e.Empty() {
		fmt.Println("The reply does not change the section.")
		return nil
	}

	fmt.Println()
	fmt.Print(views.RenderDiff(e.Diff))
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(stdin, os.Stdout, "\nApply this change?") {
		fmt.Println("Edit discarded.")
		return nil
	}
	if err := doc.Apply(e); err != nil {
		return err
	}
	if err := a.saveDocument(doc); err != nil {
		return err
	}
	fmt.Printf("Updated %q. Use 'brdesk brd save' to keep a revision.\n", sec.Title)
	return nil
}

func runBRDDownload(cmd *cobra.Command, args []string) error {
	a, err := newApp(config.Get())
	if err != nil {
		return err
	}
	doc, err := a.requireDocument()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = api.DocxName(documentName(a.project))
	}
	data, err := a.api.DownloadBRD(cmd.Context(), doc.Text(), output)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
	return nil
}

func runBRDPublish(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	wiki, err := a.requireWiki()
	if err != nil {
		return err
	}
	doc, err := a.requireDocument()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	if !doc.Approved && !force {
		return fmt.Errorf("the draft is not approved. Send \"approved\" in chat or use --force")
	}

	parentID, err := parseParentID(cfg.Confluence.ParentID)
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = pageTitle(a.project)
	}

	page, updated, err := wiki.Publish(cmd.Context(), wiki.SpaceKey(), title, publishStorage(doc), parentID)
	if err != nil {
		return err
	}
	if err := a.state.Update(func(s *state.State) { s.PageID = page.ID }); err != nil {
		return err
	}
	verb := "Created"
	if updated {
		verb = "Updated"
	}
	fmt.Printf("%s %q: %s\n", verb, page.Title, pageLink(wiki, *page))
	return nil
}

// revision resolves an abbreviated hash against the draft's history and
// returns that revision's content.
func (a *app) revision(ref string) (string, error) {
	revs, err := a.drafts.History(a.project, 0)
	if err != nil {
		return "", err
	}
	hash, err := matchRevision(revs, ref)
	if err != nil {
		return "", err
	}
	return a.drafts.At(a.project, hash)
}

// matchRevision returns the full hash of the only revision starting with ref.
func matchRevision(revs []drafts.Revision, ref string) (string, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return "", fmt.Errorf("empty revision")
	}
	var found string
	for _, r := range revs {
		if strings.HasPrefix(r.Hash, ref) {
			if found != "" {
				return "", fmt.Errorf("revision %s is ambiguous", ref)
			}
			found = r.Hash
		}
	}
	if found == "" {
		return "", fmt.Errorf("no revision %s", ref)
	}
	return found, nil
}

// publishStorage renders every section as wiki storage HTML.
func publishStorage(doc *brd.Document) string {
	var b strings.Builder
	for i, s := range doc.Sections {
		b.WriteString(confluence.SectionStorage(s.Title, doc.Context(i)))
	}
	return b.String()
}

// parseParentID reads confluence.parent_id. Empty and "0" mean no parent.
func parseParentID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid confluence.parent_id %q", s)
	}
	return id, nil
}

// documentName is the base name for exported files.
func documentName(project string) string {
	if project == "" {
		return "BRD_Document"
	}
	return strings.TrimSuffix(drafts.FileName(project), ".md") + "_BRD"
}

// pageTitle is the default wiki page title for project.
func pageTitle(project string) string {
	if project == "" {
		return "BRD Document"
	}
	return project + " BRD"
}

func writeSections(w io.Writer, doc *brd.Document) {
	_, selected, _ := doc.Selected()
	for i, s := range doc.Sections {
		cursor := " "
		if i == selected {
			cursor = ">"
		}
		mark := " "
		if doc.IsCompleted(s.Title) {
			mark = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s [%s] %2d. %s\n", cursor, mark, i+1, s.Title)
		if s.Description != "" {
			_, _ = fmt.Fprintf(w, "          %s\n", s.Description)
		}
	}
	done, total := doc.Progress()
	status := fmt.Sprintf("%d/%d sections reviewed", done, total)
	if doc.Approved {
		status += ", approved"
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", status)
}

func writeHistory(w io.Writer, revs []drafts.Revision) {
	if len(revs) == 0 {
		_, _ = fmt.Fprintln(w, "No saved revisions.")
		return
	}
	for _, r := range revs {
		_, _ = fmt.Fprintf(w, "%s  %s  %s\n", r.Short(), r.When.Format("2006-01-02 15:04"), r.Message)
	}
}

// readLine reads one trimmed line from r.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
