package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/markdown"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/spf13/cobra"
)

// renderWidth is the wrap width for Markdown printed by commands.
const renderWidth = 100

func init() {
	chatCmd.Flags().Bool("no-stream", false, "Ask for a single JSON reply instead of an event stream")
	chatCmd.Flags().StringP("section", "s", "", "Send with the content of a BRD section (number or title)")
	chatCmd.Flags().String("view", string(chat.SlotOverview), "Conversation the message belongs to (overview, brd, confluence, jira, design)")
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the assistant",
	Long: `Send one message to the chat assistant and print the reply.

Fragments are printed as they arrive, followed by the rendered reply.
With --section the message is sent together with that section of the
current BRD draft. Replying "reviewed" marks the section as reviewed and
"approved" approves the whole draft without contacting the service.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	noStream, _ := cmd.Flags().GetBool("no-stream")
	if noStream {
		cfg.Chat.Stream = false
	}
	view, _ := cmd.Flags().GetString("view")
	slot, ok := chat.ParseSlot(view)
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	sectionRef, _ := cmd.Flags().GetString("section")
	text := strings.Join(args, " ")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	doc, err := a.loadDocument()
	if err != nil {
		return err
	}

	sectionContext := ""
	if sectionRef != "" {
		i, err := doc.Lookup(sectionRef)
		if err != nil {
			return err
		}
		_ = doc.Select(i)
		if !chat.IsReviewed(text) {
			sectionContext = doc.Context(i)
		}
	}

	a.chat.OnApproved = func() { doc.Approved = true }
	a.chat.OnReviewed = func() {
		if sectionRef != "" {
			doc.MarkReviewed()
		}
	}

	streamed := false
	msg, err := a.chat.Send(ctx, chat.NewConversation(slot), text, sectionContext, func(frag string) {
		streamed = true
		fmt.Print(frag)
	})
	if streamed {
		fmt.Println()
		fmt.Println(strings.Repeat("-", 40))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, msg.Content)
		return err
	}

	fmt.Println(markdown.NewRenderer(renderWidth, shared.MarkdownTheme).RenderText(msg.Content))

	if chat.IsApproval(text) || (chat.IsReviewed(text) && sectionRef != "") {
		if err := a.saveDocument(doc); err != nil {
			return err
		}
		done, total := doc.Progress()
		fmt.Printf("\nProgress: %d/%d sections reviewed\n", done, total)
	}
	return nil
}
