package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/drafts"
	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/state"
)

var log = logging.New("CLI")

// stdin is shared by every prompt so buffered input is not lost between them.
var stdin = bufio.NewReader(os.Stdin)

// app holds the clients and local stores shared by the commands.
type app struct {
	cfg     *config.Config
	state   *state.File
	api     *api.Client
	chat    *chat.Service
	wiki    *confluence.Client // nil when the wiki is not configured
	drafts  *drafts.Store
	project string
}

func newApp(cfg *config.Config) (*app, error) {
	st := state.NewFile(cfg.State.Path)
	saved, err := st.Load()
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.ChatEndpoint(), cfg.RequestTimeout())
	svc := chat.NewService(client, chat.NewSession(st), chat.Options{
		Stream:         cfg.Chat.Stream,
		IncludeContext: cfg.Chat.IncludeContext,
		JiraNonStream:  cfg.Chat.JiraNonStream,
	})

	store, err := drafts.Open(cfg.Drafts.Dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		state:   st,
		api:     client,
		chat:    svc,
		drafts:  store,
		project: saved.Project,
	}
	if cfg.ConfluenceEnabled() {
		a.wiki = confluence.NewClient(confluence.Options{
			BaseURL:  cfg.Confluence.BaseURL,
			User:     cfg.Confluence.User,
			Token:    cfg.Confluence.Token,
			SpaceKey: cfg.Confluence.SpaceKey,
			Limit:    cfg.Confluence.Limit,
			Timeout:  cfg.RequestTimeout(),
		})
	}
	return a, nil
}

// requireWiki returns the wiki client, or ErrNotConfigured when the wiki
// credentials are missing.
func (a *app) requireWiki() (*confluence.Client, error) {
	if a.wiki == nil {
		return nil, confluence.ErrNotConfigured
	}
	return a.wiki, nil
}

// loadDocument reads the current project's draft and restores its review
// progress. A project without a draft yields an empty document.
func (a *app) loadDocument() (*brd.Document, error) {
	content, err := a.drafts.Read(a.project)
	if errors.Is(err, drafts.ErrNoDraft) {
		return brd.New(nil), nil
	}
	if err != nil {
		return nil, err
	}
	saved, err := a.state.Load()
	if err != nil {
		return nil, err
	}
	return restoreDocument(content, saved), nil
}

// restoreDocument parses content and applies the review progress in s.
func restoreDocument(content string, s state.State) *brd.Document {
	doc := brd.Parse(content)
	doc.SetCompleted(s.Reviewed)
	doc.Approved = s.Approved
	if i := doc.Find(s.Selected); i >= 0 {
		_ = doc.Select(i)
	}
	return doc
}

// requireDocument is loadDocument for commands that need sections.
func (a *app) requireDocument() (*brd.Document, error) {
	doc, err := a.loadDocument()
	if err != nil {
		return nil, err
	}
	if doc.Empty() {
		return nil, fmt.Errorf("no BRD draft for %s. Use 'brdesk upload' to create one", a.projectLabel())
	}
	return doc, nil
}

// saveDocument writes the draft and its review progress.
func (a *app) saveDocument(doc *brd.Document) error {
	if !doc.Empty() {
		if err := a.drafts.Write(a.project, doc.Markdown()); err != nil {
			return err
		}
	}
	return a.state.Update(func(s *state.State) {
		s.Reviewed = doc.Completed()
		s.Approved = doc.Approved
		if sec, _, ok := doc.Selected(); ok {
			s.Selected = sec.Title
		}
	})
}

// projectLabel names the current project for messages.
func (a *app) projectLabel() string {
	if a.project == "" {
		return "the default project"
	}
	return fmt.Sprintf("project %q", a.project)
}

// ask runs one chat turn on a scratch conversation and returns the reply.
func (a *app) ask(ctx context.Context, slot chat.Slot, text, sectionContext string) (string, error) {
	msg, err := a.chat.Send(ctx, chat.NewConversation(slot), text, sectionContext, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// confirm asks question on w and reads a yes/no answer from r.
func confirm(r io.Reader, w io.Writer, question string) bool {
	_, _ = fmt.Fprintf(w, "%s [y/N] ", question)
	response, _ := bufio.NewReader(r).ReadString('\n')
	return isYes(response)
}

// isYes reports whether response accepts a prompt.
func isYes(response string) bool {
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
