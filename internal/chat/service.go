package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/stream"
)

var log = logging.New("CHAT")

const (
	// ApprovalReply answers the "approved" command without a network call.
	ApprovalReply = "All sections have been approved. You can download the BRD and push it to Confluence."

	// ApologyMessage replaces a reply that failed.
	ApologyMessage = "Sorry, I couldn't process your message right now. This might be due to network issues or the API not being publicly accessible. Please try again later."
)

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("message is empty")

var jiraRe = regexp.MustCompile(`(?i)jira|issue|ticket|bug|story|epic|assignee|task|sprint|backlog`)

// IsJiraQuery reports whether text mentions Jira work items.
func IsJiraQuery(text string) bool {
	return jiraRe.MatchString(text)
}

func isCommand(text, cmd string) bool {
	return strings.EqualFold(strings.TrimSpace(text), cmd)
}

// IsApproval reports whether text is the "approved" command.
func IsApproval(text string) bool { return isCommand(text, "approved") }

// IsReviewed reports whether text is the "reviewed" command.
func IsReviewed(text string) bool { return isCommand(text, "reviewed") }

// Sender opens a chat reply stream.
type Sender interface {
	Chat(ctx context.Context, message, session string, opts api.ChatOptions) (*stream.Decoder, error)
}

// Options controls how requests are sent.
type Options struct {
	Stream         bool
	IncludeContext bool
	// JiraNonStream asks for a single JSON reply when a message is about Jira.
	JiraNonStream bool
}

// Service sends messages and applies replies to conversations.
type Service struct {
	sender  Sender
	session *Session
	opts    Options

	// OnApproved runs when the user approves the BRD.
	OnApproved func()
	// OnReviewed runs after a successful reply to "reviewed".
	OnReviewed func()
}

// NewService creates a chat service.
func NewService(sender Sender, session *Session, opts Options) *Service {
	if session == nil {
		session = NewSession(nil)
	}
	return &Service{sender: sender, session: session, opts: opts}
}

// Session returns the session shared by all turns.
func (s *Service) Session() *Session {
	return s.session
}

// RequestOptions returns the options used for text.
func (s *Service) RequestOptions(text, sectionContext string) api.ChatOptions {
	opts := api.ChatOptions{
		SectionContext: sectionContext,
		Stream:         s.opts.Stream,
		IncludeContext: s.opts.IncludeContext,
	}
	if s.opts.JiraNonStream && IsJiraQuery(text) {
		opts.Stream = false
	}
	return opts
}

// Turn is one in-flight reply. Fragments are pulled with Next.
type Turn struct {
	Text string

	dec     *stream.Decoder
	session *Session
	done    bool
}

// Begin reloads the session and opens the reply stream for text.
func (s *Service) Begin(ctx context.Context, text, sectionContext string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	s.session.Reload()
	opts := s.RequestOptions(text, sectionContext)
	log.Debugf("sending message (stream=%v, section=%v, session=%q)", opts.Stream, sectionContext != "", s.session.ID())

	dec, err := s.sender.Chat(ctx, text, s.session.ID(), opts)
	if err != nil {
		return nil, err
	}
	return &Turn{Text: text, dec: dec, session: s.session}, nil
}

// Next returns the next reply fragment, or io.EOF when the reply is complete.
// The session id reported by the server is saved at the end of the reply.
func (t *Turn) Next() (string, error) {
	if t.done {
		return "", io.EOF
	}
	frag, err := t.dec.Next()
	if err == nil {
		return frag, nil
	}
	t.done = true
	_ = t.dec.Close()
	if n := t.dec.Skipped(); n > 0 {
		log.Debugf("reply had %d undecodable events", n)
	}
	if errors.Is(err, io.EOF) {
		if serr := t.session.Update(t.dec.SessionID()); serr != nil {
			log.Debugf("failed to save session: %v", serr)
		}
	}
	return "", err
}

// Close releases the reply stream.
func (t *Turn) Close() error {
	t.done = true
	return t.dec.Close()
}

// Send runs a whole turn on conv: the user message is appended, then the bot
// reply is accumulated fragment by fragment. onFragment may be nil. The
// returned message is the final bot message, which is the apology text when
// the request failed.
func (s *Service) Send(ctx context.Context, conv *Conversation, text, sectionContext string, onFragment func(string)) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	conv.AddUser(text)

	if IsApproval(text) {
		if s.OnApproved != nil {
			s.OnApproved()
		}
		return conv.AddBot(ApprovalReply), nil
	}

	reply := conv.AddPending()
	turn, err := s.Begin(ctx, text, sectionContext)
	if err != nil {
		return conv.Fail(reply.ID), fmt.Errorf("failed to send message: %w", err)
	}
	defer turn.Close()

	for {
		frag, err := turn.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return conv.Fail(reply.ID), fmt.Errorf("failed to read reply: %w", err)
		}
		conv.AppendTo(reply.ID, frag)
		if onFragment != nil {
			onFragment(frag)
		}
	}
	conv.Complete(reply.ID)

	if IsReviewed(text) && s.OnReviewed != nil {
		s.OnReviewed()
	}
	msg, _ := conv.Get(reply.ID)
	return msg, nil
}
