package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/confluence"
	tea "github.com/charmbracelet/bubbletea"
)

var errChatNotConfigured = errors.New("chat is not configured")

// beginTurn opens the reply stream for text
func beginTurn(ctx context.Context, svc *chat.Service, text, section string) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return MsgChatError{Err: errChatNotConfigured}
		}
		turn, err := svc.Begin(ctx, text, section)
		if err != nil {
			return MsgChatError{Err: fmt.Errorf("failed to send message: %w", err)}
		}
		return MsgTurnStarted{Turn: turn}
	}
}

// nextFragment pulls one fragment from turn
func nextFragment(turn *chat.Turn) tea.Cmd {
	return func() tea.Msg {
		frag, err := turn.Next()
		switch {
		case errors.Is(err, io.EOF):
			return MsgChatDone{Turn: turn}
		case err != nil:
			return MsgChatError{Turn: turn, Err: fmt.Errorf("failed to read reply: %w", err)}
		}
		return MsgChatFragment{Turn: turn, Text: frag}
	}
}

// loadPage fetches a wiki page body
func loadPage(ctx context.Context, pages PageReader, id string) tea.Cmd {
	return func() tea.Msg {
		page, err := pages.GetPage(ctx, id)
		if err != nil {
			return MsgError{Err: fmt.Errorf("failed to load page %s: %w", id, err)}
		}
		return MsgPageLoaded{Page: page}
	}
}

// createStory creates a Jira story from page
func createStory(ctx context.Context, stories StoryCreator, page confluence.Page) tea.Cmd {
	return func() tea.Msg {
		result, err := stories.CreateStoryFromPage(ctx, page.ID)
		if err != nil {
			return MsgError{Err: fmt.Errorf("failed to create story from %q: %w", page.Title, err)}
		}
		return MsgStoryCreated{PageTitle: page.Title, Result: result}
	}
}
