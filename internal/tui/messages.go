package tui

import (
	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/dashboard"
	"github.com/buker/brdesk/internal/jira"
)

// Messages for updating the TUI from outside

// MsgSourceStatus is sent when a dashboard source changes load status
type MsgSourceStatus struct {
	Source dashboard.Source
	Status dashboard.Status
}

// MsgDataLoaded is sent when all dashboard sources have finished
type MsgDataLoaded struct {
	Data    *dashboard.Data
	Results []*dashboard.Result
}

// MsgTurnStarted is sent when the chat service accepted a message and the
// reply stream is open
type MsgTurnStarted struct {
	Turn *chat.Turn
}

// MsgChatFragment carries one reply fragment. Each fragment is pulled by its
// own command, so the transcript updates as the reply streams in.
type MsgChatFragment struct {
	Turn *chat.Turn
	Text string
}

// MsgChatDone is sent when the reply stream is exhausted
type MsgChatDone struct {
	Turn *chat.Turn
}

// MsgChatError is sent when a chat request or its stream fails. Turn is nil
// when the request never started.
type MsgChatError struct {
	Turn *chat.Turn
	Err  error
}

// MsgPageLoaded is sent when a wiki page body has been fetched
type MsgPageLoaded struct {
	Page *confluence.PageDetails
}

// MsgStoryCreated is sent when a Jira story was created from a wiki page
type MsgStoryCreated struct {
	PageTitle string
	Result    *jira.StoryResult
}

// MsgError reports a failed background action as a notice
type MsgError struct {
	Err error
}

// MsgQuit is sent to quit the application
type MsgQuit struct{}
