package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buker/brdesk/internal/stream"
)

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Message        string  `json:"message"`
	SessionID      *string `json:"session_id"`
	IncludeContext bool    `json:"include_context"`
	Stream         bool    `json:"stream"`
}

// ChatOptions controls a single chat turn.
type ChatOptions struct {
	// SectionContext, when set, wraps the message in the section edit envelope.
	SectionContext string
	Stream         bool
	IncludeContext bool
}

// sectionEditRules instruct the service to change only what the user asked for.
const sectionEditRules = `===CRITICAL RULES===
You must edit this BRD content following these ABSOLUTE rules:

1. TABLES - NEVER REFORMAT:
   - Keep EVERY | symbol in exact same position
   - Keep EVERY row that is NOT being deleted
   - If deleting row 9, ONLY remove that ONE row, keep rows 1-8 and 10 EXACTLY as they appear
   - DO NOT renumber rows (if original has 1,2,3,8 then keep it as 1,2,3,8)
   - DO NOT reorganize table structure
   - DO NOT change column widths or alignment
   - Copy the entire table except the specific row(s) to delete

2. FOR DELETIONS:
   - ONLY remove the exact text/row user specified
   - Copy everything else character-by-character from original
   - Do not adjust numbering of remaining items

3. FOR ADDITIONS:
   - Insert new content in requested location
   - Keep all surrounding content EXACTLY as original

4. FOR MODIFICATIONS:
   - Change ONLY the specific text mentioned
   - Keep all formatting markers (**, *, |, #, -, •) unchanged

5. NEVER:
   - Reformat tables
   - Renumber lists
   - Change spacing or line breaks
   - Reorganize structure
   - "Improve" or "clean up" anything

===OUTPUT===
Return the COMPLETE content with ONLY the requested change applied. Everything else must be IDENTICAL to the original.`

// BuildMessage returns the text sent for a user message. With section
// context the message is wrapped so the service edits that section in place.
func BuildMessage(message, sectionContext string) string {
	if sectionContext == "" {
		return message
	}
	return fmt.Sprintf("ORIGINAL BRD CONTENT (DO NOT CHANGE FORMATTING):\n%s\n\nUSER REQUEST: %s\n\n%s",
		sectionContext, message, sectionEditRules)
}

// Chat sends one chat turn and returns a decoder over the reply. session is
// the identifier from the previous turn, empty for a new conversation; the
// decoder reports the identifier to persist for the next turn.
//
// The request is not retried. Cancelling ctx aborts the reply mid-stream.
func (c *Client) Chat(ctx context.Context, message, session string, opts ChatOptions) (*stream.Decoder, error) {
	body := ChatRequest{
		Message:        BuildMessage(message, opts.SectionContext),
		IncludeContext: opts.IncludeContext,
		Stream:         opts.Stream,
	}
	if session != "" {
		body.SessionID = &session
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	log.Debugf("chat request (stream=%v, session=%q, length=%d)", opts.Stream, session, len(body.Message))
	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", stream.ErrStreamUnavailable, classify(err))
	}
	return stream.FromResponse(resp, !opts.Stream, session)
}
