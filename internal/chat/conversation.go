// Package chat keeps chat transcripts and drives one request/reply turn
// against the chat service.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Slot names one of the dashboard's independent conversations.
type Slot string

const (
	SlotOverview   Slot = "overview"
	SlotBRD        Slot = "brd"
	SlotConfluence Slot = "confluence"
	SlotJira       Slot = "jira"
	SlotDesign     Slot = "design"
)

// Slots lists every conversation slot in display order.
var Slots = []Slot{SlotOverview, SlotBRD, SlotConfluence, SlotJira, SlotDesign}

// ParseSlot returns the slot with the given name.
func ParseSlot(name string) (Slot, bool) {
	for _, s := range Slots {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

var greetings = map[Slot]string{
	SlotOverview:   "Hello! I'm your SDLC orchestration assistant. Ask about the project, its BRD, wiki pages or Jira work.",
	SlotBRD:        "Hello! I'm your BRD assistant. Pick a section, ask for changes, and reply \"reviewed\" when it is done.",
	SlotConfluence: "Ask me about the pages in this space.",
	SlotJira:       "Ask me about issues, sprints or the backlog.",
	SlotDesign:     "Hello! I'm your design assistant for architecture and system design.",
}

// Message is one entry in a transcript.
type Message struct {
	ID        string
	Content   string
	IsBot     bool
	Timestamp time.Time
	Loading   bool
}

// Conversation is an ordered transcript. It is not safe for concurrent use;
// the owner applies fragments from a single goroutine.
type Conversation struct {
	Slot     Slot
	Messages []Message

	now func() time.Time
}

// NewConversation creates a transcript opened with the slot's greeting.
func NewConversation(slot Slot) *Conversation {
	c := &Conversation{Slot: slot, now: time.Now}
	if g := greetings[slot]; g != "" {
		c.add(g, true, false)
	}
	return c
}

func (c *Conversation) add(content string, bot, loading bool) Message {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	m := Message{
		ID:        uuid.NewString(),
		Content:   content,
		IsBot:     bot,
		Timestamp: now(),
		Loading:   loading,
	}
	c.Messages = append(c.Messages, m)
	return m
}

// AddUser appends a user message.
func (c *Conversation) AddUser(text string) Message {
	return c.add(text, false, false)
}

// AddBot appends a complete bot message.
func (c *Conversation) AddBot(text string) Message {
	return c.add(text, true, false)
}

// AddPending appends an empty bot placeholder that is shown as loading until
// the first fragment arrives.
func (c *Conversation) AddPending() Message {
	return c.add("", true, true)
}

func (c *Conversation) index(id string) int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// AppendTo adds a reply fragment to message id.
func (c *Conversation) AppendTo(id, fragment string) {
	if i := c.index(id); i >= 0 {
		c.Messages[i].Content += fragment
		c.Messages[i].Loading = false
	}
}

// Complete marks message id as finished.
func (c *Conversation) Complete(id string) {
	if i := c.index(id); i >= 0 {
		c.Messages[i].Loading = false
	}
}

// Fail ends reply id after an error and appends the apology message. A reply
// that already received text is kept; an empty placeholder is removed.
func (c *Conversation) Fail(id string) Message {
	if i := c.index(id); i >= 0 {
		if c.Messages[i].Content != "" {
			c.Messages[i].Loading = false
		} else {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
		}
	}
	return c.add(ApologyMessage, true, false)
}

// Get returns message id.
func (c *Conversation) Get(id string) (Message, bool) {
	if i := c.index(id); i >= 0 {
		return c.Messages[i], true
	}
	return Message{}, false
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Book holds one conversation per slot.
type Book struct {
	convs map[Slot]*Conversation
}

// NewBook creates a conversation for every slot.
func NewBook() *Book {
	b := &Book{convs: make(map[Slot]*Conversation, len(Slots))}
	for _, s := range Slots {
		b.convs[s] = NewConversation(s)
	}
	return b
}

// Get returns the conversation for slot, creating it on first use.
func (b *Book) Get(slot Slot) *Conversation {
	c, ok := b.convs[slot]
	if !ok {
		c = NewConversation(slot)
		b.convs[slot] = c
	}
	return c
}
