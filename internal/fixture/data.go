package fixture

import "time"

// Message is one line of a conversation.
type Message struct {
	From     string
	Content  string
	Created  time.Time
	IsSender bool
}

// Conversation is an entry of the conversation list.
type Conversation struct {
	ID       string
	Title    string
	Type     string
	Messages []Message
}

// Preview is the text shown under the title in the list.
func (c Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}

// Clock renders the time of the last message.
func (c Conversation) Clock() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Created.Format("15:04")
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// MockConversations is the archive the fixture serves: one day with an
// individual chat and a group chat, plus a quiet second contact.
func MockConversations() []Conversation {
	return []Conversation{
		{
			ID:    "friend_one",
			Title: "Friend One",
			Type:  "individual",
			Messages: []Message{
				{From: "Friend One", Content: "Hey! Did you see the photos from yesterday?", Created: at("2025-07-27T14:00:00Z")},
				{From: "Mock User", Content: "Not yet! Can you send them here?", Created: at("2025-07-27T14:02:00Z"), IsSender: true},
				{From: "Friend One", Content: "Check out this one!", Created: at("2025-07-27T14:05:00Z")},
			},
		},
		{
			ID:    "mock-group-1",
			Title: "Weekend Crew",
			Type:  "group",
			Messages: []Message{
				{From: "Friend Two", Content: "Who's up for brunch tomorrow?", Created: at("2025-07-27T16:30:00Z")},
				{From: "Mock User", Content: "Shared a voice note", Created: at("2025-07-27T16:32:00Z"), IsSender: true},
			},
		},
		{
			ID:    "friend_two",
			Title: "Friend Two",
			Type:  "individual",
			Messages: []Message{
				{From: "Friend Two", Content: "See you Saturday", Created: at("2025-07-26T19:10:00Z")},
			},
		},
	}
}
