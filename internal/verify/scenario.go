package verify

import (
	"time"

	"github.com/chat-archive/uiverify/internal/config"
)

// Artifact file names written by the chat archive scenario.
const (
	ListViewScreenshot   = "verification_list_view.png"
	ChatViewScreenshot   = "verification_chat_view.png"
	BackToListScreenshot = "verification_back_to_list.png"
	ErrorScreenshot      = "error.png"
)

// Selectors the application under test must expose.
var (
	LoadingIndicator = Target{Kind: ByText, Value: "Loading..."}
	ConversationList = Target{Kind: ByCSS, Value: `div.w-full.md\:w-\[350px\]`}
	ConversationItem = Target{Kind: ByCSS, Value: `div[role='button']`, First: true}
	ChatHeaderTitle  = Target{Kind: ByTestID, Value: "chat-header-title"}
	BackToListButton = Target{Kind: ByLabel, Value: "Back to conversation list"}
)

// Action is what a step does with its target.
type Action int

const (
	Navigate Action = iota
	WaitHidden
	WaitVisible
	Click
)

func (a Action) String() string {
	switch a {
	case Navigate:
		return "navigate"
	case WaitHidden:
		return "wait-hidden"
	case WaitVisible:
		return "wait-visible"
	case Click:
		return "click"
	default:
		return "unknown"
	}
}

// Step is one blocking operation on the page. When Screenshot is set the
// page is captured to that file name after the action succeeds.
type Step struct {
	Name       string
	Action     Action
	URL        string
	Target     Target
	Timeout    time.Duration
	Screenshot string
}

// Scenario is an ordered list of steps run against one session.
type Scenario struct {
	Name    string
	BaseURL string
	Device  string
	Steps   []Step
}

// Screenshots lists the artifact names a fully passing run produces, in order.
func (s Scenario) Screenshots() []string {
	var names []string
	for _, step := range s.Steps {
		if step.Screenshot != "" {
			names = append(names, step.Screenshot)
		}
	}
	return names
}

// ChatArchiveScenario is the list → chat → list round trip of the archive viewer.
func ChatArchiveScenario(cfg *config.Config) Scenario {
	t := cfg.Timeouts
	return Scenario{
		Name:    "chat-archive-mobile",
		BaseURL: cfg.Target.BaseURL,
		Device:  cfg.Browser.Device,
		Steps: []Step{
			{Name: "open-app", Action: Navigate, URL: cfg.Target.BaseURL},
			{Name: "loading-hidden", Action: WaitHidden, Target: LoadingIndicator, Timeout: t.Loading},
			{Name: "list-view", Action: WaitVisible, Target: ConversationList, Timeout: t.ListView, Screenshot: ListViewScreenshot},
			{Name: "open-conversation", Action: Click, Target: ConversationItem},
			{Name: "chat-view", Action: WaitVisible, Target: ChatHeaderTitle, Timeout: t.ChatView, Screenshot: ChatViewScreenshot},
			{Name: "go-back", Action: Click, Target: BackToListButton},
			{Name: "back-to-list", Action: WaitVisible, Target: ConversationList, Timeout: t.BackToList, Screenshot: BackToListScreenshot},
		},
	}
}
