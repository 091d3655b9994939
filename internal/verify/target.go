package verify

import (
	"fmt"
	"time"
)

// LocatorKind selects how a Target is resolved on the page.
type LocatorKind int

const (
	// ByCSS resolves a CSS selector.
	ByCSS LocatorKind = iota
	// ByText matches elements whose text contains the value, case-insensitively.
	ByText
	// ByTestID matches the data-testid attribute.
	ByTestID
	// ByLabel matches the accessible label (aria-label, <label>, aria-labelledby).
	ByLabel
)

func (k LocatorKind) String() string {
	switch k {
	case ByCSS:
		return "css"
	case ByText:
		return "text"
	case ByTestID:
		return "testid"
	case ByLabel:
		return "label"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target identifies an element of the application under test.
type Target struct {
	Kind  LocatorKind
	Value string
	// First narrows a multi-element match to the first element in document order.
	First bool
}

func (t Target) String() string {
	s := t.Kind.String() + "=" + t.Value
	if t.First {
		s += " >> nth=0"
	}
	return s
}

// State is the element state a wait blocks for.
type State string

const (
	Visible State = "visible"
	Hidden  State = "hidden"
)

// Page is the part of a browser page the scenario drives. Every call blocks
// until it succeeds or its timeout elapses; a zero timeout means the driver default.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(target Target, state State, timeout time.Duration) error
	Click(target Target, timeout time.Duration) error
	Screenshot(path string) error
}

// Session is a page together with the browser resources that back it.
// Close releases all of them and is safe to call more than once.
type Session interface {
	Page
	Close() error
}

// Launcher acquires a fresh browser session for one run.
type Launcher interface {
	Launch() (Session, error)
}
