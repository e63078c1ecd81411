package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned by Do for an action name outside the vocabulary.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidAction is returned by Do when a required action field is missing.
	ErrInvalidAction = errors.New("invalid action")
)

// ActionType names one operation of the action vocabulary.
type ActionType string

const (
	ActionOpenWebBrowser ActionType = "open_web_browser"
	ActionClickAt        ActionType = "click_at"
	ActionHoverAt        ActionType = "hover_at"
	ActionTypeTextAt     ActionType = "type_text_at"
	ActionScrollDocument ActionType = "scroll_document"
	ActionScrollAt       ActionType = "scroll_at"
	ActionWait5Seconds   ActionType = "wait_5_seconds"
	ActionGoBack         ActionType = "go_back"
	ActionGoForward      ActionType = "go_forward"
	ActionSearch         ActionType = "search"
	ActionNavigate       ActionType = "navigate"
	ActionKeyCombination ActionType = "key_combination"
	ActionDragAndDrop    ActionType = "drag_and_drop"
	ActionCurrentState   ActionType = "current_state"
)

// ActionTypes lists the whole vocabulary in a stable order.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionOpenWebBrowser, ActionClickAt, ActionHoverAt, ActionTypeTextAt,
		ActionScrollDocument, ActionScrollAt, ActionWait5Seconds, ActionGoBack,
		ActionGoForward, ActionSearch, ActionNavigate, ActionKeyCombination,
		ActionDragAndDrop, ActionCurrentState,
	}
}

// Action is a serialisable request for one executor operation, as produced by
// an external decision loop or read from a script.
type Action struct {
	Type              ActionType `json:"action" yaml:"action"`
	X                 int        `json:"x,omitempty" yaml:"x,omitempty"`
	Y                 int        `json:"y,omitempty" yaml:"y,omitempty"`
	DestinationX      int        `json:"destination_x,omitempty" yaml:"destination_x,omitempty"`
	DestinationY      int        `json:"destination_y,omitempty" yaml:"destination_y,omitempty"`
	Text              string     `json:"text,omitempty" yaml:"text,omitempty"`
	PressEnter        bool       `json:"press_enter,omitempty" yaml:"press_enter,omitempty"`
	ClearBeforeTyping bool       `json:"clear_before_typing,omitempty" yaml:"clear_before_typing,omitempty"`
	Direction         Direction  `json:"direction,omitempty" yaml:"direction,omitempty"`
	Magnitude         int        `json:"magnitude,omitempty" yaml:"magnitude,omitempty"` // scroll_at; 0 means DocumentScrollMagnitude
	URL               string     `json:"url,omitempty" yaml:"url,omitempty"`
	Keys              []string   `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// String summarises the action for logs and reports.
func (a Action) String() string {
	switch a.Type {
	case ActionClickAt, ActionHoverAt:
		return fmt.Sprintf("%s (%d, %d)", a.Type, a.X, a.Y)
	case ActionTypeTextAt:
		return fmt.Sprintf("%s (%d, %d) text: %q", a.Type, a.X, a.Y, a.Text)
	case ActionScrollDocument:
		return fmt.Sprintf("%s %s", a.Type, a.Direction)
	case ActionScrollAt:
		return fmt.Sprintf("%s (%d, %d) %s by %d", a.Type, a.X, a.Y, a.Direction, a.magnitude())
	case ActionNavigate:
		return fmt.Sprintf("%s → %s", a.Type, a.URL)
	case ActionKeyCombination:
		return fmt.Sprintf("%s %v", a.Type, a.Keys)
	case ActionDragAndDrop:
		return fmt.Sprintf("%s (%d, %d) → (%d, %d)", a.Type, a.X, a.Y, a.DestinationX, a.DestinationY)
	default:
		return string(a.Type)
	}
}

func (a Action) magnitude() int {
	if a.Magnitude == 0 {
		return DocumentScrollMagnitude
	}
	return a.Magnitude
}

// Do dispatches a to the matching executor operation.
func (e *Executor) Do(a Action) (*Snapshot, error) {
	switch a.Type {
	case ActionOpenWebBrowser:
		return e.OpenWebBrowser()
	case ActionClickAt:
		return e.ClickAt(a.X, a.Y)
	case ActionHoverAt:
		return e.HoverAt(a.X, a.Y)
	case ActionTypeTextAt:
		return e.TypeTextAt(a.X, a.Y, a.Text, a.PressEnter, a.ClearBeforeTyping)
	case ActionScrollDocument:
		return e.ScrollDocument(a.Direction)
	case ActionScrollAt:
		return e.ScrollAt(a.X, a.Y, a.Direction, a.magnitude())
	case ActionWait5Seconds:
		return e.Wait5Seconds()
	case ActionGoBack:
		return e.GoBack()
	case ActionGoForward:
		return e.GoForward()
	case ActionSearch:
		return e.Search()
	case ActionNavigate:
		if a.URL == "" {
			return nil, fmt.Errorf("%w: navigate needs a url", ErrInvalidAction)
		}
		return e.Navigate(a.URL)
	case ActionKeyCombination:
		return e.KeyCombination(a.Keys)
	case ActionDragAndDrop:
		return e.DragAndDrop(a.X, a.Y, a.DestinationX, a.DestinationY)
	case ActionCurrentState:
		return e.CurrentState()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, string(a.Type))
	}
}
