// Package bot glues the decision-tree engine to a chat transport: callback
// dispatch, menus, the fault card, and the linear report wizard.
package bot

import (
	"github.com/voltwrench/faultbot/pkg/engine"
)

// Transport renders engine views into a chat. Implementations own the
// platform quirks: edit failures fall back to fresh sends, photo views are
// sent rather than edited, and so on.
type Transport interface {
	// Send renders a view as a new message and returns its message id.
	Send(chatID int64, v engine.View) (int, error)
	// Edit re-renders an existing message in place where the platform allows
	// it, falling back to a fresh send otherwise. Returns the id of the
	// message that now shows the view (the same id on an in-place edit).
	Edit(chatID int64, messageID int, v engine.View) (int, error)
	// AnswerCallback acknowledges a button press so the client stops its
	// spinner.
	AnswerCallback(callbackID string) error
}

// Handler consumes classified transport events. Implemented by Bot; the
// transport's update loop feeds it.
type Handler interface {
	HandleMessage(chatID int64, text string)
	HandleCallback(chatID int64, messageID int, callbackID, data string)
}
