package engine

import (
	"github.com/mattn/go-runewidth"
)

// ViewKind classifies what a view shows, mostly for tests and logging; the
// transport renders every kind the same way (text or photo plus buttons).
type ViewKind int

const (
	// ViewNone means "nothing to render" — the dispatcher only acks the
	// callback. Used when goBack arrives with no state at all.
	ViewNone ViewKind = iota
	// ViewText is a plain text reply outside tree navigation (wizard
	// prompts, command responses).
	ViewText
	ViewNode
	ViewFaultCard
	ViewRootMenu
	ViewPackMenu
	ViewFaultList
	ViewError
)

// Button is one inline keyboard button: a label and an opaque callback token.
type Button struct {
	Label string
	Data  string
}

// View is the renderable outcome of an engine operation. Every operation is
// total: whatever happens, the user gets a view with at least one working
// navigation button (except ViewNone).
type View struct {
	Kind ViewKind
	Text string
	// ImagePath is a resolvable local file for a photo render; empty means
	// text render.
	ImagePath string
	Buttons   [][]Button
}

// maxButtonLabel keeps labels inside what chat clients render without
// ellipsizing mid-word themselves.
const maxButtonLabel = 32

// buttonLabel truncates a label to the display limit, width-aware for CJK
// and emoji.
func buttonLabel(s string) string {
	return runewidth.Truncate(s, maxButtonLabel, "…")
}
