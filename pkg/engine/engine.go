// Package engine implements the decision-tree navigation core: it maps
// button presses to positions in authored fault trees, maintains the per-chat
// history stack, and resolves route/menu indirection.
package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/metrics"
	"github.com/voltwrench/faultbot/pkg/schema"
	"github.com/voltwrench/faultbot/pkg/session"
)

// FaultSource resolves packs and faults. Implemented by packs.Repository;
// tests inject fixtures.
type FaultSource interface {
	Pack(m schema.Manufacturer) *schema.Pack
	FaultByID(m schema.Manufacturer, id string) (*schema.Fault, bool)
}

// MenuRenderer builds the menu and fault-card views the engine exits into.
// Implemented by the bot's menu subsystem.
type MenuRenderer interface {
	RootMenu() View
	PackMenu(m schema.Manufacturer) View
	PackAll(m schema.Manufacturer) View
	FaultCard(m schema.Manufacturer, f *schema.Fault) View
}

// Config wires an Engine.
type Config struct {
	Source   FaultSource
	Sessions session.Store
	Bound    session.MessageStore
	Menus    MenuRenderer
	Media    *MediaResolver
	Metrics  *metrics.Recorder
	Log      *zap.Logger
}

// Engine is the navigation core. All operations are total: they always
// return a view (or ViewNone), never an error — content and session defects
// become in-chat warnings with working navigation.
type Engine struct {
	source   FaultSource
	sessions session.Store
	bound    session.MessageStore
	menus    MenuRenderer
	media    *MediaResolver
	rec      *metrics.Recorder
	log      *zap.Logger
}

// New creates an engine. Source and Menus are required; Sessions and Bound
// default to fresh in-memory stores.
func New(cfg Config) *Engine {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemory()
	}
	if cfg.Bound == nil {
		cfg.Bound = session.NewBoundCache(0)
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Engine{
		source:   cfg.Source,
		sessions: cfg.Sessions,
		bound:    cfg.Bound,
		menus:    cfg.Menus,
		media:    cfg.Media,
		rec:      cfg.Metrics,
		log:      cfg.Log,
	}
}

// Sessions exposes the session store for the dispatcher (report start and
// debug counts need it).
func (e *Engine) Sessions() session.Store { return e.sessions }

// ─── Menu entry points ──────────────────────────────────────────────

// ShowRootMenu clears the session and shows manufacturer selection.
func (e *Engine) ShowRootMenu(chatID int64) View {
	e.sessions.Clear(chatID)
	return e.menus.RootMenu()
}

// ShowPackMenu clears the session and shows one pack's fault menu.
func (e *Engine) ShowPackMenu(chatID int64, m schema.Manufacturer) View {
	e.sessions.Clear(chatID)
	return e.menus.PackMenu(m)
}

// ShowPackAll clears the session and shows one pack's full fault list.
func (e *Engine) ShowPackAll(chatID int64, m schema.Manufacturer) View {
	e.sessions.Clear(chatID)
	return e.menus.PackAll(m)
}

// ResetSession drops the chat-level session. Message-bound mirrors survive
// on purpose: buttons rendered before the reset keep working.
func (e *Engine) ResetSession(chatID int64) {
	e.sessions.Clear(chatID)
}

// ─── Fault card / tree entry ────────────────────────────────────────

// OpenFault binds the session to a fault with empty history and shows its
// card. The card is where troubleshooting starts from and where backward
// navigation terminates.
func (e *Engine) OpenFault(chatID int64, messageID int, m schema.Manufacturer, faultID string) View {
	fault, ok := e.source.FaultByID(m, faultID)
	if !ok {
		return e.contentDefect(m, "fault_missing",
			fmt.Sprintf("Fault %q is not in the current %s pack. It may have been renamed.", faultID, m))
	}
	st := e.sessions.Set(chatID, session.Patch{
		Pack:         &m,
		FaultID:      &fault.ID,
		History:      []string{},
		ResetAnswers: true,
	})
	e.mirror(chatID, messageID, st)
	return e.menus.FaultCard(m, fault)
}

// StartTree enters the active fault's decision tree at its start node.
func (e *Engine) StartTree(chatID int64, messageID int) View {
	st, ok := e.resolveState(chatID, messageID)
	if !ok || !st.Active() {
		return e.noActiveFault()
	}
	fault, found := e.source.FaultByID(st.Pack, st.FaultID)
	if !found {
		return e.contentDefect(st.Pack, "fault_missing",
			fmt.Sprintf("Fault %q is no longer in the %s pack.", st.FaultID, st.Pack))
	}
	if fault.Tree == nil || len(fault.Tree.Nodes) == 0 {
		return e.contentDefect(st.Pack, "tree_missing",
			"This fault has no troubleshooting tree.")
	}
	return e.RenderNode(chatID, messageID, st.Pack, fault, schema.NodeID(fault.Tree.Start))
}

// ─── Core operations ────────────────────────────────────────────────

// RenderNode resolves a node reference inside fault's tree (following route
// and menu-jump indirection), updates session history and the message-bound
// mirror, and builds the node view.
func (e *Engine) RenderNode(chatID int64, messageID int, m schema.Manufacturer, fault *schema.Fault, ref schema.NodeRef) View {
	switch ref.Kind {
	case schema.RefRoute:
		target, ok := e.source.FaultByID(ref.Pack, ref.Fault)
		if !ok || target.Tree == nil || len(target.Tree.Nodes) == 0 {
			e.log.Warn("route target unusable",
				zap.String("pack", string(ref.Pack)), zap.String("fault", ref.Fault))
			return e.contentDefect(m, "route_missing",
				"The linked procedure is unavailable in this content version.")
		}
		// Rebind to the target fault with a fresh history: routing is a
		// handover, not a detour, so back-navigation stays inside the
		// target tree.
		e.sessions.Set(chatID, session.Patch{
			Pack:         &ref.Pack,
			FaultID:      &target.ID,
			History:      []string{},
			ResetAnswers: true,
		})
		return e.RenderNode(chatID, messageID, ref.Pack, target, schema.NodeID(target.Tree.Start))

	case schema.RefMenu:
		// Exits the tree entirely: no history mutation, no mirror refresh.
		e.sessions.Clear(chatID)
		return e.menus.PackMenu(ref.Pack)
	}

	if fault.Tree == nil {
		return e.contentDefect(m, "tree_missing", "This fault has no troubleshooting tree.")
	}
	node, ok := fault.Tree.Nodes[ref.Node]
	if !ok {
		return e.contentDefect(m, "node_missing",
			fmt.Sprintf("Step %q is missing from this tree. The pack content needs fixing.", ref.Node))
	}

	st := e.sessions.Set(chatID, session.Patch{Pack: &m, FaultID: &fault.ID})
	st = e.sessions.PushHistory(chatID, ref.Node)
	e.mirror(chatID, messageID, st)

	e.rec.NodeRender(string(m))
	return e.nodeView(m, fault, ref.Node, node, st)
}

// Advance applies the option at the rendered positional index on the current
// node. Index resolution goes through the same guard filtering as rendering,
// so positions always line up with what the user saw.
func (e *Engine) Advance(chatID int64, messageID int, optionIndex int) View {
	st, ok := e.resolveState(chatID, messageID)
	if !ok || !st.Active() {
		return e.noActiveFault()
	}
	fault, found := e.source.FaultByID(st.Pack, st.FaultID)
	if !found {
		return e.contentDefect(st.Pack, "fault_missing",
			fmt.Sprintf("Fault %q is no longer in the %s pack.", st.FaultID, st.Pack))
	}
	if fault.Tree == nil {
		return e.contentDefect(st.Pack, "tree_missing", "This fault has no troubleshooting tree.")
	}

	current := st.CurrentNode(fault.Tree)
	node, ok := fault.Tree.Nodes[current]
	if !ok {
		return e.contentDefect(st.Pack, "node_missing",
			fmt.Sprintf("Step %q is missing from this tree.", current))
	}

	opts := visibleOptions(node, st, e.log)
	if optionIndex < 0 || optionIndex >= len(opts) {
		return e.contentDefect(st.Pack, "option_missing",
			"That choice is not available on this step anymore.")
	}
	opt := opts[optionIndex]
	if opt.Target.Kind == schema.RefNode && opt.Target.Node == "" {
		return e.contentDefect(st.Pack, "option_missing",
			"This choice has no destination yet. The pack content needs fixing.")
	}

	e.sessions.Set(chatID, session.Patch{Answers: map[string]string{current: opt.Label}})
	e.rec.Advance()
	return e.RenderNode(chatID, messageID, st.Pack, fault, opt.Target)
}

// GoBack steps back one node. At the first node it shows the fault card and
// empties the history — the designed terminal of backward navigation.
func (e *Engine) GoBack(chatID int64, messageID int) View {
	st, ok := e.resolveState(chatID, messageID)
	if !ok || !st.Active() {
		return View{Kind: ViewNone}
	}
	e.rec.Back()

	prev, more := e.sessions.PopHistory(chatID)
	if !more {
		fault, found := e.source.FaultByID(st.Pack, st.FaultID)
		if !found {
			return e.contentDefect(st.Pack, "fault_missing",
				fmt.Sprintf("Fault %q is no longer in the %s pack.", st.FaultID, st.Pack))
		}
		if cur, ok := e.sessions.Get(chatID); ok {
			e.mirror(chatID, messageID, cur)
		}
		return e.menus.FaultCard(st.Pack, fault)
	}

	fault, found := e.source.FaultByID(st.Pack, st.FaultID)
	if !found {
		return e.contentDefect(st.Pack, "fault_missing",
			fmt.Sprintf("Fault %q is no longer in the %s pack.", st.FaultID, st.Pack))
	}
	// RenderNode re-pushes prev, restoring the stack to its post-pop depth.
	return e.RenderNode(chatID, messageID, st.Pack, fault, schema.NodeID(prev))
}

// GoToPackMenu abandons the tree and returns to the active pack's menu,
// clearing the session. With no pack known it falls back to the root menu.
func (e *Engine) GoToPackMenu(chatID int64, messageID int) View {
	st, ok := e.resolveState(chatID, messageID)
	e.sessions.Clear(chatID)
	if !ok || st.Pack == "" {
		return e.menus.RootMenu()
	}
	return e.menus.PackMenu(st.Pack)
}

// BindMessage refreshes the message-bound mirror for a freshly sent message,
// so buttons on it recover state even after a later session reset.
func (e *Engine) BindMessage(chatID int64, messageID int) {
	if st, ok := e.sessions.Get(chatID); ok && st.Active() {
		e.mirror(chatID, messageID, st)
	}
}

// ─── Internals ──────────────────────────────────────────────────────

// resolveState implements the recovery algorithm: chat-level state wins; a
// miss falls back to the state bound to the originating message, which is
// promoted back to chat level. A fresh reset therefore beats stale
// per-message data, but old buttons survive resets for their own message.
func (e *Engine) resolveState(chatID int64, messageID int) (session.State, bool) {
	if st, ok := e.sessions.Get(chatID); ok {
		return st, true
	}
	if st, ok := e.bound.Get(chatID, messageID); ok {
		e.rec.Recovery()
		e.log.Debug("session recovered from message-bound state",
			zap.Int64("chat", chatID), zap.Int("message", messageID))
		return e.sessions.Set(chatID, session.PatchFrom(st)), true
	}
	return session.State{}, false
}

func (e *Engine) mirror(chatID int64, messageID int, st session.State) {
	if messageID == 0 {
		return
	}
	st.BoundMessageID = messageID
	e.bound.Set(chatID, messageID, st)
}

const emptyPromptPlaceholder = "(this step has no prompt text)"

func (e *Engine) nodeView(m schema.Manufacturer, fault *schema.Fault, nodeID string, node schema.DecisionNode, st session.State) View {
	prompt := strings.TrimSpace(node.Prompt)
	if prompt == "" {
		prompt = emptyPromptPlaceholder
	}

	var imagePath string
	if node.Image != "" {
		path, ok := e.media.Resolve(node.Image)
		if ok {
			imagePath = path
		} else {
			e.rec.ContentDefect("image_missing")
			prompt += "\n\n⚠ Reference image unavailable: " + node.Image
		}
	}

	var rows [][]Button
	for i, opt := range visibleOptions(node, st, e.log) {
		rows = append(rows, []Button{{
			Label: buttonLabel(opt.Label),
			Data:  CallbackTreeOption(i),
		}})
	}
	rows = append(rows,
		[]Button{{Label: "📝 Create report", Data: CallbackReport(m, fault.ID)}},
		[]Button{
			{Label: "⬅ Back", Data: CallbackTreeBack()},
			{Label: "📋 Pack menu", Data: CallbackTreeMenu()},
		},
	)

	return View{
		Kind:      ViewNode,
		Text:      fmt.Sprintf("🔧 %s\n\n%s", fault.Title, prompt),
		ImagePath: imagePath,
		Buttons:   rows,
	}
}

// contentDefect is the terminal view for authoring defects: a short warning
// plus a safe way back into the menus.
func (e *Engine) contentDefect(m schema.Manufacturer, kind, msg string) View {
	e.rec.ContentDefect(kind)
	back := Button{Label: "📋 Back to menu", Data: CallbackHome()}
	if m != "" {
		back = Button{Label: "📋 Back to menu", Data: CallbackPackMenu(m)}
	}
	return View{
		Kind:    ViewError,
		Text:    "⚠ " + msg,
		Buttons: [][]Button{{back}},
	}
}

// noActiveFault is the terminal view for tree buttons pressed without any
// recoverable session, e.g. right after a process restart.
func (e *Engine) noActiveFault() View {
	return View{
		Kind:    ViewError,
		Text:    "No fault is currently open. Pick a manufacturer to continue.",
		Buttons: [][]Button{{{Label: "🏠 Main menu", Data: CallbackHome()}}},
	}
}
