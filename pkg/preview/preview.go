// Package preview is an author tool: it walks a pack's fault trees in the
// terminal with the same navigation semantics the chat bot applies, so pack
// authors can check flow and guard behavior before deploying.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltwrench/faultbot/pkg/engine"
	"github.com/voltwrench/faultbot/pkg/schema"
	"github.com/voltwrench/faultbot/pkg/session"
)

type mode int

const (
	modeFaults mode = iota
	modeCard
	modeNode
)

// faultItem adapts a fault to the bubbles list delegate.
type faultItem struct {
	fault schema.Fault
}

func (i faultItem) Title() string { return i.fault.Title }
func (i faultItem) Description() string {
	switch {
	case i.fault.Tree != nil:
		return fmt.Sprintf("%s · %d steps", i.fault.ID, len(i.fault.Tree.Nodes))
	default:
		return i.fault.ID + " · response only"
	}
}
func (i faultItem) FilterValue() string { return i.fault.ID + " " + i.fault.Title }

// Model drives the preview session for one pack. Route targets resolve
// through source, so cross-pack routes work when the whole pack directory is
// loaded.
type Model struct {
	source engine.FaultSource
	pack   *schema.Pack

	mode  mode
	fault *schema.Fault
	// cursor mirrors the chat session: fault binding, history stack, answers.
	cursor session.State

	faults list.Model
	width  int
	height int
	notice string
}

func New(source engine.FaultSource, pack *schema.Pack) Model {
	items := make([]list.Item, 0, len(pack.Faults))
	for _, f := range pack.Faults {
		items = append(items, faultItem{fault: f})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s — %d faults", pack.Manufacturer, len(pack.Faults))
	l.SetShowStatusBar(false)

	return Model{source: source, pack: pack, faults: l}
}

// Run blocks until the author quits the preview.
func Run(source engine.FaultSource, pack *schema.Pack) error {
	_, err := tea.NewProgram(New(source, pack), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.faults.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFaults:
			return m.updateFaults(msg)
		case modeCard:
			return m.updateCard(msg)
		case modeNode:
			return m.updateNode(msg)
		}
	}
	return m, nil
}

func (m Model) updateFaults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if !m.faults.SettingFilter() {
			return m, tea.Quit
		}
	case "enter":
		if it, ok := m.faults.SelectedItem().(faultItem); ok {
			f := it.fault
			m.fault = &f
			m.cursor = session.State{Pack: m.pack.Manufacturer, FaultID: f.ID}
			m.mode = modeCard
			m.notice = ""
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.faults, cmd = m.faults.Update(msg)
	return m, cmd
}

func (m Model) updateCard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "b", "esc":
		m.mode = modeFaults
	case "s", "enter":
		if m.fault.Tree != nil && len(m.fault.Tree.Nodes) > 0 {
			m.enterNode(schema.NodeID(m.fault.Tree.Start))
		} else {
			m.notice = "this fault has no decision tree"
		}
	}
	return m, nil
}

func (m Model) updateNode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "m", "esc":
		m.mode = modeFaults
		m.cursor = session.State{}
		return m, nil
	case "b":
		if len(m.cursor.History) <= 1 {
			m.cursor.History = nil
			m.mode = modeCard
			return m, nil
		}
		m.cursor.History = m.cursor.History[:len(m.cursor.History)-1]
		return m, nil
	}

	if key >= "1" && key <= "9" {
		node, ok := m.currentNode()
		if !ok {
			return m, nil
		}
		opts := engine.VisibleOptions(node, m.cursor, nil)
		idx := int(key[0] - '1')
		if idx < len(opts) {
			opt := opts[idx]
			if m.cursor.Answers == nil {
				m.cursor.Answers = map[string]string{}
			}
			m.cursor.Answers[m.currentNodeID()] = opt.Label
			m.follow(opt.Target)
		}
	}
	return m, nil
}

// follow applies a node reference the way the bot does: routes rebind to the
// target fault's start, menu jumps leave the tree.
func (m *Model) follow(ref schema.NodeRef) {
	switch ref.Kind {
	case schema.RefRoute:
		target, ok := m.source.FaultByID(ref.Pack, ref.Fault)
		if !ok || target.Tree == nil {
			m.notice = fmt.Sprintf("route target %s/%s is unavailable", ref.Pack, ref.Fault)
			return
		}
		m.fault = target
		m.cursor = session.State{Pack: ref.Pack, FaultID: target.ID}
		m.enterNode(schema.NodeID(target.Tree.Start))
	case schema.RefMenu:
		m.notice = fmt.Sprintf("(menu jump to %s)", ref.Pack)
		m.mode = modeFaults
		m.cursor = session.State{}
	default:
		m.enterNode(ref)
	}
}

func (m *Model) enterNode(ref schema.NodeRef) {
	if _, ok := m.fault.Tree.Nodes[ref.Node]; !ok {
		m.notice = fmt.Sprintf("node %q is missing from the tree", ref.Node)
		return
	}
	if n := len(m.cursor.History); n == 0 || m.cursor.History[n-1] != ref.Node {
		m.cursor.History = append(m.cursor.History, ref.Node)
	}
	m.mode = modeNode
	m.notice = ""
}

func (m Model) currentNodeID() string {
	if n := len(m.cursor.History); n > 0 {
		return m.cursor.History[n-1]
	}
	return m.fault.Tree.Start
}

func (m Model) currentNode() (schema.DecisionNode, bool) {
	node, ok := m.fault.Tree.Nodes[m.currentNodeID()]
	return node, ok
}

func (m Model) View() string {
	switch m.mode {
	case modeCard:
		return m.viewCard()
	case modeNode:
		return m.viewNode()
	default:
		return m.faults.View()
	}
}

func (m Model) viewCard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔧 "+m.fault.Title) + "\n\n")
	if m.fault.Response != "" {
		b.WriteString(renderMarkdown(m.fault.Response) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + warnStyle.Render("⚠ "+m.notice) + "\n")
	}
	b.WriteString("\n" + keyBar("s", "start tree", "b", "back", "q", "quit"))
	return b.String()
}

func (m Model) viewNode() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔧 "+m.fault.Title) + "\n")
	b.WriteString(breadcrumbStyle.Render(strings.Join(m.cursor.History, " ▸ ")) + "\n\n")

	node, ok := m.currentNode()
	if !ok {
		b.WriteString(warnStyle.Render("⚠ current node is missing") + "\n")
		return b.String()
	}

	prompt := node.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = "(this step has no prompt text)"
	}
	b.WriteString(promptStyle.Render(prompt) + "\n\n")
	if node.Image != "" {
		b.WriteString(breadcrumbStyle.Render("image: "+node.Image) + "\n\n")
	}

	opts := engine.VisibleOptions(node, m.cursor, nil)
	for i, opt := range opts {
		line := fmt.Sprintf("  %s %s", keyStyle.Render(fmt.Sprintf("%d.", i+1)), optionStyle.Render(opt.Label))
		if opt.When != "" {
			line += " " + keyDescStyle.Render("when: "+opt.When)
		}
		b.WriteString(line + "\n")
	}
	if hidden := len(node.Options) - len(opts); hidden > 0 {
		b.WriteString(keyDescStyle.Render(fmt.Sprintf("  (%d option(s) hidden by guards)", hidden)) + "\n")
	}
	if len(node.Options) == 0 {
		b.WriteString(keyDescStyle.Render("  (terminal step)") + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + warnStyle.Render("⚠ "+m.notice) + "\n")
	}
	b.WriteString("\n" + keyBar("1-9", "choose", "b", "back", "m", "fault list", "q", "quit"))
	return b.String()
}

func keyBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+keyDescStyle.Render(":"+pairs[i+1]))
	}
	return "  " + strings.Join(parts, "  ")
}
