package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voltwrench/faultbot/pkg/schema"
)

// Callback tokens are deliberately short and content-free: chat transports
// cap button payloads (Telegram: 64 bytes), and an opaque positional index
// cannot be replayed into a different tree the way a raw node id could.
const (
	cbTreeStart = "dt:start"
	cbTreeBack  = "dt:bk"
	cbTreeMenu  = "dt:mn"
	cbHome      = "home"

	cbTreeOptionPrefix = "dt:o:"
	cbReportPrefix     = "RF|"
)

// ActionKind classifies a parsed callback token.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionHome
	ActionPackMenu
	ActionPackAll
	ActionOpenFault
	ActionTreeStart
	ActionTreeOption
	ActionTreeBack
	ActionTreeMenu
	ActionReport
)

func (k ActionKind) String() string {
	switch k {
	case ActionHome:
		return "home"
	case ActionPackMenu:
		return "pack_menu"
	case ActionPackAll:
		return "pack_all"
	case ActionOpenFault:
		return "open_fault"
	case ActionTreeStart:
		return "tree_start"
	case ActionTreeOption:
		return "tree_option"
	case ActionTreeBack:
		return "tree_back"
	case ActionTreeMenu:
		return "tree_menu"
	case ActionReport:
		return "report"
	default:
		return "unknown"
	}
}

// Action is a classified user button press.
type Action struct {
	Kind    ActionKind
	Pack    schema.Manufacturer
	FaultID string
	Option  int
}

// ParseCallback classifies a raw callback token. It never fails: anything
// unrecognized comes back as ActionUnknown and gets a polite error view.
func ParseCallback(data string) Action {
	data = strings.TrimSpace(data)
	switch data {
	case cbTreeStart:
		return Action{Kind: ActionTreeStart}
	case cbTreeBack:
		return Action{Kind: ActionTreeBack}
	case cbTreeMenu:
		return Action{Kind: ActionTreeMenu}
	case cbHome:
		return Action{Kind: ActionHome}
	}

	if rest, ok := strings.CutPrefix(data, cbTreeOptionPrefix); ok {
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 0 {
			return Action{}
		}
		return Action{Kind: ActionTreeOption, Option: idx}
	}

	if rest, ok := strings.CutPrefix(data, cbReportPrefix); ok {
		pack, fault, found := strings.Cut(rest, "|")
		m, okm := schema.ParseManufacturer(pack)
		if !found || !okm || fault == "" {
			return Action{}
		}
		return Action{Kind: ActionReport, Pack: m, FaultID: fault}
	}

	head, rest, found := strings.Cut(data, ":")
	if !found {
		return Action{}
	}
	m, ok := schema.ParseManufacturer(head)
	if !ok {
		return Action{}
	}
	switch {
	case rest == "menu":
		return Action{Kind: ActionPackMenu, Pack: m}
	case rest == "all":
		return Action{Kind: ActionPackAll, Pack: m}
	case strings.HasPrefix(rest, "fault:"):
		id := strings.TrimPrefix(rest, "fault:")
		if id == "" {
			return Action{}
		}
		return Action{Kind: ActionOpenFault, Pack: m, FaultID: id}
	case head == strings.ToUpper(head) && rest != "":
		// Legacy buttons rendered as <PACK_UPPER>:<faultId>. Old messages
		// stay pressable forever, so this form is parsed indefinitely.
		return Action{Kind: ActionOpenFault, Pack: m, FaultID: rest}
	default:
		return Action{}
	}
}

// Token constructors. Menus and the engine build buttons only through these.

func CallbackHome() string { return cbHome }

func CallbackPackMenu(m schema.Manufacturer) string { return string(m) + ":menu" }

func CallbackPackAll(m schema.Manufacturer) string { return string(m) + ":all" }

func CallbackOpenFault(m schema.Manufacturer, faultID string) string {
	return fmt.Sprintf("%s:fault:%s", m, faultID)
}

func CallbackTreeStart() string { return cbTreeStart }

func CallbackTreeOption(index int) string { return cbTreeOptionPrefix + strconv.Itoa(index) }

func CallbackTreeBack() string { return cbTreeBack }

func CallbackTreeMenu() string { return cbTreeMenu }

func CallbackReport(m schema.Manufacturer, faultID string) string {
	return fmt.Sprintf("%s%s|%s", cbReportPrefix, m, faultID)
}
