package bot

import (
	"fmt"
	"strings"

	"github.com/voltwrench/faultbot/pkg/engine"
	"github.com/voltwrench/faultbot/pkg/schema"
)

// menuFaultLimit caps the compact pack menu; packs with more faults get a
// "show all" button instead of an endless keyboard.
const menuFaultLimit = 8

var displayNames = map[schema.Manufacturer]string{
	schema.GeneralDC: "General DC",
	schema.Autel:     "Autel",
	schema.Kempower:  "Kempower",
	schema.Tritium:   "Tritium",
}

// DisplayName returns the human label for a manufacturer.
func DisplayName(m schema.Manufacturer) string {
	if n, ok := displayNames[m]; ok {
		return n
	}
	return string(m)
}

// Menus renders the navigation surfaces outside the decision tree: the root
// manufacturer menu, per-pack fault menus and the fault card. It implements
// engine.MenuRenderer.
type Menus struct {
	source engine.FaultSource
	media  *engine.MediaResolver
}

func NewMenus(source engine.FaultSource) *Menus {
	return &Menus{source: source}
}

// WithMedia lets fault cards render their reference image when it resolves.
func (mn *Menus) WithMedia(media *engine.MediaResolver) *Menus {
	mn.media = media
	return mn
}

func (mn *Menus) RootMenu() engine.View {
	var b strings.Builder
	b.WriteString("🔌 EV charger fault assistant\n\nPick a manufacturer to browse its fault guides.")

	var rows [][]engine.Button
	for _, m := range schema.Manufacturers() {
		n := len(mn.source.Pack(m).Faults)
		label := DisplayName(m)
		if n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		rows = append(rows, []engine.Button{{Label: label, Data: engine.CallbackPackMenu(m)}})
	}
	return engine.View{Kind: engine.ViewRootMenu, Text: b.String(), Buttons: rows}
}

func (mn *Menus) PackMenu(m schema.Manufacturer) engine.View {
	p := mn.source.Pack(m)
	if len(p.Faults) == 0 {
		return engine.View{
			Kind:    engine.ViewPackMenu,
			Text:    fmt.Sprintf("No fault guides are loaded for %s yet.", DisplayName(m)),
			Buttons: [][]engine.Button{{{Label: "🏠 Main menu", Data: engine.CallbackHome()}}},
		}
	}

	text := fmt.Sprintf("⚡ %s — common faults", DisplayName(m))
	rows := faultRows(m, p.Faults, menuFaultLimit)
	if len(p.Faults) > menuFaultLimit {
		rows = append(rows, []engine.Button{{
			Label: fmt.Sprintf("Show all (%d)", len(p.Faults)),
			Data:  engine.CallbackPackAll(m),
		}})
	}
	rows = append(rows, []engine.Button{{Label: "🏠 Main menu", Data: engine.CallbackHome()}})
	return engine.View{Kind: engine.ViewPackMenu, Text: text, Buttons: rows}
}

func (mn *Menus) PackAll(m schema.Manufacturer) engine.View {
	p := mn.source.Pack(m)
	if len(p.Faults) == 0 {
		return mn.PackMenu(m)
	}
	text := fmt.Sprintf("⚡ %s — all faults (%d)", DisplayName(m), len(p.Faults))
	rows := faultRows(m, p.Faults, len(p.Faults))
	rows = append(rows, []engine.Button{{Label: "🏠 Main menu", Data: engine.CallbackHome()}})
	return engine.View{Kind: engine.ViewFaultList, Text: text, Buttons: rows}
}

func (mn *Menus) FaultCard(m schema.Manufacturer, f *schema.Fault) engine.View {
	var b strings.Builder
	fmt.Fprintf(&b, "🔧 %s\n", f.Title)
	if f.Response != "" {
		b.WriteString("\n")
		b.WriteString(f.Response)
	}

	var rows [][]engine.Button
	if f.Tree != nil {
		rows = append(rows, []engine.Button{{Label: "🧭 Start troubleshooting", Data: engine.CallbackTreeStart()}})
	}
	rows = append(rows,
		[]engine.Button{{Label: "📝 Create report", Data: engine.CallbackReport(m, f.ID)}},
		[]engine.Button{{Label: "⬅ Back to menu", Data: engine.CallbackPackMenu(m)}},
	)

	var imagePath string
	if f.Image != "" {
		if p, ok := mn.media.Resolve(f.Image); ok {
			imagePath = p
		}
	}
	return engine.View{Kind: engine.ViewFaultCard, Text: b.String(), ImagePath: imagePath, Buttons: rows}
}

func faultRows(m schema.Manufacturer, faults []schema.Fault, limit int) [][]engine.Button {
	if limit > len(faults) {
		limit = len(faults)
	}
	rows := make([][]engine.Button, 0, limit)
	for _, f := range faults[:limit] {
		rows = append(rows, []engine.Button{{Label: f.Title, Data: engine.CallbackOpenFault(m, f.ID)}})
	}
	return rows
}
