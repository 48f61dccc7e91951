package bot

import (
	"fmt"
	"strings"
	"testing"

	"github.com/voltwrench/faultbot/pkg/engine"
	"github.com/voltwrench/faultbot/pkg/schema"
)

func TestRootMenu_CountsPerManufacturer(t *testing.T) {
	mn := NewMenus(fixtureSource())
	v := mn.RootMenu()

	if len(v.Buttons) != len(schema.Manufacturers()) {
		t.Fatalf("rows = %d", len(v.Buttons))
	}
	var autel engine.Button
	for _, row := range v.Buttons {
		if row[0].Data == engine.CallbackPackMenu(schema.Autel) {
			autel = row[0]
		}
	}
	if !strings.Contains(autel.Label, "(1)") {
		t.Fatalf("autel label = %q", autel.Label)
	}
}

func TestPackMenu_EmptyPack(t *testing.T) {
	mn := NewMenus(fixtureSource())
	v := mn.PackMenu(schema.Tritium)
	if !strings.Contains(v.Text, "No fault guides") {
		t.Fatalf("text = %q", v.Text)
	}
	if len(v.Buttons) != 1 || v.Buttons[0][0].Data != engine.CallbackHome() {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
}

func TestPackMenu_ShowAllAppearsAboveLimit(t *testing.T) {
	var faults []schema.Fault
	for i := 0; i < menuFaultLimit+3; i++ {
		faults = append(faults, schema.Fault{ID: fmt.Sprintf("f%d", i), Title: fmt.Sprintf("Fault %d", i)})
	}
	src := &stubSource{packs: map[schema.Manufacturer]*schema.Pack{
		schema.Kempower: {Manufacturer: schema.Kempower, Faults: faults},
	}}
	mn := NewMenus(src)

	v := mn.PackMenu(schema.Kempower)
	// limit fault rows + show-all + home
	if len(v.Buttons) != menuFaultLimit+2 {
		t.Fatalf("rows = %d", len(v.Buttons))
	}
	showAll := v.Buttons[menuFaultLimit][0]
	if showAll.Data != engine.CallbackPackAll(schema.Kempower) {
		t.Fatalf("show-all data = %q", showAll.Data)
	}

	all := mn.PackAll(schema.Kempower)
	if len(all.Buttons) != len(faults)+1 {
		t.Fatalf("all rows = %d", len(all.Buttons))
	}
}

func TestFaultCard_Buttons(t *testing.T) {
	src := fixtureSource()
	mn := NewMenus(src)
	f, _ := src.FaultByID(schema.Autel, "err_343")

	v := mn.FaultCard(schema.Autel, f)
	if !strings.Contains(v.Text, "Charge module communication lost") {
		t.Fatalf("text = %q", v.Text)
	}
	want := []string{engine.CallbackTreeStart(), engine.CallbackReport(schema.Autel, "err_343"), engine.CallbackPackMenu(schema.Autel)}
	if len(v.Buttons) != len(want) {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
	for i, data := range want {
		if v.Buttons[i][0].Data != data {
			t.Errorf("row %d data = %q, want %q", i, v.Buttons[i][0].Data, data)
		}
	}

	// A fault without a tree gets no start button.
	noTree := &schema.Fault{ID: "x", Title: "X"}
	v = mn.FaultCard(schema.Autel, noTree)
	if len(v.Buttons) != 2 {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
}
