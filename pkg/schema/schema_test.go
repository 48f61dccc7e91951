package schema

import (
	"strings"
	"testing"
)

const samplePack = `
manufacturer: autel
title: Autel MaxiCharger DC
faults:
  - id: err_343
    title: Insulation fault (343)
    response: Insulation monitoring tripped during precharge.
    decision_tree:
      start: n1
      nodes:
        n1:
          prompt: Is the vehicle still connected?
          options:
            - label: "Yes"
              next: n2
            - label: "No"
              next: "route:general_dc/iso_check"
        n2:
          prompt: Disconnect the vehicle and retry.
          options:
            - label: Back to menu
              next: "menu:autel"
`

func TestLoad_ParsesAndResolvesRefs(t *testing.T) {
	p, err := Load(strings.NewReader(samplePack))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Manufacturer != Autel {
		t.Errorf("manufacturer = %q", p.Manufacturer)
	}
	f, ok := p.FaultByID("err_343")
	if !ok {
		t.Fatal("fault err_343 not found")
	}
	if f.Tree == nil || f.Tree.Start != "n1" {
		t.Fatalf("tree start = %v", f.Tree)
	}

	n1 := f.Tree.Nodes["n1"]
	if got := n1.Options[0].Target; got.Kind != RefNode || got.Node != "n2" {
		t.Errorf("option 0 target = %+v", got)
	}
	if got := n1.Options[1].Target; got.Kind != RefRoute || got.Pack != GeneralDC || got.Fault != "iso_check" {
		t.Errorf("option 1 target = %+v", got)
	}
	n2 := f.Tree.Nodes["n2"]
	if got := n2.Options[0].Target; got.Kind != RefMenu || got.Pack != Autel {
		t.Errorf("menu target = %+v", got)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("manufacturer: autel\nbogus: 1\n"))
	if err == nil {
		t.Fatal("expected strict decode error")
	}
}

func TestParseNodeRef(t *testing.T) {
	tests := []struct {
		in   string
		want NodeRef
	}{
		{"n7", NodeRef{Kind: RefNode, Node: "n7"}},
		{"", NodeRef{Kind: RefNode}},
		{"route:tritium/pe_fault", NodeRef{Kind: RefRoute, Pack: Tritium, Fault: "pe_fault"}},
		{"route:TRITIUM/pe_fault", NodeRef{Kind: RefRoute, Pack: Tritium, Fault: "pe_fault"}},
		{"route:broken", NodeRef{Kind: RefRoute, Pack: "broken"}},
		{"menu:kempower", NodeRef{Kind: RefMenu, Pack: Kempower}},
	}
	for _, tt := range tests {
		if got := ParseNodeRef(tt.in); got != tt.want {
			t.Errorf("ParseNodeRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseNodeRef_RoundTrip(t *testing.T) {
	for _, s := range []string{"n1", "route:autel/err_343", "menu:general_dc"} {
		if got := ParseNodeRef(s).String(); got != s {
			t.Errorf("round trip %q = %q", s, got)
		}
	}
}

func TestParseManufacturer(t *testing.T) {
	if m, ok := ParseManufacturer("AUTEL"); !ok || m != Autel {
		t.Errorf("legacy upper-case key: got %q, %v", m, ok)
	}
	if _, ok := ParseManufacturer("abb"); ok {
		t.Error("unknown manufacturer accepted")
	}
}
