package schema

import (
	"strings"
	"testing"
)

func loadPack(t *testing.T, src string) *Pack {
	t.Helper()
	p, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return p
}

func findingsByPath(errs []*ValidationError) map[string]string {
	m := make(map[string]string, len(errs))
	for _, e := range errs {
		m[e.Path] = e.Severity
	}
	return m
}

func TestValidateDomain_TreeWiring(t *testing.T) {
	p := loadPack(t, `
manufacturer: autel
faults:
  - id: f1
    title: F1
    decision_tree:
      start: missing
      nodes:
        n1:
          prompt: ""
          options:
            - label: Go
              next: nowhere
        island:
          prompt: Orphan
`)
	errs := ValidateDomain(p)
	got := findingsByPath(errs)

	for path, sev := range map[string]string{
		"faults[0].decision_tree.start":                    "error",
		"faults[0].decision_tree.nodes.n1.options[0].next": "error",
		"faults[0].decision_tree.nodes.n1.prompt":          "warning",
		"faults[0].decision_tree.nodes.island":             "warning",
	} {
		if got[path] != sev {
			t.Errorf("expected %s finding at %s, got %q (all: %v)", sev, path, got[path], got)
		}
	}
}

func TestValidateDomain_DuplicateFaultIDs(t *testing.T) {
	p := loadPack(t, `
manufacturer: autel
faults:
  - id: f1
    title: A
  - id: f1
    title: B
`)
	errs := ValidateDomain(p)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "duplicate") {
		t.Fatalf("errs = %v", errs)
	}
}

func TestValidateDomain_GuardCompile(t *testing.T) {
	p := loadPack(t, `
manufacturer: autel
faults:
  - id: f1
    title: F1
    decision_tree:
      start: n1
      nodes:
        n1:
          prompt: P
          options:
            - label: Guarded
              next: n1
              when: 'answers["n1"] == '
`)
	errs := ValidateDomain(p)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "guard does not compile") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected guard compile error, got %v", errs)
	}
}

func TestCrossCheckRoutes(t *testing.T) {
	autel := loadPack(t, `
manufacturer: autel
faults:
  - id: f1
    title: F1
    decision_tree:
      start: n1
      nodes:
        n1:
          prompt: P
          options:
            - label: Handover
              next: "route:general_dc/gone"
`)
	general := loadPack(t, `
manufacturer: general_dc
faults:
  - id: treeless
    title: No tree here
`)

	errs := CrossCheckRoutes(map[Manufacturer]*Pack{Autel: autel, GeneralDC: general})
	if len(errs) != 1 || !strings.Contains(errs[0].Message, `route target fault "gone"`) {
		t.Fatalf("errs = %v", errs)
	}

	// Retarget onto the treeless fault: still an error.
	n1 := autel.Faults[0].Tree.Nodes["n1"]
	n1.Options[0].Target = NodeRef{Kind: RefRoute, Pack: GeneralDC, Fault: "treeless"}
	autel.Faults[0].Tree.Nodes["n1"] = n1

	errs = CrossCheckRoutes(map[Manufacturer]*Pack{Autel: autel, GeneralDC: general})
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "no decision tree") {
		t.Fatalf("errs = %v", errs)
	}
}

func TestValidateFile_StructuralFailure(t *testing.T) {
	p, errs := ValidateFile("testdata/does-not-exist.yaml")
	if p != nil {
		t.Error("expected nil pack")
	}
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Fatalf("errs = %v", errs)
	}
}
