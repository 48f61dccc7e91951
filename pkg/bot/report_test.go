package bot

import (
	"strings"
	"testing"

	"github.com/voltwrench/faultbot/pkg/schema"
)

func TestReportWizard_BlankInputReasks(t *testing.T) {
	w := NewReportWizard()
	first := w.Start(1, "", nil)

	reply, done := w.HandleText(1, "   ")
	if done || reply != reportFields[0].prompt {
		t.Fatalf("reply = %q done = %v", reply, done)
	}
	if reply != first {
		t.Fatalf("re-ask %q != first prompt %q", reply, first)
	}
}

func TestReportWizard_PrefilledFaultSkipped(t *testing.T) {
	w := NewReportWizard()
	f := &schema.Fault{ID: "e7", Title: "Door interlock open"}
	w.Start(1, schema.Kempower, f)

	w.HandleText(1, "Site A")
	reply, _ := w.HandleText(1, "SN-1")
	// Next prompt jumps over the prefilled fault field to actions.
	if !strings.Contains(reply, "actions") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestReportWizard_RestartReplacesDraft(t *testing.T) {
	w := NewReportWizard()
	w.Start(1, "", nil)
	w.HandleText(1, "Old site")

	w.Start(1, "", nil)
	w.HandleText(1, "New site")
	for _, in := range []string{"SN", "fault", "actions", "resolved", "tech"} {
		reply, done := w.HandleText(1, in)
		if done {
			if strings.Contains(reply, "Old site") || !strings.Contains(reply, "New site") {
				t.Fatalf("report = %q", reply)
			}
			return
		}
	}
	t.Fatal("wizard never finished")
}

func TestReportWizard_TextIgnoredWithoutDraft(t *testing.T) {
	w := NewReportWizard()
	if reply, done := w.HandleText(1, "hello"); reply != "" || done {
		t.Fatalf("reply = %q done = %v", reply, done)
	}
}
