package engine

import (
	"testing"

	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/schema"
	"github.com/voltwrench/faultbot/pkg/session"
)

func TestVisibleOptions_GuardFiltering(t *testing.T) {
	n := node("prompt",
		opt("always", "n2"),
		schema.Option{Label: "only after yes", Next: "n3", When: `answers["n1"] == "Yes"`, Target: schema.NodeID("n3")},
		schema.Option{Label: "broken guard", Next: "n4", When: `answers[`, Target: schema.NodeID("n4")},
	)

	st := session.State{Answers: map[string]string{"n1": "No"}}
	got := visibleOptions(n, st, zap.NewNop())
	if len(got) != 1 || got[0].Label != "always" {
		t.Fatalf("options = %+v", got)
	}

	st.Answers["n1"] = "Yes"
	got = visibleOptions(n, st, zap.NewNop())
	if len(got) != 2 || got[1].Label != "only after yes" {
		t.Fatalf("options = %+v", got)
	}
}

func TestVisibleOptions_VisitedEnv(t *testing.T) {
	n := node("prompt",
		schema.Option{Label: "skip seen", Next: "n5", When: `!("n5" in visited)`, Target: schema.NodeID("n5")},
	)
	got := visibleOptions(n, session.State{History: []string{"n1"}}, zap.NewNop())
	if len(got) != 1 {
		t.Fatalf("options = %+v", got)
	}
	got = visibleOptions(n, session.State{History: []string{"n1", "n5"}}, zap.NewNop())
	if len(got) != 0 {
		t.Fatalf("options = %+v", got)
	}
}

func TestVisibleOptions_NoGuardsFastPath(t *testing.T) {
	n := node("prompt", opt("a", "n1"), opt("b", "n2"))
	got := visibleOptions(n, session.State{}, zap.NewNop())
	if len(got) != 2 {
		t.Fatalf("options = %+v", got)
	}
}
