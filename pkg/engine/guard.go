package engine

import (
	"github.com/expr-lang/expr"
	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/schema"
	"github.com/voltwrench/faultbot/pkg/session"
)

// guardEnv builds the expr environment an option guard sees: the answers
// recorded along the current path and the visited node ids.
func guardEnv(st session.State) map[string]any {
	answers := st.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	visited := st.History
	if visited == nil {
		visited = []string{}
	}
	return map[string]any{
		"answers": answers,
		"visited": visited,
	}
}

// VisibleOptions is the exported form of the guard filter for tooling that
// walks trees outside a live chat (the author preview).
func VisibleOptions(node schema.DecisionNode, st session.State, log *zap.Logger) []schema.Option {
	if log == nil {
		log = zap.NewNop()
	}
	return visibleOptions(node, st, log)
}

// visibleOptions filters a node's options by their when guards. Options are
// kept in declared order; the rendered positional index is an index into THIS
// slice, so rendering and advancing must both go through here.
//
// A guard that fails to compile or evaluate hides its option: `faultbot
// validate` catches these at authoring time, and hiding beats offering a
// button whose meaning is undefined.
func visibleOptions(node schema.DecisionNode, st session.State, log *zap.Logger) []schema.Option {
	out := make([]schema.Option, 0, len(node.Options))
	var env map[string]any
	for _, opt := range node.Options {
		if opt.When == "" {
			out = append(out, opt)
			continue
		}
		if env == nil {
			env = guardEnv(st)
		}
		program, err := expr.Compile(opt.When, expr.Env(env), expr.AsBool())
		if err != nil {
			log.Warn("option guard does not compile, hiding option",
				zap.String("when", opt.When), zap.Error(err))
			continue
		}
		output, err := expr.Run(program, env)
		if err != nil {
			log.Warn("option guard evaluation failed, hiding option",
				zap.String("when", opt.When), zap.Error(err))
			continue
		}
		if keep, ok := output.(bool); ok && keep {
			out = append(out, opt)
		}
	}
	return out
}
