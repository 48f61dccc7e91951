package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "faults[2].decision_tree.nodes.n1")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile performs the full 3-phase validation pipeline on a pack file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
//
// Findings never abort the bot: at serve time a pack with findings still
// loads, and only structural failures degrade it to empty.
func ValidateFile(path string) (*Pack, []*ValidationError) {
	var all []*ValidationError

	p, err := LoadFile(path)
	if err != nil {
		all = append(all, &ValidationError{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		})
		return nil, all
	}

	all = append(all, validateSemantic(p)...)
	all = append(all, ValidateDomain(p)...)

	if len(all) > 0 {
		return p, all
	}
	return p, nil
}

// validateSemantic validates the pack against the generated JSON Schema.
func validateSemantic(p *Pack) []*ValidationError {
	data, err := json.Marshal(p)
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("marshal for schema validation: %v", err))}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("generate schema: %v", err))}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("unmarshal schema: %v", err))}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("fault-pack.json", schemaDoc); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("add schema resource: %v", err))}
	}
	sch, err := c.Compile("fault-pack.json")
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("compile schema: %v", err))}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("unmarshal document: %v", err))}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, semanticErr(err.Error()))
		}
		return errs
	}
	return nil
}

func semanticErr(msg string) *ValidationError {
	return &ValidationError{Phase: "semantic", Message: msg, Severity: "error"}
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, c := range ve.Causes {
		flat = append(flat, flattenValidationErrors(c)...)
	}
	return flat
}

// ValidateDomain applies the custom Go rules that the JSON Schema cannot
// express: ID uniqueness, tree wiring, guard compilability, reachability.
func ValidateDomain(p *Pack) []*ValidationError {
	var errs []*ValidationError

	seen := make(map[string]bool)
	for i, f := range p.Faults {
		loc := fmt.Sprintf("faults[%d]", i)
		if seen[f.ID] {
			errs = append(errs, domainErr(loc, fmt.Sprintf("duplicate fault id %q", f.ID), "error"))
		}
		seen[f.ID] = true

		if f.Tree == nil {
			continue
		}
		errs = append(errs, validateTree(loc+".decision_tree", f.Tree)...)
	}
	return errs
}

func validateTree(loc string, tree *DecisionTree) []*ValidationError {
	var errs []*ValidationError

	if tree.Start == "" {
		errs = append(errs, domainErr(loc+".start", "start node not set", "error"))
	} else if _, ok := tree.Nodes[tree.Start]; !ok {
		errs = append(errs, domainErr(loc+".start", fmt.Sprintf("start node %q not defined", tree.Start), "error"))
	}

	reachable := map[string]bool{}
	if tree.Start != "" {
		markReachable(tree, tree.Start, reachable)
	}

	for id, node := range tree.Nodes {
		nloc := fmt.Sprintf("%s.nodes.%s", loc, id)
		if strings.TrimSpace(node.Prompt) == "" {
			errs = append(errs, domainErr(nloc+".prompt", "empty prompt renders as a placeholder", "warning"))
		}
		if !reachable[id] {
			errs = append(errs, domainErr(nloc, "node unreachable from start", "warning"))
		}
		for oi, opt := range node.Options {
			oloc := fmt.Sprintf("%s.options[%d]", nloc, oi)
			errs = append(errs, validateOption(oloc, tree, opt)...)
		}
	}
	return errs
}

func validateOption(loc string, tree *DecisionTree, opt Option) []*ValidationError {
	var errs []*ValidationError

	switch opt.Target.Kind {
	case RefNode:
		if opt.Target.Node == "" {
			errs = append(errs, domainErr(loc+".next", "option has no target; pressing it reports a content defect", "warning"))
		} else if _, ok := tree.Nodes[opt.Target.Node]; !ok {
			errs = append(errs, domainErr(loc+".next", fmt.Sprintf("target node %q not defined", opt.Target.Node), "error"))
		}
	case RefRoute:
		if _, ok := ParseManufacturer(string(opt.Target.Pack)); !ok {
			errs = append(errs, domainErr(loc+".next", fmt.Sprintf("route target pack %q unknown", opt.Target.Pack), "error"))
		}
		if opt.Target.Fault == "" {
			errs = append(errs, domainErr(loc+".next", "route token missing fault id", "error"))
		}
	case RefMenu:
		if _, ok := ParseManufacturer(string(opt.Target.Pack)); !ok {
			errs = append(errs, domainErr(loc+".next", fmt.Sprintf("menu-jump target pack %q unknown", opt.Target.Pack), "error"))
		}
	}

	if opt.When != "" {
		env := map[string]any{
			"answers": map[string]string{},
			"visited": []string{},
		}
		if _, err := expr.Compile(opt.When, expr.Env(env), expr.AsBool()); err != nil {
			errs = append(errs, domainErr(loc+".when", fmt.Sprintf("guard does not compile: %v", err), "error"))
		}
	}
	return errs
}

// markReachable walks option targets from id. Cycles are fine: visited nodes
// are skipped, not an error.
func markReachable(tree *DecisionTree, id string, seen map[string]bool) {
	if seen[id] {
		return
	}
	seen[id] = true
	node, ok := tree.Nodes[id]
	if !ok {
		return
	}
	for _, opt := range node.Options {
		if opt.Target.Kind == RefNode && opt.Target.Node != "" {
			markReachable(tree, opt.Target.Node, seen)
		}
	}
}

// CrossCheckRoutes verifies that every route token in every pack points at a
// fault that exists and carries a tree. Only callable once all packs are
// loaded, so it lives outside the per-file pipeline.
func CrossCheckRoutes(packs map[Manufacturer]*Pack) []*ValidationError {
	var errs []*ValidationError
	for m, p := range packs {
		if p == nil {
			continue
		}
		for fi, f := range p.Faults {
			if f.Tree == nil {
				continue
			}
			for id, node := range f.Tree.Nodes {
				for oi, opt := range node.Options {
					if opt.Target.Kind != RefRoute {
						continue
					}
					loc := fmt.Sprintf("%s: faults[%d].decision_tree.nodes.%s.options[%d].next", m, fi, id, oi)
					target, ok := packs[opt.Target.Pack]
					if !ok || target == nil {
						errs = append(errs, domainErr(loc, fmt.Sprintf("route target pack %q not loaded", opt.Target.Pack), "error"))
						continue
					}
					tf, ok := target.FaultByID(opt.Target.Fault)
					if !ok {
						errs = append(errs, domainErr(loc, fmt.Sprintf("route target fault %q not found in pack %q", opt.Target.Fault, opt.Target.Pack), "error"))
						continue
					}
					if tf.Tree == nil || len(tf.Tree.Nodes) == 0 {
						errs = append(errs, domainErr(loc, fmt.Sprintf("route target fault %q has no decision tree", opt.Target.Fault), "error"))
					}
				}
			}
		}
	}
	return errs
}

func domainErr(path, msg, severity string) *ValidationError {
	return &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: severity}
}
