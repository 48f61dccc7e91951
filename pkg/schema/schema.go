// Package schema defines the Go struct types for the fault-pack YAML schema
// and provides strict YAML parsing.
package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manufacturer identifies a fault pack. The set is closed: packs are authored
// per manufacturer and the bot's menus enumerate exactly these.
type Manufacturer string

const (
	GeneralDC Manufacturer = "general_dc"
	Autel     Manufacturer = "autel"
	Kempower  Manufacturer = "kempower"
	Tritium   Manufacturer = "tritium"
)

// Manufacturers returns the closed manufacturer set in menu display order.
func Manufacturers() []Manufacturer {
	return []Manufacturer{GeneralDC, Autel, Kempower, Tritium}
}

// ParseManufacturer resolves a manufacturer key case-insensitively.
// Legacy callback buttons carry upper-cased keys, so "AUTEL" must resolve too.
func ParseManufacturer(s string) (Manufacturer, bool) {
	key := Manufacturer(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Manufacturers() {
		if m == key {
			return m, true
		}
	}
	return "", false
}

// Pack is the top-level document: one manufacturer's ordered fault collection.
type Pack struct {
	Manufacturer Manufacturer `yaml:"manufacturer" json:"manufacturer" jsonschema:"required,enum=general_dc,enum=autel,enum=kempower,enum=tritium"`
	Title        string       `yaml:"title,omitempty" json:"title,omitempty"`
	Faults       []Fault      `yaml:"faults,omitempty" json:"faults,omitempty"`
}

// Fault is a named problem with optional guided troubleshooting content.
// ID is stable and unique within the pack; it is also the route target used
// when another pack's tree redirects here.
type Fault struct {
	ID       string        `yaml:"id" json:"id" jsonschema:"required"`
	Title    string        `yaml:"title" json:"title" jsonschema:"required"`
	Response string        `yaml:"response,omitempty" json:"response,omitempty"`
	Image    string        `yaml:"image,omitempty" json:"image,omitempty"`
	Tree     *DecisionTree `yaml:"decision_tree,omitempty" json:"decision_tree,omitempty"`
}

// DecisionTree is a directed structure of prompts and options. Acyclic by
// authoring convention, but nothing here may assume that.
type DecisionTree struct {
	Start string                  `yaml:"start" json:"start" jsonschema:"required"`
	Nodes map[string]DecisionNode `yaml:"nodes" json:"nodes" jsonschema:"required"`
}

// DecisionNode is one prompt-and-options step within a decision tree.
type DecisionNode struct {
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Image   string   `yaml:"image,omitempty" json:"image,omitempty"`
	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`
}

// Option is a single answer button on a node. Next names another node in the
// same tree or a reserved indirection token (route:… / menu:…). When is an
// optional expr guard evaluated against the session's answer trail; options
// whose guard is false are not rendered.
type Option struct {
	Label string `yaml:"label" json:"label" jsonschema:"required"`
	Next  string `yaml:"next,omitempty" json:"next,omitempty"`
	When  string `yaml:"when,omitempty" json:"when,omitempty"`

	// Target is Next parsed into the tagged NodeRef form. Populated by Load;
	// traversal code pattern-matches on it and never sniffs Next itself.
	Target NodeRef `yaml:"-" json:"-"`
}

// FaultByID returns the fault with the given ID, or false.
func (p *Pack) FaultByID(id string) (*Fault, bool) {
	for i := range p.Faults {
		if p.Faults[i].ID == id {
			return &p.Faults[i], true
		}
	}
	return nil, false
}

// LoadFile reads and parses a fault pack YAML file with strict unknown-field
// rejection (yaml.v3 KnownFields). Returns the parsed Pack or an error.
func LoadFile(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a fault pack from an io.Reader with strict unknown-field
// rejection, then resolves every option's Next into its NodeRef form.
func Load(r io.Reader) (*Pack, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Pack
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	resolveRefs(&p)
	return &p, nil
}

// resolveRefs populates Option.Target for every option in every tree.
// ParseNodeRef is total, so this never fails; authoring mistakes surface
// later as validation findings or in-chat defect views.
func resolveRefs(p *Pack) {
	for fi := range p.Faults {
		tree := p.Faults[fi].Tree
		if tree == nil {
			continue
		}
		for id, node := range tree.Nodes {
			for oi := range node.Options {
				node.Options[oi].Target = ParseNodeRef(node.Options[oi].Next)
			}
			tree.Nodes[id] = node
		}
	}
}
