package schema

import (
	"fmt"
	"strings"
)

// RefKind discriminates the NodeRef union.
type RefKind int

const (
	// RefNode names a node inside the current tree.
	RefNode RefKind = iota
	// RefRoute redirects into another fault's tree, possibly in another pack.
	RefRoute
	// RefMenu abandons tree navigation and shows a pack's fault menu.
	RefMenu
)

// Reserved prefixes inside authored trees. These never collide with plain
// node identifiers because real node IDs are resolved only when the parsed
// kind is RefNode.
const (
	routePrefix = "route:"
	menuPrefix  = "menu:"
)

// NodeRef is a parsed node reference: exactly one of the three forms.
//
//	Node(id)            — plain node identifier
//	RouteTo(pack,fault) — "route:<pack>/<faultId>"
//	JumpToMenu(pack)    — "menu:<pack>"
type NodeRef struct {
	Kind  RefKind
	Node  string
	Pack  Manufacturer
	Fault string
}

// ParseNodeRef parses an authored next/node token. It is total: malformed
// route or menu tokens still produce a NodeRef whose unresolvable parts are
// caught downstream (validation findings, in-chat defect views). An empty
// token parses to Node("") — "option missing target" for the engine.
func ParseNodeRef(s string) NodeRef {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, routePrefix):
		rest := strings.TrimPrefix(s, routePrefix)
		pack, fault, _ := strings.Cut(rest, "/")
		return NodeRef{Kind: RefRoute, Pack: Manufacturer(strings.ToLower(pack)), Fault: fault}
	case strings.HasPrefix(s, menuPrefix):
		return NodeRef{Kind: RefMenu, Pack: Manufacturer(strings.ToLower(strings.TrimPrefix(s, menuPrefix)))}
	default:
		return NodeRef{Kind: RefNode, Node: s}
	}
}

// NodeID returns a NodeRef naming a plain node.
func NodeID(id string) NodeRef {
	return NodeRef{Kind: RefNode, Node: id}
}

// String renders the ref back into its authored token form.
func (r NodeRef) String() string {
	switch r.Kind {
	case RefRoute:
		return fmt.Sprintf("%s%s/%s", routePrefix, r.Pack, r.Fault)
	case RefMenu:
		return menuPrefix + string(r.Pack)
	default:
		return r.Node
	}
}
