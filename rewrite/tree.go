// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rewrite converts conditional cascades into match constructs.
//
// The engine works over an arena Tree supplied by a Host. The host owns
// the real syntax: it builds the arena, prints the planned Match, and
// applies the final replacement, deletions and label declarations.
// The engine decides which arms to build, which trailing statements a
// synthetic default arm absorbs, which jumps need explicit labels,
// and which comment snapshot to restore.
package rewrite

import "fmt"

// A NodeID addresses a Node in a Tree.
type NodeID int32

// NoNode is the null NodeID.
// The zero Node therefore refers to nothing.
const NoNode NodeID = 0

// A Kind is the variant of a Node.
type Kind uint8

const (
	Leaf        Kind = iota // opaque expression or statement
	Name                    // side-effect-free reference, such as x or a.b.c
	Conditional             // Cond, Then, optional Else, optional Init
	Block                   // List
	Binary                  // X Op Y
	Paren                   // (X)
	Break                   // optional Label
	Continue                // optional Label
	Goto                    // Label
	Return
	Throw
	Loop    // target of break and continue; List holds the body
	Switch  // target of break only; List holds the clauses
	Func    // jumps and labels never cross it
	Labeled // Label: X
)

var kindNames = [...]string{
	Leaf:        "Leaf",
	Name:        "Name",
	Conditional: "Conditional",
	Block:       "Block",
	Binary:      "Binary",
	Paren:       "Paren",
	Break:       "Break",
	Continue:    "Continue",
	Goto:        "Goto",
	Return:      "Return",
	Throw:       "Throw",
	Loop:        "Loop",
	Switch:      "Switch",
	Func:        "Func",
	Labeled:     "Labeled",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsJump reports whether k unconditionally transfers control.
func (k Kind) IsJump() bool {
	switch k {
	case Break, Continue, Goto, Return, Throw:
		return true
	}
	return false
}

// A Range is a half-open source range in host coordinates.
type Range struct {
	Pos, End int
}

// Contains reports whether r contains the position p.
func (r Range) Contains(p int) bool {
	return r.Pos <= p && p < r.End
}

// Covers reports whether r contains all of s.
func (r Range) Covers(s Range) bool {
	return r.Pos <= s.Pos && s.End <= r.End
}

// A Node is one element of a Tree.
// Which fields are meaningful depends on Kind.
type Node struct {
	Kind   Kind
	Parent NodeID

	Init NodeID // Conditional
	Cond NodeID // Conditional
	Then NodeID // Conditional
	Else NodeID // Conditional

	X NodeID // Binary, Paren, Labeled, Return, Throw
	Y NodeID // Binary

	List []NodeID // Block, Loop, Switch, Func

	Op    string // Binary
	Label string // Break, Continue, Goto, Labeled
	Text  string // Leaf, Name; optional elsewhere

	Pos, End int
}

// Range returns the source range of n.
func (n *Node) Range() Range {
	return Range{n.Pos, n.End}
}

// A Tree is an arena of Nodes.
// Nodes are added bottom-up: children before their parents.
// The zero Tree is empty and ready to use.
type Tree struct {
	nodes []Node
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return new(Tree)
}

// Len returns the number of nodes in t.
func (t *Tree) Len() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return len(t.nodes) - 1
}

// Node returns the node with the given id.
// The pointer is valid until the next call to Add.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Kind returns the kind of id, or Leaf for NoNode.
func (t *Tree) Kind(id NodeID) Kind {
	if id == NoNode {
		return Leaf
	}
	return t.nodes[id].Kind
}

// Parent returns the parent of id.
func (t *Tree) Parent(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	return t.nodes[id].Parent
}

// Range returns the source range of id.
func (t *Tree) Range(id NodeID) Range {
	return t.nodes[id].Range()
}

// Add appends n to the arena and returns its id.
// Children of n that have no parent yet are adopted by n.
// Children that already have a parent keep it, which lets a
// synthetic node share existing statements without moving them.
func (t *Tree) Add(n Node) NodeID {
	if len(t.nodes) == 0 {
		t.nodes = append(t.nodes, Node{}) // NoNode
	}
	id := NodeID(len(t.nodes))
	n.Parent = NoNode
	n.List = append([]NodeID(nil), n.List...)
	t.nodes = append(t.nodes, n)
	t.eachChild(id, func(c NodeID) {
		if t.nodes[c].Parent == NoNode {
			t.nodes[c].Parent = id
		}
	})
	return id
}

// SetParent sets the parent of a detached node.
// Hosts use it to place fragments they create in a scope.
func (t *Tree) SetParent(id, parent NodeID) {
	t.nodes[id].Parent = parent
}

func (t *Tree) eachChild(id NodeID, f func(NodeID)) {
	n := &t.nodes[id]
	for _, c := range [...]NodeID{n.Init, n.Cond, n.Then, n.Else, n.X, n.Y} {
		if c != NoNode {
			f(c)
		}
	}
	for _, c := range n.List {
		f(c)
	}
}

// Children returns the children of id in source order.
func (t *Tree) Children(id NodeID) []NodeID {
	var list []NodeID
	t.eachChild(id, func(c NodeID) { list = append(list, c) })
	return list
}

// Inspect calls f for id and its descendants in depth-first order.
// If f returns false, Inspect skips the children of that node.
func (t *Tree) Inspect(id NodeID, f func(NodeID) bool) {
	if id == NoNode || !f(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Inspect(c, f)
	}
}

// Unparen strips all enclosing parentheses from id.
func (t *Tree) Unparen(id NodeID) NodeID {
	for id != NoNode && t.nodes[id].Kind == Paren {
		id = t.nodes[id].X
	}
	return id
}

// Following returns the statements after id in its enclosing Block,
// or nil if id is not directly inside a Block.
func (t *Tree) Following(id NodeID) []NodeID {
	p := t.Parent(id)
	if p == NoNode || t.nodes[p].Kind != Block {
		return nil
	}
	list := t.nodes[p].List
	for i, c := range list {
		if c == id {
			return list[i+1:]
		}
	}
	return nil
}

// Previous returns the statement before id in its enclosing Block, or NoNode.
func (t *Tree) Previous(id NodeID) NodeID {
	p := t.Parent(id)
	if p == NoNode || t.nodes[p].Kind != Block {
		return NoNode
	}
	list := t.nodes[p].List
	for i, c := range list {
		if c == id && i > 0 {
			return list[i-1]
		}
	}
	return NoNode
}

// EnclosingLoop returns the statement that an unlabeled jump targets:
// the innermost Loop or Switch for Break and the innermost Loop for Continue.
// It returns NoNode if the search reaches a Func or the root.
func (t *Tree) EnclosingLoop(jump NodeID) NodeID {
	kind := t.Kind(jump)
	for id := t.Parent(jump); id != NoNode; id = t.Parent(id) {
		switch t.nodes[id].Kind {
		case Func:
			return NoNode
		case Loop:
			return id
		case Switch:
			if kind == Break {
				return id
			}
		}
	}
	return NoNode
}

// LabelOf returns the label already attached to the statement id, or "".
func (t *Tree) LabelOf(id NodeID) string {
	p := t.Parent(id)
	if p != NoNode && t.nodes[p].Kind == Labeled && t.nodes[p].X == id {
		return t.nodes[p].Label
	}
	return ""
}

// Labels returns the set of labels declared within the function enclosing id.
// If id is not inside a Func, the whole tree rooted at id's outermost
// ancestor is searched.
func (t *Tree) Labels(id NodeID) map[string]bool {
	scope := id
	for p := id; p != NoNode; p = t.Parent(p) {
		scope = p
		if t.nodes[p].Kind == Func {
			break
		}
	}
	used := make(map[string]bool)
	t.Inspect(scope, func(n NodeID) bool {
		if n != scope && t.nodes[n].Kind == Func {
			return false
		}
		if t.nodes[n].Kind == Labeled {
			used[t.nodes[n].Label] = true
		}
		return true
	})
	return used
}

// NewLeaf adds a Leaf with the given text and range.
func (t *Tree) NewLeaf(text string, pos, end int) NodeID {
	return t.Add(Node{Kind: Leaf, Text: text, Pos: pos, End: end})
}

// Label wraps the statement id in a new Labeled node, as if label
// had been declared on it in the source. It returns the new node.
func (t *Tree) Label(id NodeID, label string) NodeID {
	p := t.Parent(id)
	n := t.nodes[id]
	l := t.Add(Node{Kind: Labeled, Label: label, Pos: n.Pos, End: n.End})
	t.nodes[l].X = id
	t.nodes[l].Parent = p
	t.nodes[id].Parent = l
	if p == NoNode {
		return l
	}
	pn := &t.nodes[p]
	for _, f := range []*NodeID{&pn.Init, &pn.Cond, &pn.Then, &pn.Else, &pn.X, &pn.Y} {
		if *f == id {
			*f = l
		}
	}
	for i, c := range pn.List {
		if c == id {
			pn.List[i] = l
		}
	}
	return l
}
