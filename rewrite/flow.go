// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

// OrOp is the Binary operator flattened into match disjuncts.
const OrOp = "||"

// EqOp is the Binary operator that subject extraction looks for.
const EqOp = "=="

// Applicable reports whether id can be rewritten:
// it must be a conditional with a then branch.
func Applicable(t *Tree, id NodeID) bool {
	return id != NoNode && t.Kind(id) == Conditional && t.Node(id).Then != NoNode
}

// isLink reports whether id can continue a chain as another arm.
// A conditional with an Init cannot: its bindings would have to
// scope over the arms that follow it.
func isLink(t *Tree, id NodeID) bool {
	return Applicable(t, id) && t.Node(id).Init == NoNode
}

// CanPassThrough reports whether control may reach the end of id
// without an unconditional exit. An answer of true is always safe;
// false is returned only when every path leaves id.
func CanPassThrough(t *Tree, id NodeID) bool {
	if id == NoNode {
		return true
	}
	n := t.Node(id)
	switch n.Kind {
	case Return, Throw, Break, Continue, Goto:
		return false

	case Block:
		// A labeled statement after an exit may still be reached by a goto.
		reach := true
		for _, s := range n.List {
			if t.Kind(s) == Labeled {
				reach = true
			}
			if reach && !CanPassThrough(t, s) {
				reach = false
			}
		}
		return reach

	case Conditional:
		return n.Else == NoNode || CanPassThrough(t, n.Then) || CanPassThrough(t, n.Else)

	case Labeled:
		return CanPassThrough(t, n.X)
	}
	return true
}

// Disjuncts flattens the || operands of cond, left to right,
// with enclosing parentheses removed from each.
func Disjuncts(t *Tree, cond NodeID) []NodeID {
	var list []NodeID
	var add func(NodeID)
	add = func(id NodeID) {
		id = t.Unparen(id)
		if n := t.Node(id); n.Kind == Binary && n.Op == OrOp {
			add(n.X)
			add(n.Y)
			return
		}
		list = append(list, id)
	}
	add(cond)
	return list
}
