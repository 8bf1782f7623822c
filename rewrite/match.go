// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

// An Arm is one case of a Match: if any of Conds holds, Body runs.
// With a Subject, each of Conds is a value compared against it.
type Arm struct {
	Conds []NodeID
	Body  NodeID
	Pos   int // position of the conditional the arm came from
}

// A Match is the planned replacement for a conditional chain.
type Match struct {
	Init    NodeID // statement scoped over all arms, or NoNode
	Subject NodeID // scrutinee, or NoNode
	Arms    []Arm

	Default    NodeID // body of the default arm, or NoNode
	DefaultPos int

	// DefaultFromElse is set when Default is an else branch taken verbatim.
	DefaultFromElse bool
}

// HasDefault reports whether m has a default arm.
func (m *Match) HasDefault() bool {
	return m.Default != NoNode
}

// Labels records the explicit labels a rewrite gives to jumps.
type Labels struct {
	Jumps   map[NodeID]string // jump -> label
	Targets map[NodeID]string // loop -> label

	// Declare lists the loops whose labels were synthesized,
	// in the order they were first needed.
	Declare []NodeID
}

func newLabels() *Labels {
	return &Labels{
		Jumps:   make(map[NodeID]string),
		Targets: make(map[NodeID]string),
	}
}

// Of returns the label assigned to jump, or "".
func (l *Labels) Of(jump NodeID) string {
	if l == nil {
		return ""
	}
	return l.Jumps[jump]
}

// labeler assigns labels to the unlabeled jumps that a match
// construct would otherwise capture.
type labeler struct {
	h            Host
	t            *Tree
	keepContinue bool
	labels       *Labels
}

func (lb *labeler) visit(id NodeID, inSwitch bool) {
	if id == NoNode {
		return
	}
	n := lb.t.Node(id)
	switch n.Kind {
	case Func, Loop:
		return
	case Switch:
		inSwitch = true
	case Break:
		if n.Label == "" && !inSwitch {
			lb.assign(id)
		}
		return
	case Continue:
		if n.Label == "" && !lb.keepContinue {
			lb.assign(id)
		}
		return
	}
	for _, c := range lb.t.Children(id) {
		lb.visit(c, inSwitch)
	}
}

func (lb *labeler) assign(jump NodeID) {
	target := lb.h.FindEnclosingLoop(jump)
	if target == NoNode {
		return
	}
	label, ok := lb.labels.Targets[target]
	if !ok {
		label = lb.t.LabelOf(target)
		if label == "" {
			used := make(map[string]bool)
			for l := range lb.h.UsedLabels(target) {
				used[l] = true
			}
			for _, l := range lb.labels.Targets {
				used[l] = true
			}
			label = lb.h.UniqueLabelName(used)
			lb.labels.Declare = append(lb.labels.Declare, target)
		}
		lb.labels.Targets[target] = label
	}
	lb.labels.Jumps[jump] = label
}

// introduceSubject rewrites m into subject form when every condition
// compares the same name with ==. Duplicate case values block it.
func introduceSubject(h Host, m *Match) {
	t := h.Tree()
	subj := NoNode
	seen := make(map[string]bool)
	for _, arm := range m.Arms {
		for _, c := range arm.Conds {
			n := t.Node(c)
			if n.Kind != Binary || n.Op != EqOp {
				return
			}
			x := t.Unparen(n.X)
			if t.Kind(x) != Name {
				return
			}
			if subj == NoNode {
				if !h.Subject(x) {
					return
				}
				subj = x
			} else if t.Node(x).Text != t.Node(subj).Text {
				return
			}
			if v := h.CaseKey(t.Unparen(n.Y)); v != "" {
				if seen[v] {
					return
				}
				seen[v] = true
			}
		}
	}
	if subj == NoNode {
		return
	}
	m.Subject = subj
	for i := range m.Arms {
		conds := make([]NodeID, len(m.Arms[i].Conds))
		for j, c := range m.Arms[i].Conds {
			conds[j] = t.Unparen(t.Node(c).Y)
		}
		m.Arms[i].Conds = conds
	}
}
