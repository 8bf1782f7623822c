// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import "strings"

// Sprint renders id in a neutral brace syntax.
// Jumps are shown with the labels in l, if any, as break@label.
func Sprint(t *Tree, id NodeID, l *Labels) string {
	var b strings.Builder
	p := &printer{t: t, l: l, b: &b}
	p.node(id)
	return b.String()
}

// Format renders m in the neutral form
//
//	match [subject] { c1, c2 -> body; ...; else -> body }
func Format(t *Tree, m *Match, l *Labels) string {
	var b strings.Builder
	p := &printer{t: t, l: l, b: &b}
	b.WriteString("match ")
	if m.Init != NoNode {
		b.WriteString("(")
		p.node(m.Init)
		b.WriteString(") ")
	}
	if m.Subject != NoNode {
		p.node(m.Subject)
		b.WriteString(" ")
	}
	b.WriteString("{ ")
	for i, arm := range m.Arms {
		if i > 0 {
			b.WriteString("; ")
		}
		for j, c := range arm.Conds {
			if j > 0 {
				b.WriteString(", ")
			}
			p.node(c)
		}
		b.WriteString(" -> ")
		p.body(arm.Body)
	}
	if m.Default != NoNode {
		if len(m.Arms) > 0 {
			b.WriteString("; ")
		}
		b.WriteString("else -> ")
		p.body(m.Default)
	}
	b.WriteString(" }")
	return b.String()
}

type printer struct {
	t *Tree
	l *Labels
	b *strings.Builder
}

// body prints a block without its braces.
func (p *printer) body(id NodeID) {
	if p.t.Kind(id) != Block {
		p.node(id)
		return
	}
	list := p.t.Node(id).List
	if len(list) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.list(list)
}

func (p *printer) list(list []NodeID) {
	for i, s := range list {
		if i > 0 {
			p.b.WriteString("; ")
		}
		p.node(s)
	}
}

func (p *printer) jump(word string, id NodeID) {
	n := p.t.Node(id)
	p.b.WriteString(word)
	label := n.Label
	if label == "" {
		label = p.l.Of(id)
	}
	if label != "" {
		p.b.WriteString("@" + label)
	}
}

func (p *printer) node(id NodeID) {
	if id == NoNode {
		return
	}
	n := p.t.Node(id)
	b := p.b
	switch n.Kind {
	case Leaf, Name:
		b.WriteString(n.Text)
	case Binary:
		p.node(n.X)
		b.WriteString(" " + n.Op + " ")
		p.node(n.Y)
	case Paren:
		b.WriteString("(")
		p.node(n.X)
		b.WriteString(")")
	case Block:
		if len(n.List) == 0 {
			b.WriteString("{}")
			break
		}
		b.WriteString("{ ")
		p.list(n.List)
		b.WriteString(" }")
	case Conditional:
		b.WriteString("if (")
		if n.Init != NoNode {
			p.node(n.Init)
			b.WriteString("; ")
		}
		p.node(n.Cond)
		b.WriteString(") ")
		p.node(n.Then)
		if n.Else != NoNode {
			b.WriteString(" else ")
			p.node(n.Else)
		}
	case Break:
		p.jump("break", id)
	case Continue:
		p.jump("continue", id)
	case Goto:
		b.WriteString("goto " + n.Label)
	case Return, Throw:
		if n.Kind == Return {
			b.WriteString("return")
		} else {
			b.WriteString("throw")
		}
		if n.X != NoNode {
			b.WriteString(" ")
			p.node(n.X)
		}
	case Loop, Switch, Func:
		b.WriteString(n.Text)
		for _, c := range n.List {
			b.WriteString(" ")
			p.node(c)
		}
	case Labeled:
		b.WriteString(n.Label + "@ ")
		p.node(n.X)
	}
}
