// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"rsc.io/ifswitch/edit"
	"rsc.io/ifswitch/rewrite"
)

// An armMark records where an arm starts in the printed switch,
// so that lost comments can be put back in front of it.
type armMark struct {
	body int // original position of the arm's body
	off  int // offset of the "case" or "default" keyword in the text
}

// A printed switch statement and the bookkeeping needed to restore comments.
type printed struct {
	text    string
	marks   []armMark
	closing int // offset of the closing brace
	emitted []rewrite.Range
}

// Format prints m as a Go switch statement.
func (h *goHost) Format(m *rewrite.Match, labels *rewrite.Labels) (string, error) {
	p := new(printed)
	var b strings.Builder
	b.WriteString("switch ")
	if m.Init != rewrite.NoNode {
		b.WriteString(h.span(p, m.Init))
		b.WriteString("; ")
	}
	if m.Subject != rewrite.NoNode {
		b.WriteString(h.span(p, m.Subject))
		b.WriteString(" ")
	}
	b.WriteString("{\n")
	for _, arm := range m.Arms {
		p.marks = append(p.marks, armMark{body: h.t.Range(arm.Body).Pos, off: b.Len()})
		b.WriteString("case ")
		for i, c := range arm.Conds {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(h.span(p, c))
		}
		b.WriteString(":\n")
		h.body(&b, p, arm.Body, labels)
	}
	if m.HasDefault() {
		p.marks = append(p.marks, armMark{body: h.t.Range(m.Default).Pos, off: b.Len()})
		b.WriteString("default:\n")
		h.body(&b, p, m.Default, labels)
	}
	p.closing = b.Len()
	b.WriteString("}")
	p.text = b.String()
	h.printed = p
	return p.text, nil
}

// span returns the source text of id and records it as emitted.
func (h *goHost) span(p *printed, id rewrite.NodeID) string {
	r := h.t.Range(id)
	p.emitted = append(p.emitted, r)
	return string(h.src.Text(token.Pos(r.Pos), token.Pos(r.End)))
}

// body writes the statements of id, which is a block, a synthetic block
// of absorbed statements, or an else-if kept as a whole.
// Jumps listed in labels get their label spliced in.
func (h *goHost) body(b *strings.Builder, p *printed, id rewrite.NodeID, labels *rewrite.Labels) {
	r := h.t.Range(id)
	if blk, ok := h.syntax[id].(*ast.BlockStmt); ok {
		r = rewrite.Range{Pos: int(blk.Lbrace) + 1, End: int(blk.Rbrace)}
	}
	p.emitted = append(p.emitted, r)
	text := h.src.Text(token.Pos(r.Pos), token.Pos(r.End))

	// Splice labels in source order.
	var jumps []rewrite.NodeID
	for j := range labels.Jumps {
		if r.Contains(h.t.Node(j).Pos) {
			jumps = append(jumps, j)
		}
	}
	sort.Slice(jumps, func(i, j int) bool { return jumps[i] < jumps[j] })
	ed := edit.NewBuffer(text)
	for _, j := range jumps {
		br := h.syntax[j].(*ast.BranchStmt)
		at := int(br.TokPos) + len(br.Tok.String()) - r.Pos
		ed.Insert(at, " "+labels.Jumps[j])
	}

	out := strings.TrimSpace(ed.String())
	if out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}
}

// CaseKey returns the constant value of x, or its source text
// if it is not a constant.
func (h *goHost) CaseKey(x rewrite.NodeID) string {
	if e, ok := h.syntax[x].(ast.Expr); ok && h.info != nil {
		if tv, ok := h.info.Types[e]; ok && tv.Value != nil {
			return "const " + tv.Value.ExactString()
		}
	}
	return h.t.Node(x).Text
}

// Subject reports whether x can be the tag of a switch: it must be
// typed and comparable and must not be a func, map or slice, whose only
// comparison is with nil. Without type information only nil is rejected.
func (h *goHost) Subject(x rewrite.NodeID) bool {
	e, ok := h.syntax[x].(ast.Expr)
	if !ok {
		return false
	}
	if h.info == nil {
		id, ok := e.(*ast.Ident)
		return !ok || id.Name != "nil"
	}
	tv, ok := h.info.Types[e]
	if !ok || tv.Type == nil || tv.IsNil() || tv.IsType() {
		return false
	}
	if b, ok := tv.Type.(*types.Basic); ok && b.Info()&types.IsUntyped != 0 {
		// The tag would take its default type.
		return false
	}
	switch tv.Type.Underlying().(type) {
	case *types.Signature, *types.Map, *types.Slice:
		return false
	}
	return types.Comparable(tv.Type)
}
