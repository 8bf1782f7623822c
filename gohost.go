// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/xerrors"
	"rsc.io/ifswitch/edit"
	"rsc.io/ifswitch/rewrite"
)

// A buffer receives the edits of a committed rewrite.
// *refactor.Buffer is a buffer.
type buffer interface {
	Replace(pos, end token.Pos, new string)
	Delete(pos, end token.Pos)
	Insert(pos token.Pos, new string)
}

// A goHost implements rewrite.Host for one Go function.
// The engine's mutations are staged and applied to a buffer by commit.
// A goHost can serve several rewrites in a row; labels declared by
// committed rewrites are visible to the ones that follow.
type goHost struct {
	*goTree
	comments []rewrite.Comment // all comments in the file, in order

	head rewrite.NodeID // root of the current rewrite

	// staged by the current rewrite
	printed  *printed
	created  string
	replaced rewrite.NodeID
	deleted  []rewrite.NodeID
	declared []labelDecl
	snapshot *rewrite.CommentSnapshot
}

type labelDecl struct {
	loop  rewrite.NodeID
	label string
}

// A span is a range of original text that a rewrite changes.
// A span with Pos == End is an insertion point.
type span = rewrite.Range

func newGoHost(fn ast.Node, file *ast.File, info *types.Info, src source) *goHost {
	h := &goHost{goTree: buildTree(fn, info, src)}
	for _, g := range file.Comments {
		for _, c := range g.List {
			h.comments = append(h.comments, rewrite.Comment{
				Range: rewrite.Range{Pos: int(c.Pos()), End: int(c.End())},
				Text:  c.Text,
			})
		}
	}
	h.reset()
	return h
}

// reset discards the staged edits.
func (h *goHost) reset() {
	h.printed = nil
	h.created = ""
	h.replaced = rewrite.NoNode
	h.deleted = nil
	h.declared = nil
	h.snapshot = nil
}

func (h *goHost) Tree() *rewrite.Tree { return h.t }

// rewrite runs the engine on the chain headed by ifs.
// On success the edits are staged and the caller must commit or reset.
func (h *goHost) rewrite(ifs *ast.IfStmt, opts rewrite.Options) (*rewrite.Result, error) {
	h.reset()
	root := h.id(ifs)
	if root == rewrite.NoNode {
		return nil, xerrors.Errorf("if statement not in function")
	}
	if h.t.Kind(h.t.Parent(root)) == rewrite.Conditional {
		return nil, &rewrite.UnsupportedError{Op: "rewrite", Pos: int(ifs.Pos()), Reason: "if statement in the middle of an else-if chain"}
	}
	h.head = root
	rw := &rewrite.Rewriter{Host: h, Options: opts}
	res, err := rw.Rewrite(root)
	if err != nil {
		h.reset()
		return nil, err
	}
	return res, nil
}

// CreateExpression checks that text parses as a Go statement.
func (h *goHost) CreateExpression(text string) (rewrite.NodeID, error) {
	src := "package p\nfunc _() {\n" + text + "\n}\n"
	if _, err := parser.ParseFile(token.NewFileSet(), "switch.go", src, parser.ParseComments); err != nil {
		return rewrite.NoNode, xerrors.Errorf("printed switch does not parse: %w", err)
	}
	h.created = text
	return h.t.Add(rewrite.Node{Kind: rewrite.Switch, Text: text}), nil
}

// CreateBlock returns a synthetic block over stmts, which stay where
// they are in the tree so that their jumps keep their targets.
// Absorption is declined for a run ending a case clause with fallthrough,
// for a run declaring a label that a goto outside the run refers to,
// and for a run that must end in a terminating statement when some arm
// does not end in one.
func (h *goHost) CreateBlock(stmts []rewrite.NodeID) (rewrite.NodeID, error) {
	first, last := h.t.Range(stmts[0]), h.t.Range(stmts[len(stmts)-1])
	run := rewrite.Range{Pos: first.Pos, End: last.End}

	declared := make(map[string]bool)
	for _, s := range stmts {
		if br, ok := h.syntax[s].(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
			return rewrite.NoNode, rewrite.ErrKeepSiblings
		}
		h.t.Inspect(s, func(id rewrite.NodeID) bool {
			if n := h.t.Node(id); n.Kind == rewrite.Labeled {
				declared[n.Label] = true
			}
			return true
		})
	}
	if h.mustTerminate(h.t.Parent(stmts[0])) && !h.armsTerminate(stmts[0]) {
		return rewrite.NoNode, rewrite.ErrKeepSiblings
	}
	if len(declared) > 0 {
		blocked := false
		h.t.Inspect(h.root, func(id rewrite.NodeID) bool {
			n := h.t.Node(id)
			if n.Kind == rewrite.Goto && declared[n.Label] && !run.Contains(n.Pos) {
				blocked = true
			}
			return !blocked
		})
		if blocked {
			return rewrite.NoNode, rewrite.ErrKeepSiblings
		}
	}

	id := h.t.Add(rewrite.Node{Kind: rewrite.Block, List: stmts, Pos: run.Pos, End: run.End})
	h.t.SetParent(id, h.t.Parent(stmts[0]))
	return id, nil
}

// AbsorbLink declines to absorb an if statement that must be terminating
// when an arm before it is not: the switch replacing both would not be.
func (h *goHost) AbsorbLink(link rewrite.NodeID) error {
	if h.stmtMustTerminate(link) && !h.armsTerminate(link) {
		return rewrite.ErrKeepSiblings
	}
	return nil
}

// armsTerminate reports whether every arm before next is terminating.
func (h *goHost) armsTerminate(next rewrite.NodeID) bool {
	for _, body := range h.armsBefore(next) {
		if !h.terminates(h.syntax[body]) {
			return false
		}
	}
	return true
}

// armsBefore returns the then-branches of the chain from the current
// root up to the sibling next.
func (h *goHost) armsBefore(next rewrite.NodeID) []rewrite.NodeID {
	var bodies []rewrite.NodeID
	for s := h.head; s != rewrite.NoNode && s != next; {
		for c := s; h.t.Kind(c) == rewrite.Conditional; c = h.t.Node(c).Else {
			bodies = append(bodies, h.t.Node(c).Then)
		}
		rest := h.t.Following(s)
		if len(rest) == 0 {
			break
		}
		s = rest[0]
	}
	return bodies
}

// mustTerminate reports whether the block must end in a terminating
// statement for the function to compile: it is the body of a function
// with results, or its last statement, recursively.
func (h *goHost) mustTerminate(block rewrite.NodeID) bool {
	if body, ok := h.syntax[block].(*ast.BlockStmt); ok {
		var typ *ast.FuncType
		switch fn := h.fn.(type) {
		case *ast.FuncDecl:
			if fn.Body == body {
				typ = fn.Type
			}
		case *ast.FuncLit:
			if fn.Body == body {
				typ = fn.Type
			}
		}
		if typ != nil {
			return typ.Results != nil && len(typ.Results.List) > 0
		}
	}
	p := h.t.Parent(block)
	switch h.t.Kind(p) {
	case rewrite.Block:
		return h.isLast(block) && h.mustTerminate(p)
	case rewrite.Conditional, rewrite.Labeled, rewrite.Switch:
		return h.stmtMustTerminate(p)
	}
	return false
}

// stmtMustTerminate reports whether the statement s must be terminating.
func (h *goHost) stmtMustTerminate(s rewrite.NodeID) bool {
	p := h.t.Parent(s)
	switch h.t.Kind(p) {
	case rewrite.Block:
		return h.isLast(s) && h.mustTerminate(p)
	case rewrite.Conditional, rewrite.Labeled:
		return h.stmtMustTerminate(p)
	}
	return false
}

func (h *goHost) isLast(s rewrite.NodeID) bool {
	list := h.t.Node(h.t.Parent(s)).List
	return len(list) > 0 && list[len(list)-1] == s
}

// terminates reports whether s is a terminating statement
// in the sense of the Go spec. Loops, switches and selects are
// not analyzed and are reported as not terminating.
func (h *goHost) terminates(s ast.Node) bool {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BranchStmt:
		return s.Tok == token.GOTO
	case *ast.ExprStmt:
		call, ok := astutil.Unparen(s.X).(*ast.CallExpr)
		if !ok {
			return false
		}
		id, ok := astutil.Unparen(call.Fun).(*ast.Ident)
		if !ok || id.Name != "panic" {
			return false
		}
		if h.info == nil {
			return true
		}
		_, ok = h.info.Uses[id].(*types.Builtin)
		return ok
	case *ast.BlockStmt:
		return len(s.List) > 0 && h.terminates(s.List[len(s.List)-1])
	case *ast.IfStmt:
		return s.Else != nil && h.terminates(s.Body) && h.terminates(s.Else)
	case *ast.LabeledStmt:
		return h.terminates(s.Stmt)
	}
	return false
}

func (h *goHost) Replace(old, new rewrite.NodeID) rewrite.NodeID {
	h.replaced = old
	return new
}

func (h *goHost) Delete(id rewrite.NodeID) {
	h.deleted = append(h.deleted, id)
}

func (h *goHost) LabelLoop(loop rewrite.NodeID, label string) {
	h.declared = append(h.declared, labelDecl{loop, label})
}

// AttachedComments returns the comments lying entirely inside r.
func (h *goHost) AttachedComments(r rewrite.Range) rewrite.CommentSnapshot {
	s := rewrite.CommentSnapshot{Range: r}
	for _, c := range h.comments {
		if r.Covers(c.Range) {
			s.Comments = append(s.Comments, c)
		}
	}
	return s
}

func (h *goHost) Restore(s rewrite.CommentSnapshot, target rewrite.NodeID) {
	h.snapshot = &s
}

func (h *goHost) FindEnclosingLoop(jump rewrite.NodeID) rewrite.NodeID {
	return h.t.EnclosingLoop(jump)
}

// UsedLabels returns every label in the function: Go labels are function-scoped.
func (h *goHost) UsedLabels(loop rewrite.NodeID) map[string]bool {
	return h.t.Labels(loop)
}

func (h *goHost) UniqueLabelName(used map[string]bool) string {
	return rewrite.UniqueLabelName(used)
}

// deleteSpan returns the text removed for the absorbed statement id:
// the statement and everything back to the end of the one before it.
func (h *goHost) deleteSpan(id rewrite.NodeID) span {
	r := h.t.Range(id)
	if prev := h.t.Previous(id); prev != rewrite.NoNode {
		r.Pos = h.t.Range(prev).End
	}
	return r
}

// spans returns the original text the staged rewrite changes.
func (h *goHost) spans() []span {
	var list []span
	if h.replaced != rewrite.NoNode {
		list = append(list, h.t.Range(h.replaced))
	}
	for _, id := range h.deleted {
		list = append(list, h.deleteSpan(id))
	}
	for _, d := range h.declared {
		p := h.t.Range(d.loop).Pos
		list = append(list, span{Pos: p, End: p})
	}
	return list
}

// lostComments returns the comments of the restored snapshot that the
// staged edits remove without copying them into an arm.
func (h *goHost) lostComments() []rewrite.Comment {
	if h.snapshot == nil || h.printed == nil {
		return nil
	}
	removed := []span{h.t.Range(h.replaced)}
	for _, id := range h.deleted {
		removed = append(removed, h.deleteSpan(id))
	}
	var lost []rewrite.Comment
Comments:
	for _, c := range h.snapshot.Comments {
		for _, r := range h.printed.emitted {
			if r.Covers(c.Range) {
				continue Comments
			}
		}
		for _, r := range removed {
			if r.Covers(c.Range) {
				lost = append(lost, c)
				continue Comments
			}
		}
	}
	return lost
}

// switchText returns the printed switch with the lost comments put back
// in front of the first arm whose body starts after them.
func (h *goHost) switchText() string {
	p := h.printed
	lost := h.lostComments()
	if len(lost) == 0 {
		return p.text
	}
	ed := edit.NewBuffer([]byte(p.text))
	for _, c := range lost {
		at := p.closing
		for _, m := range p.marks {
			if c.Pos < m.body {
				at = m.off
				break
			}
		}
		ed.Insert(at, c.Text+"\n")
	}
	return ed.String()
}

// commit applies the staged rewrite to b and records
// the declared labels in the tree.
func (h *goHost) commit(b buffer) {
	if h.replaced == rewrite.NoNode {
		return
	}
	r := h.t.Range(h.replaced)
	b.Replace(token.Pos(r.Pos), token.Pos(r.End), h.switchText())
	for _, id := range h.deleted {
		d := h.deleteSpan(id)
		b.Delete(token.Pos(d.Pos), token.Pos(d.End))
	}
	sort.SliceStable(h.declared, func(i, j int) bool {
		return h.t.Range(h.declared[i].loop).Pos < h.t.Range(h.declared[j].loop).Pos
	})
	for _, d := range h.declared {
		b.Insert(token.Pos(h.t.Range(d.loop).Pos), d.label+":\n")
		h.t.Label(d.loop, d.label)
	}
	h.reset()
}
