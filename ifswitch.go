// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/inspector"
	"rsc.io/ifswitch/refactor"
	"rsc.io/ifswitch/rewrite"
)

// A switcher applies rewrites to one snapshot.
// Rewrites never overlap: each changes original text that no other touches.
type switcher struct {
	snap  *refactor.Snapshot
	opts  rewrite.Options
	logf  func(format string, args ...any)
	hosts map[ast.Node]*goHost
	done  []span
}

func newSwitcher(snap *refactor.Snapshot, logf func(string, ...any)) *switcher {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &switcher{
		snap:  snap,
		opts:  rewrite.Options{KeepContinue: true},
		logf:  logf,
		hosts: make(map[ast.Node]*goHost),
	}
}

// apply rewrites the code named by item.
// Errors are recorded in the snapshot.
func (sw *switcher) apply(item *refactor.Item, expr string) {
	s := sw.snap
	switch item.Kind {
	case refactor.ItemPos:
		pkg, file := s.FileAt(item.Pos)
		if file == nil {
			s.ErrorAt(token.NoPos, "%s: not in a target file", expr)
			return
		}
		ifs := firstIf(file.Syntax, item.Pos, item.End)
		if ifs == nil {
			s.ErrorAt(item.Pos, "no if statement at %s", expr)
			return
		}
		head, fn := chainHead(s.SyntaxAt(ifs.Pos()), ifs)
		if fn == nil {
			s.ErrorAt(ifs.Pos(), "if statement outside function")
			return
		}
		if err := sw.rewrite(pkg, file, fn, head, true); err != nil {
			s.ErrorAt(head.Pos(), "%v", err)
		}

	case refactor.ItemFunc, refactor.ItemMethod:
		decl := s.FuncDecl(item)
		if decl == nil || decl.Body == nil {
			s.ErrorAt(token.NoPos, "%s has no body", expr)
			return
		}
		pkg, file := s.FileAt(decl.Pos())
		sw.bulk(pkg, file, decl.Pos(), decl.End())

	case refactor.ItemFile:
		pkg, file := s.FileByName(item.Name)
		sw.bulk(pkg, file, file.Syntax.Pos(), file.Syntax.End())

	case refactor.ItemPackage:
		s.ForEachTargetFile(func(pkg *refactor.Package, file *refactor.File) {
			sw.bulk(pkg, file, file.Syntax.Pos(), file.Syntax.End())
		})

	case refactor.ItemNotFound:
		s.ErrorAt(token.NoPos, "%s not found", expr)

	default:
		s.ErrorAt(token.NoPos, "cannot rewrite %v %s", item.Kind, expr)
	}
}

// bulk rewrites every chain in [lo, hi) whose head has an else.
func (sw *switcher) bulk(pkg *refactor.Package, file *refactor.File, lo, hi token.Pos) {
	type chain struct {
		fn   ast.Node
		head *ast.IfStmt
	}
	var chains []chain
	in := inspector.New([]*ast.File{file.Syntax})
	in.WithStack([]ast.Node{(*ast.IfStmt)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		ifs := n.(*ast.IfStmt)
		if ifs.Pos() < lo || ifs.End() > hi || ifs.Else == nil {
			return true
		}
		if parent, ok := stack[len(stack)-2].(*ast.IfStmt); ok && parent.Else == ifs {
			return true
		}
		for i := len(stack) - 2; i >= 0; i-- {
			switch fn := stack[i].(type) {
			case *ast.FuncDecl, *ast.FuncLit:
				chains = append(chains, chain{fn, ifs})
				return true
			}
		}
		return true
	})
	for _, c := range chains {
		if err := sw.rewrite(pkg, file, c.fn, c.head, false); err != nil {
			sw.snap.ErrorAt(c.head.Pos(), "%v", err)
		}
	}
}

var errOverlap = errors.New("overlaps an earlier rewrite")

// rewrite rewrites the chain headed by ifs in the function fn.
// A chain overlapping an earlier rewrite is skipped,
// and reported as errOverlap if explicit is set.
func (sw *switcher) rewrite(pkg *refactor.Package, file *refactor.File, fn ast.Node, ifs *ast.IfStmt, explicit bool) error {
	h := sw.hosts[fn]
	if h == nil {
		h = newGoHost(fn, file.Syntax, pkg.TypesInfo, sw.snap)
		sw.hosts[fn] = h
	}
	res, err := h.rewrite(ifs, sw.opts)
	if err != nil {
		return err
	}
	spans := h.spans()
	for _, sp := range spans {
		for _, d := range sw.done {
			if overlaps(sp, d) {
				h.reset()
				if explicit {
					return errOverlap
				}
				sw.logf("%s: skipping if statement: %v", sw.snap.Addr(ifs.Pos()), errOverlap)
				return nil
			}
		}
	}
	sw.logf("%s: %s", sw.snap.Addr(ifs.Pos()), rewrite.Format(h.t, res.Match, res.Labels))
	h.commit(sw.snap.BufferAt(ifs.Pos()))
	sw.done = append(sw.done, spans...)
	return nil
}

// overlaps reports whether two edit spans conflict.
// An insertion point conflicts only with a range strictly around it.
func overlaps(a, b span) bool {
	switch {
	case a.Pos == a.End && b.Pos == b.End:
		return false
	case a.Pos == a.End:
		return b.Pos < a.Pos && a.Pos < b.End
	case b.Pos == b.End:
		return a.Pos < b.Pos && b.Pos < a.End
	}
	return a.Pos < b.End && b.Pos < a.End
}

// firstIf returns the first if statement in f
// whose if keyword lies in [lo, hi), or in [lo, lo] for an empty range.
func firstIf(f *ast.File, lo, hi token.Pos) *ast.IfStmt {
	var found *ast.IfStmt
	ast.Inspect(f, func(n ast.Node) bool {
		if found != nil || n == nil {
			return false
		}
		if n.End() < lo || n.Pos() > hi {
			return false
		}
		if ifs, ok := n.(*ast.IfStmt); ok {
			if ifs.If == lo || lo <= ifs.If && ifs.If < hi {
				found = ifs
				return false
			}
		}
		return true
	})
	return found
}

// chainHead returns the head of the else-if chain containing ifs,
// and the innermost function enclosing it.
// path is the enclosing path of ifs, innermost first.
func chainHead(path []ast.Node, ifs *ast.IfStmt) (*ast.IfStmt, ast.Node) {
	head := ifs
	for _, n := range path {
		switch n := n.(type) {
		case *ast.IfStmt:
			if n.Else == head {
				head = n
			}
		case *ast.FuncDecl, *ast.FuncLit:
			return head, n
		}
	}
	return head, nil
}
