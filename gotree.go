// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
	"rsc.io/ifswitch/rewrite"
)

// A source returns the original text of a position range.
// *refactor.Snapshot is a source.
type source interface {
	Text(lo, hi token.Pos) []byte
}

// A goTree is the arena form of one Go function.
type goTree struct {
	t    *rewrite.Tree
	info *types.Info // may be nil
	src  source
	fn   ast.Node // *ast.FuncDecl or *ast.FuncLit
	root rewrite.NodeID

	syntax map[rewrite.NodeID]ast.Node
	ids    map[ast.Node]rewrite.NodeID
}

// buildTree converts the body of fn, a *ast.FuncDecl or *ast.FuncLit,
// into an arena. Function literals inside the body become leaves.
func buildTree(fn ast.Node, info *types.Info, src source) *goTree {
	g := &goTree{
		t:      rewrite.NewTree(),
		info:   info,
		src:    src,
		fn:     fn,
		syntax: make(map[rewrite.NodeID]ast.Node),
		ids:    make(map[ast.Node]rewrite.NodeID),
	}
	var body *ast.BlockStmt
	switch fn := fn.(type) {
	case *ast.FuncDecl:
		body = fn.Body
	case *ast.FuncLit:
		body = fn.Body
	}
	var list []rewrite.NodeID
	if body != nil {
		list = append(list, g.stmt(body))
	}
	g.root = g.add(fn, rewrite.Node{Kind: rewrite.Func, Text: "func", List: list})
	return g
}

func (g *goTree) text(n ast.Node) string {
	return string(g.src.Text(n.Pos(), n.End()))
}

func (g *goTree) add(n ast.Node, node rewrite.Node) rewrite.NodeID {
	node.Pos, node.End = int(n.Pos()), int(n.End())
	id := g.t.Add(node)
	g.syntax[id] = n
	g.ids[n] = id
	return id
}

func (g *goTree) leaf(n ast.Node) rewrite.NodeID {
	return g.add(n, rewrite.Node{Kind: rewrite.Leaf, Text: g.text(n)})
}

func (g *goTree) stmts(list []ast.Stmt) []rewrite.NodeID {
	var ids []rewrite.NodeID
	for _, s := range list {
		ids = append(ids, g.stmt(s))
	}
	return ids
}

func (g *goTree) stmt(s ast.Stmt) rewrite.NodeID {
	switch s := s.(type) {
	case nil:
		return rewrite.NoNode

	case *ast.IfStmt:
		init := g.stmt(s.Init)
		cond := g.expr(s.Cond)
		then := g.stmt(s.Body)
		els := g.stmt(s.Else)
		return g.add(s, rewrite.Node{Kind: rewrite.Conditional, Init: init, Cond: cond, Then: then, Else: els})

	case *ast.BlockStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Block, List: g.stmts(s.List)})

	case *ast.CaseClause:
		return g.add(s, rewrite.Node{Kind: rewrite.Block, List: g.stmts(s.Body)})

	case *ast.CommClause:
		return g.add(s, rewrite.Node{Kind: rewrite.Block, List: g.stmts(s.Body)})

	case *ast.ForStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Loop, Text: "for", List: []rewrite.NodeID{g.stmt(s.Body)}})

	case *ast.RangeStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Loop, Text: "for range", List: []rewrite.NodeID{g.stmt(s.Body)}})

	case *ast.SwitchStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Switch, Text: "switch", List: g.stmts(s.Body.List)})

	case *ast.TypeSwitchStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Switch, Text: "switch", List: g.stmts(s.Body.List)})

	case *ast.SelectStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Switch, Text: "select", List: g.stmts(s.Body.List)})

	case *ast.LabeledStmt:
		x := g.stmt(s.Stmt)
		return g.add(s, rewrite.Node{Kind: rewrite.Labeled, Label: s.Label.Name, X: x})

	case *ast.BranchStmt:
		label := ""
		if s.Label != nil {
			label = s.Label.Name
		}
		switch s.Tok {
		case token.BREAK:
			return g.add(s, rewrite.Node{Kind: rewrite.Break, Label: label})
		case token.CONTINUE:
			return g.add(s, rewrite.Node{Kind: rewrite.Continue, Label: label})
		case token.GOTO:
			return g.add(s, rewrite.Node{Kind: rewrite.Goto, Label: label})
		}
		return g.leaf(s) // fallthrough

	case *ast.ReturnStmt:
		return g.add(s, rewrite.Node{Kind: rewrite.Return, Text: g.text(s)})

	case *ast.ExprStmt:
		if call, ok := astutil.Unparen(s.X).(*ast.CallExpr); ok && g.isThrow(call) {
			return g.add(s, rewrite.Node{Kind: rewrite.Throw, Text: g.text(s)})
		}
	}
	return g.leaf(s)
}

// expr converts a condition. Only the structure the engine looks at is kept.
func (g *goTree) expr(x ast.Expr) rewrite.NodeID {
	switch x := x.(type) {
	case nil:
		return rewrite.NoNode
	case *ast.ParenExpr:
		inner := g.expr(x.X)
		return g.add(x, rewrite.Node{Kind: rewrite.Paren, X: inner, Text: g.text(x)})
	case *ast.BinaryExpr:
		l := g.expr(x.X)
		r := g.expr(x.Y)
		return g.add(x, rewrite.Node{Kind: rewrite.Binary, X: l, Op: x.Op.String(), Y: r, Text: g.text(x)})
	}
	if isName(x) {
		return g.add(x, rewrite.Node{Kind: rewrite.Name, Text: g.text(x)})
	}
	return g.leaf(x)
}

// isName reports whether x is an identifier or a chain of field selections
// rooted at one.
func isName(x ast.Expr) bool {
	for {
		switch e := x.(type) {
		case *ast.Ident:
			return true
		case *ast.SelectorExpr:
			x = e.X
		default:
			return false
		}
	}
}

// isThrow reports whether call never returns:
// panic, os.Exit, runtime.Goexit, or one of the log Fatal and Panic functions.
func (g *goTree) isThrow(call *ast.CallExpr) bool {
	switch fun := astutil.Unparen(call.Fun).(type) {
	case *ast.Ident:
		if fun.Name != "panic" {
			return false
		}
		if g.info == nil {
			return true
		}
		_, ok := g.info.Uses[fun].(*types.Builtin)
		return ok

	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		if !ok {
			return false
		}
		path := pkg.Name
		if g.info != nil {
			pn, ok := g.info.Uses[pkg].(*types.PkgName)
			if !ok {
				return false
			}
			path = pn.Imported().Path()
		}
		switch path + "." + fun.Sel.Name {
		case "os.Exit", "runtime.Goexit",
			"log.Fatal", "log.Fatalf", "log.Fatalln",
			"log.Panic", "log.Panicf", "log.Panicln":
			return true
		}
	}
	return false
}

// id returns the arena node for n, or NoNode.
func (g *goTree) id(n ast.Node) rewrite.NodeID {
	if id, ok := g.ids[n]; ok {
		return id
	}
	return rewrite.NoNode
}
