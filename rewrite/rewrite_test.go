// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicable(t *testing.T) {
	b := newBuilder()
	x := b.leaf("x")
	ok := b.cond(b.name("c"), b.block(x), NoNode)
	noThen := b.cond(b.name("c"), NoNode, NoNode)

	assert.True(t, Applicable(b.t, ok))
	assert.False(t, Applicable(b.t, noThen))
	assert.False(t, Applicable(b.t, x))
	assert.False(t, Applicable(b.t, NoNode))

	_, err := Rewrite(newMemHost(b), noThen)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
}

func TestCanPassThrough(t *testing.T) {
	b := newBuilder()
	passes := func() NodeID { return b.block(b.leaf("f()")) }
	exits := func() NodeID { return b.block(b.leaf("f()"), b.ret()) }

	tests := []struct {
		name string
		node NodeID
		want bool
	}{
		{"throw", b.throw(b.leaf("e")), false},
		{"return", b.ret(), false},
		{"break", b.brk(), false},
		{"continue", b.cont(), false},
		{"block ending in return", exits(), false},
		{"block of plain statements", b.block(b.leaf("f()"), b.leaf("g()")), true},
		{"empty block", b.block(), true},
		{"return before more statements", b.block(b.ret(), b.leaf("g()")), false},
		{"conditional, both branches pass", b.cond(b.name("c"), passes(), passes()), true},
		{"conditional, only then passes", b.cond(b.name("c"), passes(), exits()), true},
		{"conditional, only else passes", b.cond(b.name("c"), exits(), passes()), true},
		{"conditional, neither passes", b.cond(b.name("c"), exits(), exits()), false},
		{"conditional without else", b.cond(b.name("c"), exits(), NoNode), true},
		{"label after goto", b.block(b.jump(Goto, "L"), b.labeled("L", b.leaf("f()"))), true},
		{"goto after label", b.block(b.labeled("L", b.leaf("f()")), b.jump(Goto, "L")), false},
		{"labeled return", b.labeled("L", b.ret()), false},
		{"loop", b.loop("while (c)", exits()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPassThrough(b.t, tt.node), Sprint(b.t, tt.node, nil))
		})
	}
}

func texts(t *Tree, ids []NodeID) []string {
	var list []string
	for _, id := range ids {
		list = append(list, Sprint(t, id, nil))
	}
	return list
}

func TestDisjuncts(t *testing.T) {
	b := newBuilder()
	// a || (b) || ((c)), parsed left-associatively.
	cond := b.or(b.or(b.name("a"), b.paren(b.name("b"))), b.paren(b.paren(b.name("c"))))
	assert.Equal(t, []string{"a", "b", "c"}, texts(b.t, Disjuncts(b.t, cond)))

	// (a || b) || c
	cond = b.or(b.paren(b.or(b.name("a"), b.name("b"))), b.name("c"))
	assert.Equal(t, []string{"a", "b", "c"}, texts(b.t, Disjuncts(b.t, cond)))

	// a && (b || c) is a single disjunct.
	cond = b.bin(b.name("a"), "&&", b.paren(b.or(b.name("b"), b.name("c"))))
	assert.Equal(t, []string{"a && (b || c)"}, texts(b.t, Disjuncts(b.t, cond)))
}

func TestUniqueLabelName(t *testing.T) {
	assert.Equal(t, "loop", UniqueLabelName(nil))
	assert.Equal(t, "loop1", UniqueLabelName(map[string]bool{"loop": true}))
	assert.Equal(t, "loop2", UniqueLabelName(map[string]bool{"loop": true, "loop1": true}))
	assert.Equal(t, "loop", UniqueLabelName(map[string]bool{"loop1": true}))
}

func TestEnclosingLoop(t *testing.T) {
	b := newBuilder()
	brk, cont := b.brk(), b.cont()
	sw := b.swtch("when (v)", b.block(brk, cont))
	lp := b.loop("while (c)", b.block(sw))
	inner := b.brk()
	b.fn(b.block(lp, b.fn(b.block(inner))))

	assert.Equal(t, sw, b.t.EnclosingLoop(brk))
	assert.Equal(t, lp, b.t.EnclosingLoop(cont))
	assert.Equal(t, NoNode, b.t.EnclosingLoop(inner))
}

func TestTreeLabel(t *testing.T) {
	b := newBuilder()
	brk := b.brk()
	lp := b.loop("while (c)", b.block(brk))
	body := b.block(b.leaf("x"), lp)
	b.fn(body)

	assert.Equal(t, "", b.t.LabelOf(lp))
	l := b.t.Label(lp, "outer")
	assert.Equal(t, "outer", b.t.LabelOf(lp))
	assert.Equal(t, l, b.t.Node(body).List[1])
	assert.Equal(t, body, b.t.Parent(l))
	assert.Equal(t, lp, b.t.EnclosingLoop(brk))
	assert.True(t, b.t.Labels(brk)["outer"])
}

func TestRewriteElseIfChain(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.leaf("f()")),
		b.cond(b.name("y"), b.block(b.leaf("g()")), b.block(b.leaf("h()"))))
	b.block(root, b.leaf("after()"))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> f(); y -> g(); else -> h() }", h.created)
	assert.Len(t, res.Match.Arms, 2)
	assert.True(t, res.Match.DefaultFromElse)
	assert.False(t, res.FullComments)
	assert.Empty(t, res.Deleted)
	assert.Empty(t, res.Labels.Declare)
	assert.Equal(t, []string{
		"replace if (x) { f() } else if (y) { g() } else { h() }",
		"restore 0",
	}, h.ops)
}

func TestRewriteAbsorbsTrailingStatements(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.leaf("f()"), b.ret()), NoNode)
	g, k := b.leaf("g()"), b.leaf("k()")
	b.block(b.leaf("before()"), root, g, k)

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> f(); return; else -> g(); k() }", h.created)
	assert.Equal(t, []NodeID{g, k}, res.Deleted)
	assert.True(t, res.Match.HasDefault())
	assert.False(t, res.Match.DefaultFromElse)
	assert.True(t, res.FullComments)
	assert.Equal(t, []string{
		"replace if (x) { f(); return }",
		"restore 0",
		"delete g()",
		"delete k()",
	}, h.ops)
}

func TestRewriteLeavesTrailingStatementsWhenBranchPasses(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.leaf("f()")), NoNode)
	b.block(root, b.leaf("g()"))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> f() }", h.created)
	assert.Len(t, res.Match.Arms, 1)
	assert.False(t, res.Match.HasDefault())
	assert.Empty(t, res.Deleted)
}

func TestRewriteAbsorbsFollowingConditionals(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.ret()), NoNode)
	next := b.cond(b.name("y"), b.block(b.leaf("g()")), NoNode)
	b.block(root, next, b.leaf("k()"))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	// The second branch passes through, so k() must stay after the match.
	assert.Equal(t, "match { x -> return; y -> g() }", h.created)
	assert.Equal(t, []NodeID{next}, res.Deleted)

	b = newBuilder()
	root = b.cond(b.name("x"), b.block(b.ret()), NoNode)
	next = b.cond(b.name("y"), b.block(b.ret()), NoNode)
	k := b.leaf("k()")
	b.block(root, next, k)

	h = newMemHost(b)
	res, err = Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> return; y -> return; else -> k() }", h.created)
	assert.Equal(t, []NodeID{next, k}, res.Deleted)
	assert.Len(t, res.Match.Arms, 2)
}

func TestRewriteHostKeepsFollowingConditional(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.throw(b.leaf("exit(1)"))), NoNode)
	next := b.cond(b.name("y"), b.block(b.ret()), b.block(b.ret()))
	b.block(root, next)

	h := newMemHost(b)
	h.keepLinks = true
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> throw exit(1) }", h.created)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"replace if (x) { throw exit(1) }", "restore 0"}, h.ops)
}

func TestRewriteInitPreventsAbsorption(t *testing.T) {
	b := newBuilder()
	root := b.condInit(b.leaf("v := f()"), b.name("v"), b.block(b.ret()), NoNode)
	b.block(root, b.leaf("g(v)"))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match (v := f()) { v -> return }", h.created)
	assert.Empty(t, res.Deleted)
}

func TestRewriteElseWithInitIsDefault(t *testing.T) {
	b := newBuilder()
	tail := b.condInit(b.leaf("v := f()"), b.name("v"), b.block(b.leaf("g()")), NoNode)
	root := b.cond(b.name("x"), b.block(b.leaf("h()")), tail)
	b.block(root)

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> h(); else -> if (v := f(); v) { g() } }", h.created)
	assert.True(t, res.Match.DefaultFromElse)
}

func TestRewriteKeepSiblings(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.ret()), NoNode)
	b.block(root, b.leaf("g()"))

	h := newMemHost(b)
	h.keepSiblings = true
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> return }", h.created)
	assert.Empty(t, res.Deleted)
}

func TestRewriteSynthesizesLabel(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.brk()),
		b.cond(b.name("y"), b.block(b.leaf("f()"), b.brk()), b.block(b.cont())))
	inner := b.loop("while (c)", b.block(root))
	outer := b.labeled("loop1", b.loop("while (d)", b.block(inner)))
	b.fn(b.block(b.labeled("loop", b.leaf("x()")), outer))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> break@loop2; y -> f(); break@loop2; else -> continue@loop2 }", h.created)
	assert.Equal(t, []NodeID{inner}, res.Labels.Declare)
	assert.Len(t, res.Labels.Jumps, 3)
	assert.Equal(t, "label loop2", h.ops[len(h.ops)-1])
}

func TestRewriteReusesExistingLabel(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.brk()), b.block(b.brk()))
	b.fn(b.block(b.labeled("outer", b.loop("while (c)", b.block(root)))))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> break@outer; else -> break@outer }", h.created)
	assert.Empty(t, res.Labels.Declare)
	for _, op := range h.ops {
		assert.NotContains(t, op, "label")
	}
}

func TestRewriteKeepContinue(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.cont()), b.block(b.brk()))
	b.fn(b.block(b.loop("for", b.block(root))))

	rw := &Rewriter{Host: newMemHost(b), Options: Options{KeepContinue: true}}
	res, err := rw.Rewrite(root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> continue; else -> break@loop }", rw.Host.(*memHost).created)
	assert.Len(t, res.Labels.Jumps, 1)
}

func TestRewriteJumpsInNestedConstructs(t *testing.T) {
	b := newBuilder()
	// break inside a nested switch belongs to that switch;
	// continue inside it still targets the loop.
	sw := b.swtch("when (v)", b.block(b.brk(), b.cont()))
	nested := b.loop("while (d)", b.block(b.brk()))
	root := b.cond(b.name("x"), b.block(sw, nested), NoNode)
	b.fn(b.block(b.loop("while (c)", b.block(root))))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Len(t, res.Labels.Jumps, 1)
	assert.Contains(t, h.created, "when (v) { break; continue@loop }")
	assert.Contains(t, h.created, "while (d) { break }")
}

func TestRewriteBreakTargetsEnclosingSwitch(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.brk()), NoNode)
	clause := b.block(root, b.leaf("f()"))
	sw := b.swtch("when (v)", clause)
	b.fn(b.block(sw))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> break@loop; else -> f() }", h.created)
	assert.Equal(t, []NodeID{sw}, res.Labels.Declare)
}

func TestRewriteLabelsTwoTargets(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.brk()), b.block(b.cont()))
	sw := b.swtch("when (v)", b.block(root))
	lp := b.loop("while (c)", b.block(sw))
	b.fn(b.block(lp))

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> break@loop; else -> continue@loop1 }", h.created)
	assert.Equal(t, []NodeID{sw, lp}, res.Labels.Declare)
	assert.Equal(t, map[NodeID]string{sw: "loop", lp: "loop1"}, res.Labels.Targets)
	assert.Equal(t, []string{"label loop", "label loop1"}, h.ops[len(h.ops)-2:])
}

func TestRewriteSubject(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("f()")),
		b.cond(b.or(b.eq(b.name("x"), b.leaf("2")), b.paren(b.eq(b.name("x"), b.leaf("3")))),
			b.block(b.leaf("g()")), NoNode))
	b.block(root)

	h := newMemHost(b)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match x { 1 -> f(); 2, 3 -> g() }", h.created)
	assert.NotEqual(t, NoNode, res.Match.Subject)
}

func TestRewriteSubjectDuplicateValues(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.eq(b.name("x"), b.leaf("A")), b.block(b.leaf("f()")),
		b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("g()")), NoNode))
	b.block(root)

	h := newMemHost(b)
	h.values = map[string]string{"A": "1"}
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x == A -> f(); x == 1 -> g() }", h.created)
	assert.Equal(t, NoNode, res.Match.Subject)
}

func TestRewriteNoSubject(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *builder) NodeID
		want  string
	}{
		{
			"different names",
			func(b *builder) NodeID {
				return b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("f()")),
					b.cond(b.eq(b.name("y"), b.leaf("2")), b.block(b.leaf("g()")), NoNode))
			},
			"match { x == 1 -> f(); y == 2 -> g() }",
		},
		{
			"duplicate values",
			func(b *builder) NodeID {
				return b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("f()")),
					b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("g()")), NoNode))
			},
			"match { x == 1 -> f(); x == 1 -> g() }",
		},
		{
			"not a comparison",
			func(b *builder) NodeID {
				return b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("f()")),
					b.cond(b.name("ok"), b.block(b.leaf("g()")), NoNode))
			},
			"match { x == 1 -> f(); ok -> g() }",
		},
		{
			"operand is not a name",
			func(b *builder) NodeID {
				return b.cond(b.eq(b.leaf("f()"), b.leaf("1")), b.block(b.leaf("g()")), NoNode)
			},
			"match { f() == 1 -> g() }",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder()
			root := tt.build(b)
			b.block(root)
			h := newMemHost(b)
			_, err := Rewrite(h, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.created)
		})
	}

	b := newBuilder()
	root := b.cond(b.eq(b.name("x"), b.leaf("1")), b.block(b.leaf("f()")), NoNode)
	b.block(root)
	h := newMemHost(b)
	h.noSubject = true
	_, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x == 1 -> f() }", h.created)
}

func TestRewriteCommentSnapshots(t *testing.T) {
	build := func(withElse bool) (*memHost, NodeID) {
		b := newBuilder()
		var els NodeID
		if withElse {
			els = b.block(b.leaf("h()"))
		}
		root := b.cond(b.name("x"), b.block(b.leaf("f()"), b.ret()), els)
		g := b.leaf("g()")
		b.block(root, g)
		h := newMemHost(b)
		r, gr := b.t.Range(root), b.t.Range(g)
		h.comments = []Comment{
			{Range{r.Pos + 1, r.Pos + 2}, "// in root"},
			{Range{gr.Pos, gr.Pos + 1}, "// in sibling"},
		}
		return h, root
	}

	h, root := build(false)
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	require.NotNil(t, h.restored)
	assert.True(t, res.FullComments)
	assert.Len(t, h.restored.Comments, 2)

	h, root = build(true)
	res, err = Rewrite(h, root)
	require.NoError(t, err)
	require.NotNil(t, h.restored)
	assert.False(t, res.FullComments)
	assert.Len(t, h.restored.Comments, 1)
	assert.Equal(t, "// in root", h.restored.Comments[0].Text)
}

func TestRewriteCommentsBeforeAbsorbedLink(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.ret()), NoNode)
	next := b.cond(b.name("y"), b.block(b.ret()), b.block(b.leaf("h()")))
	b.block(root, next)

	h := newMemHost(b)
	nr := b.t.Range(next)
	h.comments = []Comment{{Range{nr.Pos, nr.Pos + 1}, "// positive"}}
	res, err := Rewrite(h, root)
	require.NoError(t, err)
	assert.Equal(t, "match { x -> return; y -> return; else -> h() }", h.created)
	assert.True(t, res.Match.DefaultFromElse)
	assert.True(t, res.FullComments)
	require.NotNil(t, h.restored)
	require.Len(t, h.restored.Comments, 1)
	assert.Equal(t, "// positive", h.restored.Comments[0].Text)
}

func TestRewriteFailureLeavesTreeAlone(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.ret()), NoNode)
	b.fn(b.block(b.loop("for", b.block(root, b.leaf("g()")))))

	h := newMemHost(b)
	h.formatErr = &UnsupportedError{Op: "format", Reason: "test"}
	_, err := Rewrite(h, root)
	var ue *UnsupportedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "unsupported format: test", err.Error())
	assert.Empty(t, h.ops)
}

func TestRewriteLogf(t *testing.T) {
	b := newBuilder()
	root := b.cond(b.name("x"), b.block(b.leaf("f()")), b.block(b.leaf("g()")))
	b.block(root)

	var logged []string
	rw := &Rewriter{Host: newMemHost(b)}
	rw.Logf = func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	_, err := rw.Rewrite(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"match { x -> f(); else -> g() }"}, logged)
}
