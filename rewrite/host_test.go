// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import "fmt"

// builder constructs trees in source order, giving each leaf the next
// position so that ranges nest the way real source does.
type builder struct {
	t   *Tree
	pos int
}

func newBuilder() *builder {
	return &builder{t: NewTree()}
}

func (b *builder) next() (int, int) {
	b.pos += 10
	return b.pos, b.pos + 5
}

func (b *builder) add(n Node, kids ...NodeID) NodeID {
	first, last := -1, -1
	for _, k := range kids {
		if k == NoNode {
			continue
		}
		r := b.t.Range(k)
		if first < 0 || r.Pos < first {
			first = r.Pos
		}
		if r.End > last {
			last = r.End
		}
	}
	if first < 0 {
		first, last = b.next()
	}
	n.Pos, n.End = first, last
	return b.t.Add(n)
}

func (b *builder) leaf(text string) NodeID {
	pos, end := b.next()
	return b.t.NewLeaf(text, pos, end)
}

func (b *builder) name(text string) NodeID {
	pos, end := b.next()
	return b.t.Add(Node{Kind: Name, Text: text, Pos: pos, End: end})
}

func (b *builder) bin(x NodeID, op string, y NodeID) NodeID {
	return b.add(Node{Kind: Binary, X: x, Op: op, Y: y}, x, y)
}

func (b *builder) or(x, y NodeID) NodeID { return b.bin(x, OrOp, y) }

func (b *builder) eq(x, y NodeID) NodeID { return b.bin(x, EqOp, y) }

func (b *builder) paren(x NodeID) NodeID {
	return b.add(Node{Kind: Paren, X: x}, x)
}

func (b *builder) block(list ...NodeID) NodeID {
	return b.add(Node{Kind: Block, List: list}, list...)
}

func (b *builder) cond(c, then, els NodeID) NodeID {
	return b.add(Node{Kind: Conditional, Cond: c, Then: then, Else: els}, c, then, els)
}

func (b *builder) condInit(init, c, then, els NodeID) NodeID {
	return b.add(Node{Kind: Conditional, Init: init, Cond: c, Then: then, Else: els}, init, c, then, els)
}

func (b *builder) jump(kind Kind, label string) NodeID {
	pos, end := b.next()
	return b.t.Add(Node{Kind: kind, Label: label, Pos: pos, End: end})
}

func (b *builder) brk() NodeID  { return b.jump(Break, "") }
func (b *builder) cont() NodeID { return b.jump(Continue, "") }
func (b *builder) ret() NodeID  { return b.jump(Return, "") }

func (b *builder) throw(x NodeID) NodeID {
	return b.add(Node{Kind: Throw, X: x}, x)
}

func (b *builder) loop(text string, body NodeID) NodeID {
	return b.add(Node{Kind: Loop, Text: text, List: []NodeID{body}}, body)
}

func (b *builder) swtch(text string, clauses ...NodeID) NodeID {
	return b.add(Node{Kind: Switch, Text: text, List: clauses}, clauses...)
}

func (b *builder) labeled(label string, x NodeID) NodeID {
	return b.add(Node{Kind: Labeled, Label: label, X: x}, x)
}

func (b *builder) fn(body NodeID) NodeID {
	return b.add(Node{Kind: Func, Text: "fun", List: []NodeID{body}}, body)
}

// memHost is a Host over a bare Tree that records what the engine asks of it.
type memHost struct {
	t        *Tree
	ops      []string
	comments []Comment
	restored *CommentSnapshot
	created  string

	keepSiblings bool
	keepLinks    bool
	formatErr    error
	noSubject    bool
	values       map[string]string // case text -> value, when they differ
}

func newMemHost(b *builder) *memHost {
	return &memHost{t: b.t}
}

func (h *memHost) Tree() *Tree { return h.t }

func (h *memHost) Format(m *Match, l *Labels) (string, error) {
	if h.formatErr != nil {
		return "", h.formatErr
	}
	return Format(h.t, m, l), nil
}

func (h *memHost) Subject(x NodeID) bool { return !h.noSubject }

func (h *memHost) CaseKey(x NodeID) string {
	text := h.t.Node(x).Text
	if v, ok := h.values[text]; ok {
		return v
	}
	return text
}

func (h *memHost) CreateExpression(text string) (NodeID, error) {
	h.created = text
	return h.t.NewLeaf(text, 0, 0), nil
}

func (h *memHost) CreateBlock(stmts []NodeID) (NodeID, error) {
	if h.keepSiblings {
		return NoNode, ErrKeepSiblings
	}
	first, last := h.t.Range(stmts[0]), h.t.Range(stmts[len(stmts)-1])
	return h.t.Add(Node{Kind: Block, List: stmts, Pos: first.Pos, End: last.End}), nil
}

func (h *memHost) AbsorbLink(link NodeID) error {
	if h.keepLinks {
		return ErrKeepSiblings
	}
	return nil
}

func (h *memHost) Replace(old, new NodeID) NodeID {
	h.ops = append(h.ops, "replace "+Sprint(h.t, old, nil))
	return new
}

func (h *memHost) Delete(id NodeID) {
	h.ops = append(h.ops, "delete "+Sprint(h.t, id, nil))
}

func (h *memHost) LabelLoop(loop NodeID, label string) {
	h.ops = append(h.ops, "label "+label)
}

func (h *memHost) AttachedComments(r Range) CommentSnapshot {
	s := CommentSnapshot{Range: r}
	for _, c := range h.comments {
		if r.Covers(c.Range) {
			s.Comments = append(s.Comments, c)
		}
	}
	return s
}

func (h *memHost) Restore(s CommentSnapshot, target NodeID) {
	h.restored = &s
	h.ops = append(h.ops, fmt.Sprintf("restore %d", len(s.Comments)))
}

func (h *memHost) FindEnclosingLoop(jump NodeID) NodeID { return h.t.EnclosingLoop(jump) }

func (h *memHost) UsedLabels(loop NodeID) map[string]bool { return h.t.Labels(loop) }

func (h *memHost) UniqueLabelName(used map[string]bool) string { return UniqueLabelName(used) }
