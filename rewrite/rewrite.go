// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import "errors"

// Options adjust a Rewriter to the target language.
type Options struct {
	// KeepContinue leaves unlabeled continue statements alone.
	// Set it when the match construct does not capture continue.
	KeepContinue bool

	// Logf, if non-nil, receives the planned match before it is printed.
	Logf func(format string, args ...any)
}

// A Rewriter turns conditional chains in a Host's tree into matches.
type Rewriter struct {
	Host Host
	Options
}

// A Result describes a completed rewrite.
type Result struct {
	Node         NodeID   // the inserted match
	Match        *Match   // the plan that was printed
	Labels       *Labels  // labels given to jumps
	Deleted      []NodeID // trailing statements absorbed into the match
	FullComments bool     // whether the full-range snapshot was restored
}

// Rewrite rewrites root using h with default options.
func Rewrite(h Host, root NodeID) (*Result, error) {
	rw := &Rewriter{Host: h}
	return rw.Rewrite(root)
}

// Rewrite replaces the conditional chain starting at root with a match.
//
// All fallible work happens first: planning the arms, creating the
// default block, assigning labels, printing and parsing the result.
// Only then does Rewrite replace root, restore comments, delete the
// absorbed statements and declare new labels, in that order.
func (rw *Rewriter) Rewrite(root NodeID) (*Result, error) {
	h := rw.Host
	t := h.Tree()
	if !Applicable(t, root) {
		return nil, ErrUnsupportedShape
	}

	narrow := h.AttachedComments(t.Range(root))
	full := t.Range(root)
	if rest := t.Following(root); len(rest) > 0 {
		full.End = t.Node(rest[len(rest)-1]).End
	}
	wide := h.AttachedComments(full)

	m, absorbed, err := rw.plan(root)
	if err != nil {
		return nil, err
	}

	lb := &labeler{h: h, t: t, keepContinue: rw.KeepContinue, labels: newLabels()}
	for _, arm := range m.Arms {
		lb.visit(arm.Body, false)
	}
	lb.visit(m.Default, false)

	introduceSubject(h, m)

	if rw.Logf != nil {
		rw.Logf("%s", Format(t, m, lb.labels))
	}
	text, err := h.Format(m, lb.labels)
	if err != nil {
		return nil, err
	}
	node, err := h.CreateExpression(text)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Match:        m,
		Labels:       lb.labels,
		Deleted:      absorbed,
		FullComments: !m.DefaultFromElse || len(absorbed) > 0,
	}
	res.Node = h.Replace(root, node)
	if res.FullComments {
		h.Restore(wide, res.Node)
	} else {
		h.Restore(narrow, res.Node)
	}
	for _, id := range absorbed {
		h.Delete(id)
	}
	for _, loop := range lb.labels.Declare {
		h.LabelLoop(loop, lb.labels.Targets[loop])
	}
	return res, nil
}

// plan walks the chain starting at root and builds its arms.
// It returns the statements that follow root and were absorbed.
func (rw *Rewriter) plan(root NodeID) (*Match, []NodeID, error) {
	t := rw.Host.Tree()
	m := &Match{
		Init:    t.Node(root).Init,
		Subject: NoNode,
		Default: NoNode,
	}
	var absorbed []NodeID
	base, cur := root, root
	passes := false
	for {
		n := *t.Node(cur)
		m.Arms = append(m.Arms, Arm{Conds: Disjuncts(t, n.Cond), Body: n.Then, Pos: n.Pos})
		passes = passes || CanPassThrough(t, n.Then)

		if n.Else == NoNode {
			// Statements after the chain run only when no arm exits,
			// so they can move into a default arm when every arm so far exits.
			if passes || m.Init != NoNode {
				break
			}
			rest := t.Following(base)
			if len(rest) == 0 {
				break
			}
			next := rest[0]
			if t.Kind(next) == Conditional && t.Node(next).Then == NoNode {
				break
			}
			if isLink(t, next) {
				err := rw.Host.AbsorbLink(next)
				if errors.Is(err, ErrKeepSiblings) {
					break
				}
				if err != nil {
					return nil, nil, err
				}
				absorbed = append(absorbed, next)
				base, cur = next, next
				continue
			}
			block, err := rw.Host.CreateBlock(rest)
			if errors.Is(err, ErrKeepSiblings) {
				break
			}
			if err != nil {
				return nil, nil, err
			}
			m.Default = block
			m.DefaultPos = t.Node(next).Pos
			absorbed = append(absorbed, rest...)
			break
		}

		if isLink(t, n.Else) {
			cur = n.Else
			continue
		}
		m.Default = n.Else
		m.DefaultPos = t.Node(n.Else).Pos
		m.DefaultFromElse = true
		break
	}
	return m, absorbed, nil
}
