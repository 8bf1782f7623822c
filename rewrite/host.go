// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import "strconv"

// An Editor mutates the host syntax.
// CreateExpression and CreateBlock may fail; the others are called
// only after every fallible step has succeeded.
type Editor interface {
	// CreateExpression parses text as a replacement and returns its node.
	CreateExpression(text string) (NodeID, error)

	// CreateBlock returns a detached block holding the source text of
	// the contiguous statements stmts. Jumps inside it must resolve to the
	// same targets as the originals. It may return ErrKeepSiblings.
	CreateBlock(stmts []NodeID) (NodeID, error)

	// AbsorbLink is asked before the conditional link, the statement
	// after the chain so far, joins the chain as further arms.
	// It may return ErrKeepSiblings.
	AbsorbLink(link NodeID) error

	// Replace substitutes new for old and returns the inserted node.
	Replace(old, new NodeID) NodeID

	// Delete removes id from its parent.
	Delete(id NodeID)

	// LabelLoop declares label on the statement loop.
	LabelLoop(loop NodeID, label string)
}

// A Commenter captures and restores comments.
type Commenter interface {
	AttachedComments(r Range) CommentSnapshot
	Restore(s CommentSnapshot, target NodeID)
}

// A Scoper answers questions about jump targets and labels.
type Scoper interface {
	FindEnclosingLoop(jump NodeID) NodeID
	UsedLabels(loop NodeID) map[string]bool
	UniqueLabelName(used map[string]bool) string
}

// A Printer renders a planned Match in the host language.
type Printer interface {
	Format(m *Match, labels *Labels) (string, error)

	// Subject reports whether x may be the scrutinee of a match.
	Subject(x NodeID) bool

	// CaseKey returns the value of the case expression x, used to reject
	// duplicate cases. Equal values must give equal keys.
	CaseKey(x NodeID) string
}

// A Host is everything the engine needs from a syntax tree model.
type Host interface {
	Tree() *Tree
	Editor
	Commenter
	Scoper
	Printer
}

// A Comment is a single comment in host coordinates.
type Comment struct {
	Range
	Text string
}

// A CommentSnapshot is the ordered list of comments found in a range.
type CommentSnapshot struct {
	Range    Range
	Comments []Comment
}

// UniqueLabelName returns the first of "loop", "loop1", "loop2", ...
// that is not in used.
func UniqueLabelName(used map[string]bool) string {
	name := "loop"
	for i := 1; used[name]; i++ {
		name = "loop" + strconv.Itoa(i)
	}
	return name
}
