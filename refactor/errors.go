// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"fmt"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

// An Error is an error at a particular source position. It may have attached
// errors at other positions (but those must not have secondary errors).
type Error struct {
	Pos token.Position
	Msg string

	Secondary []*Error
}

func (e *Error) Error() string {
	if e.Pos.IsValid() || e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

type errorKey struct {
	pos token.Position
	msg string
}

// ErrorList is a set of Errors. It is also an error itself. The zero value is
// an empty list, ready to use.
type ErrorList struct {
	errs []*Error
	set  map[errorKey]bool
}

// Add adds an error to l. Positioned errors (Error, scanner.Error,
// types.Error) keep their position, lists are merged, and anything else,
// including wrapped errors, is added without a position.
// Duplicates (same position and message) are dropped.
func (l *ErrorList) Add(err error) {
	var e *Error

	switch err := err.(type) {
	case nil:
		return

	case *ErrorList:
		for _, e := range err.errs {
			l.Add(e)
		}
		return

	case scanner.ErrorList:
		for _, e := range err {
			l.Add(e)
		}
		return

	case *Error:
		e = err

	case *scanner.Error:
		e = &Error{Pos: err.Pos, Msg: err.Msg}

	case types.Error:
		e = &Error{Pos: err.Fset.Position(err.Pos), Msg: err.Msg}
		if len(l.errs) > 0 && strings.HasPrefix(err.Msg, "\t") {
			// This is a secondary error. Attach it to the primary error.
			last := l.errs[len(l.errs)-1]
			last.Secondary = append(last.Secondary, e)
			return
		}

	default:
		var pe *Error
		if xerrors.As(err, &pe) {
			e = &Error{Pos: pe.Pos, Msg: err.Error()}
			break
		}
		e = &Error{Msg: err.Error()}
	}

	k := errorKey{e.Pos, e.Msg}
	if !l.set[k] {
		if l.set == nil {
			l.set = make(map[errorKey]bool)
		}
		l.errs = append(l.errs, e)
		l.set[k] = true
	}
}

// Len returns the number of errors in l.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Error sorts the list and returns a "\n" separated list of formatted
// errors. The result does not end in "\n"; the caller adds that.
func (l *ErrorList) Error() string {
	if len(l.errs) == 0 {
		return "no errors"
	}

	sort.SliceStable(l.errs, func(i, j int) bool {
		p1, p2 := l.errs[i].Pos, l.errs[j].Pos
		if p1.Filename != p2.Filename {
			return p1.Filename < p2.Filename
		}
		if p1.Line != p2.Line {
			return p1.Line < p2.Line
		}
		return p1.Column < p2.Column
	})

	// A message repeated in many places is probably one problem the
	// rewrite amplified. Print it once with a count.
	count := make(map[string]int)
	for _, e := range l.errs {
		count[e.Msg]++
	}

	buf := new(strings.Builder)
	for _, e := range l.errs {
		msg := e.Msg
		switch {
		case count[msg] > 3:
			n := count[msg]
			count[msg] = -1
			msg += fmt.Sprintf(" [× %d]", n)
		case count[msg] < 0:
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		(&Error{Pos: e.Pos, Msg: msg}).format(buf)
		for _, e2 := range e.Secondary {
			buf.WriteByte('\n')
			e2.format(buf)
		}
	}
	return buf.String()
}

func (e *Error) format(buf *strings.Builder) {
	buf.WriteString(e.Error())
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (l *ErrorList) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}
