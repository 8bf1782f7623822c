// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/xerrors"
	"rsc.io/ifswitch/diff"
	"rsc.io/ifswitch/edit"
)

// An Edit is the pending new content of one file.
type Edit struct {
	Name    string
	OldText []byte
	Buffer  *Buffer
}

// A Buffer is a queue of edits to apply to a file text.
// It's like edit.Buffer but uses token.Pos as coordinate space.
type Buffer struct {
	pos token.Pos
	end token.Pos
	ed  *edit.Buffer
}

func NewBufferAt(pos token.Pos, text []byte) *Buffer {
	return &Buffer{pos: pos, end: pos + token.Pos(len(text)), ed: edit.NewBuffer(text)}
}

func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

func (b *Buffer) String() string {
	return b.ed.String()
}

func (b *Buffer) check(pos, end token.Pos) {
	if pos < b.pos || end > b.end || end < pos {
		panic(fmt.Sprintf("edit [%d,%d) outside buffer [%d,%d)", pos, end, b.pos, b.end))
	}
}

func (b *Buffer) Delete(pos, end token.Pos) {
	b.check(pos, end)
	b.ed.Delete(int(pos-b.pos), int(end-b.pos))
}

func (b *Buffer) Insert(pos token.Pos, new string) {
	b.check(pos, pos)
	b.ed.Insert(int(pos-b.pos), new)
}

func (b *Buffer) Replace(pos, end token.Pos, new string) {
	b.check(pos, end)
	b.ed.Replace(int(pos-b.pos), int(end-b.pos), new)
}

func (s *Snapshot) editAt(pos token.Pos) *Edit {
	posn := s.fset.Position(pos)
	name := s.r.shortPath(posn.Filename)
	ed := s.edits[name]
	if ed != nil {
		return ed
	}
	f := s.files[name]
	if f == nil {
		panic("file not found: " + name)
	}
	b := NewBufferAt(pos-token.Pos(posn.Offset), f.Text)
	ed = &Edit{Name: name, OldText: f.Text, Buffer: b}
	s.edits[name] = ed
	return ed
}

// BufferAt returns the edit buffer for the file containing pos.
func (s *Snapshot) BufferAt(pos token.Pos) *Buffer {
	return s.editAt(pos).Buffer
}

// editedNames returns the names of edited files,
// sorted by directory and then by name.
func (s *Snapshot) editedNames() []string {
	var names []string
	for name := range s.edits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := filepath.Dir(names[i]), filepath.Dir(names[j])
		if di != dj {
			return di < dj
		}
		return names[i] < names[j]
	})
	return names
}

// Diff returns a unified diff of all edited files,
// with names relative to the module root.
func (s *Snapshot) Diff() ([]byte, error) {
	var diffs []byte
	for _, name := range s.editedNames() {
		ed := s.edits[name]
		new := ed.Buffer.Bytes()
		if bytes.Equal(ed.OldText, new) {
			continue
		}
		rel, err := filepath.Rel(s.r.modRoot, s.r.absPath(name))
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		d, err := diff.Diff("old/"+rel, ed.OldText, "new/"+rel, new)
		if err != nil {
			return nil, xerrors.Errorf("diff %s: %w", name, err)
		}
		diffs = append(diffs, d...)
	}
	return diffs, nil
}

// Write writes every edited file back to disk.
func (s *Snapshot) Write() error {
	failed := false
	for _, name := range s.editedNames() {
		ed := s.edits[name]
		new := ed.Buffer.Bytes()
		if bytes.Equal(ed.OldText, new) {
			continue
		}
		if err := os.WriteFile(s.r.absPath(name), new, 0666); err != nil {
			fmt.Fprintf(s.r.Stderr, "%s\n", err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("errors writing files")
	}
	return nil
}

// Modified returns the short names of the files with changed content.
func (s *Snapshot) Modified() []string {
	var names []string
	for _, name := range s.editedNames() {
		ed := s.edits[name]
		if !bytes.Equal(ed.OldText, ed.Buffer.Bytes()) {
			names = append(names, name)
		}
	}
	return names
}

// Gofmt formats every edited file. A file that no longer parses is
// left as is and reported as an error.
func (s *Snapshot) Gofmt() {
	for _, name := range s.editedNames() {
		ed := s.edits[name]
		out, err := format.Source(ed.Buffer.Bytes())
		if err != nil {
			s.Errors.Add(&Error{Pos: token.Position{Filename: name}, Msg: "formatting rewritten file: " + err.Error()})
			continue
		}
		ed.Buffer = NewBufferAt(^token.Pos(0), out)
	}
}
