// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

func (s *Snapshot) Position(pos token.Pos) token.Position {
	return s.fset.Position(pos)
}

// shortPosition is like Position but with the short file name.
func (s *Snapshot) shortPosition(pos token.Pos) token.Position {
	p := s.fset.Position(pos)
	p.Filename = s.r.shortPath(p.Filename)
	return p
}

// Addr returns pos formatted as file:line:col with the short file name.
func (s *Snapshot) Addr(pos token.Pos) string {
	return s.shortPosition(pos).String()
}

// Text returns the original text of the range [lo, hi).
func (s *Snapshot) Text(lo, hi token.Pos) []byte {
	plo := s.Position(lo)
	phi := s.Position(hi)
	f := s.files[s.r.shortPath(plo.Filename)]
	if f == nil {
		panic("file not found")
	}
	return f.Text[plo.Offset:phi.Offset]
}

// SyntaxAt returns the path of nodes enclosing pos,
// innermost first and ending with the *ast.File.
func (s *Snapshot) SyntaxAt(pos token.Pos) []ast.Node {
	_, file := s.FileAt(pos)
	if file == nil {
		return nil
	}
	path, _ := astutil.PathEnclosingInterval(file.Syntax, pos, pos)
	return path
}

// FileByName returns the target file with the given name.
func (s *Snapshot) FileByName(name string) (*Package, *File) {
	name = s.r.shortPath(s.r.absPath(name))
	for _, p := range s.packages {
		for _, file := range p.Files {
			if file.Name == name {
				return p, file
			}
		}
	}
	return nil, nil
}

// FileRange returns the range of the whole file containing pos.
func (s *Snapshot) FileRange(pos token.Pos) (start, end token.Pos) {
	tf := s.fset.File(pos)
	start = token.Pos(tf.Base())
	return start, start + token.Pos(tf.Size())
}

// FileAt returns the package and file containing pos.
func (s *Snapshot) FileAt(pos token.Pos) (*Package, *File) {
	for _, p := range s.packages {
		for _, file := range p.Files {
			tf := s.fset.File(file.Syntax.Package)
			if tf.Base() <= int(pos) && int(pos) <= tf.Base()+tf.Size() {
				return p, file
			}
		}
	}
	return nil, nil
}

// ForEachTargetFile calls f for each file of the target package and
// its external tests, visiting each file name once.
func (s *Snapshot) ForEachTargetFile(f func(pkg *Package, file *File)) {
	seen := make(map[string]bool)
	for _, p := range s.packages {
		for _, file := range p.Files {
			if seen[file.Name] {
				continue
			}
			seen[file.Name] = true
			f(p, file)
		}
	}
}
