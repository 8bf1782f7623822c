// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
	"golang.org/x/xerrors"
)

// A Snapshot is the target package, its parsed and type-checked
// source files, and a set of pending edits to those files.
type Snapshot struct {
	r        *Refactor
	fset     *token.FileSet
	target   *Package
	packages []*Package

	// files holds the text of every loaded file before any edits,
	// keyed by short path (File.Name).
	mu    sync.Mutex
	files map[string]*File

	// edits holds the edits made to files, keyed by short path.
	edits map[string]*Edit

	Errors *ErrorList
}

// A Package is one loaded variant of a package.
type Package struct {
	Name    string
	Dir     string
	ID      string
	PkgPath string
	Files   []*File // sorted by File.Name

	Types     *types.Package
	TypesInfo *types.Info
}

func (p *Package) String() string { return p.PkgPath }

// A File is a source file in both its text and parsed forms.
type File struct {
	Name   string // short path (relative to the Refactor dir, or absolute)
	Text   []byte
	Syntax *ast.File
}

func (s *Snapshot) ErrorAt(pos token.Pos, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	msg = strings.TrimRight(msg, "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n\t")
	if pos == token.NoPos {
		s.Errors.Add(&Error{Msg: msg})
	} else {
		s.Errors.Add(&Error{Pos: s.shortPosition(pos), Msg: msg})
	}
}

// Load loads and type-checks the package in the Refactor's directory.
func (r *Refactor) Load() (*Snapshot, error) {
	return r.load(nil)
}

// load loads the target package, substituting overlay contents
// (keyed by absolute path) for the files on disk.
func (r *Refactor) load(overlay map[string][]byte) (*Snapshot, error) {
	s := &Snapshot{
		r:      r,
		fset:   token.NewFileSet(),
		files:  make(map[string]*File),
		edits:  make(map[string]*Edit),
		Errors: new(ErrorList),
	}

	flags, envs, err := r.Config.flagsEnvs(r.goBinary)
	if err != nil {
		return nil, err
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:        r.dir,
		Env:        append(os.Environ(), envs...),
		BuildFlags: flags,
		Tests:      true,
		Fset:       s.fset,
		ParseFile:  s.parseFile,
		Overlay:    overlay,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, xerrors.Errorf("loading packages: %w", err)
	}

	var xtest *Package
	for _, p := range pkgs {
		if strings.HasSuffix(p.ID, ".test") {
			// Test main - we don't care.
			continue
		}
		for _, e := range s.packageErrors(p.Errors) {
			s.Errors.Add(e)
		}
		rp := s.newPackage(p)
		switch {
		case strings.HasSuffix(p.PkgPath, "_test"):
			xtest = rp
		case s.target == nil || len(rp.Files) > len(s.target.Files):
			// Prefer the variant compiled with in-package tests.
			s.target = rp
		}
	}
	if s.target == nil {
		return nil, xerrors.Errorf("no Go package in %s", r.dir)
	}
	s.packages = append(s.packages, s.target)
	if xtest != nil {
		s.packages = append(s.packages, xtest)
	}
	return s, nil
}

func (s *Snapshot) newPackage(p *packages.Package) *Package {
	rp := &Package{
		Name:      p.Name,
		ID:        p.ID,
		PkgPath:   p.PkgPath,
		Types:     p.Types,
		TypesInfo: p.TypesInfo,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, syntax := range p.Syntax {
		name := s.r.shortPath(s.fset.File(syntax.Package).Name())
		f := s.files[name]
		if f == nil {
			continue
		}
		if f.Syntax != syntax {
			// Parsed again for another variant.
			f = &File{Name: name, Text: f.Text, Syntax: syntax}
		}
		rp.Files = append(rp.Files, f)
	}
	if len(p.GoFiles) > 0 {
		rp.Dir = dirOf(p.GoFiles[0])
	}
	sort.Slice(rp.Files, func(i, j int) bool {
		return rp.Files[i].Name < rp.Files[j].Name
	})
	return rp
}

// parseFile is the packages.Config.ParseFile hook.
// It records the text of each file alongside its syntax.
func (s *Snapshot) parseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	const mode = parser.AllErrors | parser.ParseComments
	syntax, err := parser.ParseFile(fset, filename, src, mode)
	if syntax == nil {
		return nil, err
	}
	name := s.r.shortPath(filename)
	s.mu.Lock()
	if s.files[name] == nil {
		s.files[name] = &File{Name: name, Text: src, Syntax: syntax}
	}
	s.mu.Unlock()
	return syntax, err
}

// packageErrors converts the errors of one loaded package.
// The go command reports errors against its temporary copies of
// overlaid files, repeating the type checker's errors for the real
// files. Those are kept only when nothing else is reported.
func (s *Snapshot) packageErrors(list []packages.Error) []*Error {
	var errs, copies []*Error
	for _, e := range list {
		err := s.packageError(e)
		if filepath.IsAbs(err.Pos.Filename) && !strings.HasPrefix(err.Pos.Filename, s.r.dir+string(filepath.Separator)) {
			copies = append(copies, err)
			continue
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return copies
	}
	return errs
}

// packageError converts a go/packages error, shortening its file name.
func (s *Snapshot) packageError(e packages.Error) *Error {
	if e.Pos == "" || e.Pos == "-" {
		return &Error{Msg: e.Msg}
	}
	var pos token.Position
	file, rest, _ := cut(e.Pos, ":")
	pos.Filename = s.r.shortPath(file)
	line, col, _ := cut(rest, ":")
	pos.Line, _ = strconv.Atoi(line)
	pos.Column, _ = strconv.Atoi(col)
	return &Error{Pos: pos, Msg: e.Msg}
}

// Check reloads the packages with the edited file contents
// and returns any errors found while type-checking them.
func (s *Snapshot) Check() error {
	overlay := make(map[string][]byte)
	for name, ed := range s.edits {
		overlay[s.r.absPath(name)] = ed.Buffer.Bytes()
	}
	if len(overlay) == 0 {
		return nil
	}
	check, err := s.r.load(overlay)
	if err != nil {
		return err
	}
	return check.Errors.Err()
}

func dirOf(file string) string {
	dir, _, ok := cutLast(file, string(os.PathSeparator))
	if !ok {
		return "."
	}
	return dir
}
