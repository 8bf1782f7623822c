// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refactor loads Go packages for source rewriting
// and tracks the edits made to their files.
package refactor

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/xerrors"
)

// A Refactor holds the state for an active refactoring.
type Refactor struct {
	Stdout   io.Writer
	Stderr   io.Writer
	ShowDiff bool

	// Config selects the build configuration used to load packages.
	Config Config

	dir      string
	modRoot  string
	goBinary string
}

// New returns a new refactoring,
// editing the package in the given directory (usually ".").
func New(dir string) (*Refactor, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	dir = filepath.Clean(dir)

	modRoot, err := findModule(dir)
	if err != nil {
		return nil, err
	}

	r := &Refactor{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		dir:      dir,
		modRoot:  modRoot,
		goBinary: "go",
	}
	return r, nil
}

// findModule returns the root directory of the module containing dir.
func findModule(dir string) (root string, err error) {
	for d := dir; ; {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			path := modfile.ModulePath(data)
			if path == "" {
				return "", xerrors.Errorf("loading module: %s has no module statement", filepath.Join(d, "go.mod"))
			}
			return d, nil
		}
		if !os.IsNotExist(err) {
			return "", xerrors.Errorf("loading module: %w", err)
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", xerrors.Errorf("no module found for %s", dir)
		}
		d = parent
	}
}

// shortPath returns an absolute or relative name for path, whatever is shorter.
func (r *Refactor) shortPath(path string) string {
	if rel, err := filepath.Rel(r.dir, path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}

// absPath returns the absolute form of a short path.
func (r *Refactor) absPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.dir, name)
}

func cut(s, sep string) (before, after string, ok bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

func cutLast(s, sep string) (before, after string, ok bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
