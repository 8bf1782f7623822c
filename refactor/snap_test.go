// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestPackageErrors(t *testing.T) {
	s := &Snapshot{r: &Refactor{dir: "/work/m"}}

	errs := s.packageErrors([]packages.Error{
		{Pos: "/tmp/gocommand-123/x.go:14:1", Msg: "missing return"},
		{Pos: "/work/m/x.go:14:1", Msg: "missing return"},
		{Pos: "-", Msg: "no files"},
	})
	if len(errs) != 2 {
		t.Fatalf("packageErrors = %v, want 2 errors", errs)
	}
	if have, want := errs[0].Error(), "x.go:14:1: missing return"; have != want {
		t.Errorf("errs[0] = %q, want %q", have, want)
	}
	if have, want := errs[1].Error(), "no files"; have != want {
		t.Errorf("errs[1] = %q, want %q", have, want)
	}

	// With nothing else reported, errors against copies are kept.
	errs = s.packageErrors([]packages.Error{
		{Pos: "/tmp/gocommand-123/x.go:3:2", Msg: "syntax error"},
	})
	if len(errs) != 1 || errs[0].Pos.Filename != "/tmp/gocommand-123/x.go" {
		t.Errorf("packageErrors = %v, want the copy's error", errs)
	}
}
