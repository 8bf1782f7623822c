// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Ifswitch rewrites if/else-if chains as switch statements.
//
// Usage:
//
//	ifswitch [-diff] [-color=auto|always|never] [-tags=list] [-v] script
//
// Ifswitch applies a script of code addresses to the package in the
// current directory, rewriting the if statements they name.
// For example, to rewrite every if/else chain in the function F:
//
//	ifswitch F
//
// By default, ifswitch writes changes back to the disk.
// The -diff flag causes ifswitch to print a diff of the intended changes instead.
// The diff is colored when standard output is a terminal, or always
// or never as the -color flag says.
// The -tags flag sets the build tags used to load the package;
// GOOS and GOARCH values, cgo, !cgo and race set the corresponding
// environment variables and flags instead.
// The -v flag logs each rewrite as it is planned.
//
// A script is a sequence of addresses, one or more per line.
// Comments are introduced by # and extend to the end of the line.
// Lines may be continued by ending them with a backslash.
//
// # Code addresses
//
// For illustration, consider this program, prog.go:
//
//	package p
//
//	func F(c byte) int {
//		if c == ' ' || c == '\t' {
//			return 1
//		} else if c == '\n' {
//			return 2
//		}
//		return 0
//	}
//
//	type T struct{ n int }
//
//	func (t *T) M() {
//		if t.n < 0 {
//			t.n = 0
//		} else {
//			t.n--
//		}
//	}
//
// A function or method name (F, T.M) addresses every if/else chain
// in its body whose first if statement has an else.
// A file name ending in “.go” addresses every such chain in the file,
// and “.” every such chain in the package, including its test files.
// A chain inside an arm of another chain rewritten in the same run is
// left alone, since its text is copied into the new switch; running
// ifswitch again rewrites it.
//
// A text address, Ident:Range, addresses the first if statement whose
// if keyword lies in the range, even one without an else. Ident names a
// file, function, or method, and Range is a text range within it,
// in the syntax of the Acme and Sam text editors:
// the line range “N,M”, the byte range “#N,M”, or the regular
// expression range “/re1/,/re2/”. For example:
//
//	prog.go:4        # the chain in F
//	F:/if/           # (same)
//	F:/else if/      # (same: an address inside a chain names the whole chain)
//	T.M:/if/         # the chain in T.M
//
// See http://9p.io/sys/doc/sam/sam.html Table II for details on the syntax.
//
// # Rewrites
//
// Each arm of the chain becomes a case. The operands of a || condition
// become the expressions of a case list, and a final else becomes the
// default case. The chain in F above becomes
//
//	switch c {
//	case ' ', '\t':
//		return 1
//	case '\n':
//		return 2
//	default:
//		return 0
//	}
//
// The tagged form is used when every condition compares the same
// variable with ==, the variable's type allows it, and no case value repeats,
// even when spelled differently, as with a named constant and its value.
//
// When no arm can complete normally, the statements following the chain
// run only if no arm was taken, so they move into the default case, as
// the final return did in F. A following if statement without an else
// joins the chain as another case. Statements are not moved when the
// first if has an init statement, when they end a case clause with
// fallthrough, or when they declare a label used by a goto elsewhere.
// Neither statements nor a following if statement are moved when the
// function would then end in a switch that is not terminating, as when
// an arm ends in os.Exit.
//
// Inside a switch, break refers to the switch. An unlabeled break in an
// arm that targeted an enclosing loop is given that loop's label,
// and the loop is labeled first if it has no label.
//
// Comments between the arms, which would otherwise be lost, are kept
// above the case that follows them.
//
// After rewriting, ifswitch formats the changed files and type-checks
// the package again. If the rewritten package does not type-check,
// nothing is written.
package main
