// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is returned by Rewrite when the root is not a
// conditional with a then branch. Callers should check Applicable first.
var ErrUnsupportedShape = errors.New("rewrite: not a conditional with a then branch")

// ErrKeepSiblings may be returned by Editor.CreateBlock or Editor.AbsorbLink
// to refuse moving the trailing statements into the match. The rewrite then
// ends the match there and leaves the statements where they are.
var ErrKeepSiblings = errors.New("rewrite: trailing statements must stay in place")

// An UnsupportedError reports a construct the host cannot express.
// The rewrite stops before any mutation.
type UnsupportedError struct {
	Op     string // operation that failed, such as "replace"
	Pos    int    // host position of the offending node
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Op, e.Reason)
}
