// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filer

import "fmt"

// ErrINVAL reports an invalid argument to a Filer method.
type ErrINVAL struct {
	Msg string
	Arg interface{}
}

func (e *ErrINVAL) Error() string { return fmt.Sprintf("%s: %v", e.Msg, e.Arg) }

// ErrPERM reports an unbalanced BeginUpdate/EndUpdate/Rollback or a Close
// attempted while updates are still nested.
type ErrPERM struct{ Msg string }

func (e *ErrPERM) Error() string { return e.Msg }
