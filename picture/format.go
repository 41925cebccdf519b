// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package picture

import (
	"fmt"
	"strconv"
	"strings"
)

// terminators are the bytes that force a phrase/fault into its
// "(phrase \"...\")"/"(fault \"...\")" display fallback (spec.md §4.6).
const terminators = " ()[]{}#,;"

// formatInt renders an integer scalar: decimal, platform width.
func formatInt(n int64) string { return strconv.FormatInt(n, 10) }

// formatReal renders a real scalar per spec.md §4.6: a user-settable
// printf-style format (default %g), a trailing "." appended if neither
// "." nor "e" appears so the result always scans as a real, and the
// spurious leading "-" some libc %g implementations emit for -0.0
// stripped when the value is exactly 0. Preserved as an Open Question
// decision (SPEC_FULL.md / spec.md §9): the strip applies only when the
// formatted text begins with "-" and the input float64 is exactly 0,
// regardless of what an unusual user format string produces otherwise.
func formatReal(x float64, format string) string {
	if format == "" {
		format = "%g"
	}
	s := fmt.Sprintf(format, x)
	if x == 0 && strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if !strings.ContainsAny(s, ".eE") {
		s += "."
	}
	return s
}

// formatBool renders a boolean scalar as l/o (spec.md §4.6).
func formatBool(b bool) byte {
	if b {
		return 'l'
	}
	return 'o'
}

// formatChar renders a single character. In decor mode, control
// characters below space are escaped as "(char N)"; in no-decor mode
// they render as a blank.
func formatChar(c byte, decor bool) string {
	if c >= ' ' {
		return string(c)
	}
	if decor {
		return fmt.Sprintf("(char %d)", c)
	}
	return " "
}

// quoteString renders s in display-mode '...' form with internal quotes
// doubled.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.WriteString("''")
		} else {
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// needsAtomFallback reports whether a phrase/fault's text must be
// rendered via the "(phrase \"...\")"/"(fault \"...\")" fallback instead
// of bare, per spec.md §4.6: it contains a terminator byte or would
// overflow the per-line budget.
func needsAtomFallback(text string, lineWidth int) bool {
	return strings.ContainsAny(text, terminators) || len(text) > lineWidth
}

func formatPhrase(text string, lineWidth int) string {
	if needsAtomFallback(text, lineWidth) {
		return fmt.Sprintf("(phrase %q)", text)
	}
	return text
}

func formatFault(text string, lineWidth int) string {
	if needsAtomFallback(text, lineWidth) {
		return fmt.Sprintf("(fault %q)", text)
	}
	return "?" + text
}

// splitAndLink joins already-rendered chunks with the "link" operator.
// It does not split or quote them; Display uses it to join the rows of
// a multi-row picture.
func splitAndLink(chunks []string) string {
	return strings.Join(chunks, " link ")
}
