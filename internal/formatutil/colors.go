// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package formatutil manipulates string colors and other formatting operations.
package formatutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Style is an ANSI escape format with a single %s verb
type Style string

const (
	Bold    Style = "\033[1m%s\033[0m"
	Faint   Style = "\033[2m%s\033[0m"
	Red     Style = "\033[1;31m%s\033[0m"
	Green   Style = "\033[1;32m%s\033[0m"
	Yellow  Style = "\033[1;33m%s\033[0m"
	Magenta Style = "\033[1;35m%s\033[0m"
	Cyan    Style = "\033[1;36m%s\033[0m"
)

// Painter applies styles to strings. A disabled painter returns its arguments unchanged.
type Painter struct {
	enabled bool
}

// NewPainter returns a painter that only colors its output when w is a terminal
func NewPainter(w io.Writer) Painter {
	if f, ok := w.(*os.File); ok {
		return Painter{enabled: term.IsTerminal(int(f.Fd()))}
	}
	return Painter{}
}

// Plain returns a painter that never colors its output
func Plain() Painter {
	return Painter{}
}

// Enabled returns true when the painter emits escape sequences
func (p Painter) Enabled() bool {
	return p.enabled
}

// Paint formats args with fmt.Sprint and applies the style s
func (p Painter) Paint(s Style, args ...interface{}) string {
	if !p.enabled {
		return fmt.Sprint(args...)
	}
	return fmt.Sprintf(string(s), fmt.Sprint(args...))
}

// Sanitize is a simple sanitizer that removes all escape sequences
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}

// SanitizeRepr is a simple sanitizer that removes all escape sequences from the string representation of an object
func SanitizeRepr(s fmt.Stringer) string {
	return Sanitize(s.String())
}

// PadRight pads s with spaces up to width runes. Escape sequences must not be counted, so s should not be painted.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
