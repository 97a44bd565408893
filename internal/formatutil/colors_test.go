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

package formatutil

import (
	"bytes"
	"testing"
)

func TestPainterDisabledOnBuffers(t *testing.T) {
	p := NewPainter(&bytes.Buffer{})
	if p.Enabled() {
		t.Fatalf("painter should be disabled when writing to a buffer")
	}
	if got := p.Paint(Red, "x", 1); got != "x1" {
		t.Errorf("Paint() = %q, want %q", got, "x1")
	}
	on := Painter{enabled: true}
	if got := on.Paint(Bold, "x"); got != "\033[1mx\033[0m" {
		t.Errorf("Paint() = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("a\033[1mb\n"); got != `a\x1b[1mb\n` {
		t.Errorf("Sanitize() = %q", got)
	}
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight() = %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("PadRight() = %q", got)
	}
}
