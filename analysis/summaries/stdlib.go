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

package summaries

import (
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/config"
)

// stdPackages is the set of standard library packages. It serves as a reference to decide which packages are
// treated as library code.
var stdPackages = map[string]bool{
	"archive/tar": true, "archive/zip": true, "bufio": true, "builtin": true, "bytes": true,
	"compress/bzip2": true, "compress/flate": true, "compress/gzip": true, "compress/lzw": true,
	"compress/zlib": true, "container/heap": true, "container/list": true, "context": true, "crypto": true,
	"crypto/aes": true, "crypto/cipher": true, "crypto/tls": true, "crypto/x509": true, "database/sql": true,
	"embed": true, "encoding": true, "encoding/asn1": true, "encoding/gob": true, "encoding/json": true,
	"encoding/xml": true, "errors": true, "expvar": true, "flag": true, "fmt": true, "hash": true,
	"html": true, "image": true, "image/color": true, "io": true, "io/fs": true, "log": true, "math": true,
	"math/big": true, "math/bits": true, "math/cmplx": true, "math/rand": true, "mime": true, "net": true,
	"net/http": true, "net/netip": true, "net/textproto": true, "os": true, "os/exec": true, "path": true,
	"path/filepath": true, "plugin": true, "reflect": true, "regexp": true, "regexp/syntax": true,
	"sort": true, "strconv": true, "strings": true, "sync": true, "sync/atomic": true, "syscall": true,
	"testing": true, "time": true, "unicode": true, "unicode/utf8": true, "unsafe": true,
}

// IsStdPackageName returns true if the package path is in the standard library or the runtime.
func IsStdPackageName(name string) bool {
	return stdPackages[name] || strings.HasPrefix(name, "runtime") || strings.HasPrefix(name, "internal/")
}

// standardModels are the models of standard library functions that are always available. Models given in the
// configuration replace them.
var standardModels = []config.LibraryModel{
	// func New(text string) error
	{Function: "errors.New", ReturnsNonNull: true, ReturnsFresh: true},
	// func Errorf(format string, a ...any) error
	{Function: "fmt.Errorf", ReturnsNonNull: true},
	// func Sprintf(format string, a ...any) string
	{Function: "fmt.Sprintf", NoEffect: true},
	// func NewBuffer(buf []byte) *Buffer
	{Function: "bytes.NewBuffer", ReturnsNonNull: true, ReturnsFresh: true},
	// func NewBufferString(s string) *Buffer
	{Function: "bytes.NewBufferString", ReturnsNonNull: true, ReturnsFresh: true},
	// func NewReader(b []byte) *Reader
	{Function: "bytes.NewReader", ReturnsNonNull: true, ReturnsFresh: true},
	// func NewReader(s string) *Reader
	{Function: "strings.NewReader", ReturnsNonNull: true, ReturnsFresh: true},
	// func NewReader(rd io.Reader) *Reader
	{Function: "bufio.NewReader", ReturnsNonNull: true, ReturnsFresh: true},
	// func NewScanner(r io.Reader) *Scanner
	{Function: "bufio.NewScanner", ReturnsNonNull: true, ReturnsFresh: true},
	// func Background() Context
	{Function: "context.Background", ReturnsNonNull: true, NoEffect: true},
	// func Getenv(key string) string
	{Function: "os.Getenv", NoEffect: true},
	// func Itoa(i int) string
	{Function: "strconv.Itoa", NoEffect: true},
	// func Contains(s, substr string) bool
	{Function: "strings.Contains", NoEffect: true},
	// func HasPrefix(s, prefix string) bool
	{Function: "strings.HasPrefix", NoEffect: true},
	// func Now() Time
	{Function: "time.Now", NoEffect: true},
	// func MustCompile(str string) *Regexp
	{Function: "regexp.MustCompile", ReturnsNonNull: true, ReturnsFresh: true},
	// func (m *Mutex) Lock()
	{Function: "(*sync.Mutex).Lock", NonNullArgs: []int{0}, NoEffect: true},
	// func (m *Mutex) Unlock()
	{Function: "(*sync.Mutex).Unlock", NonNullArgs: []int{0}, NoEffect: true},
}
