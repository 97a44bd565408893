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

package nullcheck

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// Checked returns true when e is known to be non-null before the instruction at location loc
func Checked(res *absint.Result[expr.Set], loc int, e expr.Expr) bool {
	return isNonNull(res.StateAt(loc), e)
}

// Deref is a dereference of a pointer that is not proven non-null
type Deref struct {
	// Location is the location number of the instruction dereferencing Pointer
	Location int
	// Pointer is the dereferenced path
	Pointer expr.Expr
}

func (d Deref) String() string {
	return fmt.Sprintf("%d: %s may be null", d.Location, d.Pointer)
}

// UncheckedDerefs returns the dereferences of access paths in proc that are not proven non-null by res, in the
// order of the instructions. Null comparisons are not dereferences.
func UncheckedDerefs(proc *cfg.Procedure, res *absint.Result[expr.Set]) []Deref {
	var derefs []Deref
	for _, ins := range proc.Instructions {
		loc := ins.LocationNumber
		seen := map[string]bool{}
		check := func(e expr.Expr) {
			if !e.IsValid() {
				return
			}
			expr.Any(e, func(x expr.Expr) bool {
				if x.Op() != expr.DerefOp {
					return false
				}
				ptr := x.Operand(0)
				if expr.IsAccessPath(ptr) && !seen[ptr.Key()] && !Checked(res, loc, ptr) {
					seen[ptr.Key()] = true
					derefs = append(derefs, Deref{Location: loc, Pointer: ptr})
				}
				return false
			})
		}
		for _, e := range []expr.Expr{ins.Guard, ins.LHS, ins.RHS, ins.Value} {
			check(e)
		}
		for _, e := range ins.Args {
			check(e)
		}
	}
	return derefs
}
