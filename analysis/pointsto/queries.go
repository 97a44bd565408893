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

package pointsto

import (
	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// PointsTo returns the targets of p before the instruction at location loc, when the analysis has a rule for p
func PointsTo(res *absint.Result[RuleSet], loc int, p expr.Expr) (Targets, bool) {
	return res.StateAt(loc).Get(p)
}

// Aliases returns true when p and q may point to the same object before the instruction at location loc. Pointers
// without rule may point to anything.
func Aliases(res *absint.Result[RuleSet], loc int, p, q expr.Expr) bool {
	tp, ok := PointsTo(res, loc, p)
	if !ok {
		return true
	}
	tq, ok := PointsTo(res, loc, q)
	if !ok {
		return true
	}
	return MayAlias(tp, tq)
}
