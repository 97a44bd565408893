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

package analysis

import (
	"fmt"
	"time"

	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Report is the result of a run of the driver
type Report struct {
	// Outcomes are the results of the analyses, by procedure and then by analysis name
	Outcomes map[string]map[string]Outcome

	// Recursive are the procedures that are part of a cycle of the call graph
	Recursive []string

	// Failed are the errors of the procedures for which some analysis failed
	Failed map[string]error

	// Duration is the time taken by the run
	Duration time.Duration
}

func newReport() *Report {
	return &Report{Outcomes: map[string]map[string]Outcome{}, Failed: map[string]error{}}
}

func (r *Report) add(o Outcome) {
	if r.Outcomes[o.Procedure] == nil {
		r.Outcomes[o.Procedure] = map[string]Outcome{}
	}
	r.Outcomes[o.Procedure][o.Analysis] = o
}

// Outcome returns the outcome of the analysis named analysis on the procedure proc
func (r *Report) Outcome(proc string, analysis string) (Outcome, bool) {
	o, ok := r.Outcomes[proc][analysis]
	return o, ok
}

// Procedures returns the sorted identifiers of the procedures with at least one outcome
func (r *Report) Procedures() []string {
	return funcutil.SortedKeys(r.Outcomes)
}

// Warnings returns the warnings of every outcome, prefixed by the procedure and the analysis, in a deterministic
// order
func (r *Report) Warnings() []string {
	var res []string
	for _, proc := range r.Procedures() {
		byAnalysis := r.Outcomes[proc]
		for _, name := range funcutil.SortedKeys(byAnalysis) {
			for _, w := range byAnalysis[name].Warnings {
				res = append(res, fmt.Sprintf("%s: %s: %s", proc, name, w))
			}
		}
	}
	return res
}
