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
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// Statistics are general statistics about the procedures of a program
type Statistics struct {
	NumberOfProcedures   int
	NumberOfInstructions int
	NumberOfCalls        int
	NumberOfLoops        int
	NumberOfRecursive    int
	NumberOfLevels       int

	// InstructionsByKind counts the instructions of each kind
	InstructionsByKind map[cfg.Kind]int
}

// ProgramStatistics returns the statistics of prog
func ProgramStatistics(prog *cfg.Program) Statistics {
	s := Statistics{InstructionsByKind: map[cfg.Kind]int{}}
	for _, id := range prog.Procedures() {
		p, _ := prog.Procedure(id)
		s.NumberOfProcedures++
		s.NumberOfInstructions += len(p.Instructions)
		s.NumberOfLoops += len(p.Loops())
		for _, ins := range p.Instructions {
			s.InstructionsByKind[ins.Kind]++
		}
	}
	s.NumberOfCalls = s.InstructionsByKind[cfg.Call]
	s.NumberOfRecursive = len(graphutil.Recursive(prog.CallGraph()))
	s.NumberOfLevels = len(graphutil.Levels(prog.Procedures(), prog.Callees))
	return s
}

// Log prints the statistics with the logger at the Info level
func (s Statistics) Log(logger *config.LogGroup) {
	logger.Infof("%d procedures, %d instructions (%.1f/proc)\n", s.NumberOfProcedures, s.NumberOfInstructions,
		ratio(s.NumberOfInstructions, s.NumberOfProcedures))
	logger.Infof("%d calls, %d loops\n", s.NumberOfCalls, s.NumberOfLoops)
	logger.Infof("%d recursive procedures, %d call graph levels\n", s.NumberOfRecursive, s.NumberOfLevels)
	kinds := funcutil.SortedKeys(s.InstructionsByKind)
	for _, k := range kinds {
		logger.Debugf("%-8s %d\n", k, s.InstructionsByKind[k])
	}
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
