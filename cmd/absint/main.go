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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/cmd/absint/analyze"
	"github.com/awslabs/ar-go-absint/cmd/absint/summaries"
	"github.com/awslabs/ar-go-absint/cmd/absint/tools"
)

const usage = `absint: abstract interpretation of Go programs
Usage:
  absint [tool] [options] <package path(s)>
Tools:
  - nullcheck: proves pointer dereferences safe and reports the ones that may dereference nil
  - pointsto: computes the targets of the pointers of every function
  - summaries: prints the summaries persisted in the summaries directory of a config
Examples:
  Run the null-check analysis: absint nullcheck -config config.yaml ./...
  Print the persisted summaries: absint summaries -config config.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case config.NullCheckAnalysis, config.PointsToAnalysis:
		flags, err := analyze.NewFlags(cmd, args)
		if err != nil {
			errExit(err)
		}
		if err := analyze.Run(cmd, flags); err != nil {
			errExit(err)
		}
	case "summaries":
		flags, err := summaries.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := summaries.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
