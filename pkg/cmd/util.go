// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-opaline/pkg/opl/compiler"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetString gets an expected string flag, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}

	return r
}

// modelLines renders the objective and all equations of a compiled model,
// one line each with equation names right-aligned, plus a trailing count.
func modelLines(comp *compiler.Compiler) []string {
	var lines []string
	//
	if objective := comp.Objective(); objective != nil {
		lines = append(lines, objective.String())
	}
	// Determine longest equation name
	maxName := 0
	//
	for _, eq := range comp.Equations() {
		if n := len(eq.Name()); n > maxName {
			maxName = n
		}
	}
	//
	for _, eq := range comp.Equations() {
		line := eq.String()
		//
		if maxName > 0 {
			line = fmt.Sprintf("%*s: %s", maxName, eq.Name(), line)
		}
		//
		lines = append(lines, line)
	}
	//
	return append(lines, fmt.Sprintf("%d equations", len(comp.Equations())))
}

// printModel lists a compiled model on stdout, clipping each line to the
// terminal width (when attached to one).
func printModel(comp *compiler.Compiler) {
	width := 80
	// Determine terminal width (if any)
	if w, _, err := term.GetSize(0); err == nil && w > 0 {
		width = w
	}
	//
	for _, line := range modelLines(comp) {
		fmt.Println(clip(line, width))
	}
}

// writeModel writes a compiled model to a file, unclipped.
func writeModel(comp *compiler.Compiler, filename string) error {
	text := strings.Join(modelLines(comp), "\n") + "\n"
	//
	return os.WriteFile(filename, []byte(text), 0644)
}

// clip truncates a line to a given width, marking the cut.
func clip(line string, width int) string {
	if len(line) <= width || width < 4 {
		return line
	}
	//
	return strings.TrimRight(line[:width-3], " ") + "..."
}
