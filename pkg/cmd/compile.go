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

	"github.com/consensys/go-opaline/pkg/opl/compiler"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] model_file",
	Short: "compile a model into its flat linear equations.",
	Long: `Compile a given model file into its flat list of linear equations plus objective,
	 as would be handed to an external solver, and print the result.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		if len(args) != 1 {
			fmt.Println("expected exactly one model file")
			os.Exit(1)
		}
		//
		bytes, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		comp := compiler.New()
		//
		if err := comp.CompileModel(string(bytes)); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if output := GetString(cmd, "output"); output != "" {
			if err := writeModel(comp, output); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		} else {
			printModel(comp)
		}
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "", "write the compiled model to a file instead of stdout")
}
