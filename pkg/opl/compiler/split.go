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
package compiler

import (
	"strings"
)

// SplitStatements splits model text into individual statement strings.  Line
// ("//") and block comments are stripped; semicolons inside curly braces
// (tuple schema bodies) or string literals do not terminate a statement.  A
// trailing statement without a terminator is kept.
func SplitStatements(text string) []string {
	var (
		statements []string
		builder    strings.Builder
		depth      = 0
		inString   = false
	)
	//
	for i := 0; i < len(text); i++ {
		c := text[i]
		//
		if inString {
			builder.WriteByte(c)
			//
			if c == '"' {
				inString = false
			}
			//
			continue
		}
		//
		switch {
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			//
			builder.WriteByte(' ')
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			i += 2
			for i+1 < len(text) && (text[i] != '*' || text[i+1] != '/') {
				i++
			}
			//
			i++
			builder.WriteByte(' ')
		case c == '"':
			inString = true
			builder.WriteByte(c)
		case c == '{':
			depth++
			builder.WriteByte(c)
		case c == '}':
			depth--
			builder.WriteByte(c)
		case c == ';' && depth == 0:
			if stmt := strings.TrimSpace(builder.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			//
			builder.Reset()
		default:
			builder.WriteByte(c)
		}
	}
	//
	if stmt := strings.TrimSpace(builder.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	//
	return statements
}
