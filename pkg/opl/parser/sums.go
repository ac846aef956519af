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
package parser

import (
	"fmt"
	"strings"

	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// ExpandSums rewrites every "sum(v in D) term" occurrence in the input into
// an explicit parenthesized addition chain, substituting each element of D
// for v in the summand text.  The elements callback renders a domain as
// splice-ready element strings; it fails for domains whose elements have no
// textual form (tuple sets), in which case the caller falls back to the
// symbolic summation node.  The summand extends to the next additive or
// relational operator at bracket depth zero, matching the precedence the
// expression parser gives symbolic summations.
func ExpandSums(input string, elements func(domain string) ([]string, error)) (string, error) {
	var (
		builder strings.Builder
		i       = 0
	)
	//
	for i < len(input) {
		j, ok := nextSum(input, i)
		if !ok {
			builder.WriteString(input[i:])
			break
		}
		//
		builder.WriteString(input[i:j])
		//
		variable, domain, bodyStart, err := parseSumHeader(input, j)
		if err != nil {
			return "", err
		}
		//
		end := termEnd(input, bodyStart)
		term := strings.TrimSpace(input[bodyStart:end])
		//
		if term == "" {
			return "", ast.Errorf(ast.UnboundName, "empty summand in sum over %s", domain)
		}
		// Inner sums expand first, so that substitution below sees only
		// concrete terms.
		if term, err = ExpandSums(term, elements); err != nil {
			return "", err
		}
		//
		elems, err := elements(domain)
		if err != nil {
			return "", err
		}
		//
		builder.WriteString(spliceSum(term, variable, elems))
		//
		i = end
	}
	//
	return builder.String(), nil
}

func spliceSum(term string, variable string, elems []string) string {
	// An empty domain sums to zero
	if len(elems) == 0 {
		return "0"
	}
	//
	parts := make([]string, len(elems))
	//
	for i, elem := range elems {
		parts[i] = replaceIdent(term, variable, elem)
	}
	//
	return "(" + strings.Join(parts, " + ") + ")"
}

// nextSum locates the next "sum(" keyword occurrence at an identifier
// boundary, skipping string literals.
func nextSum(input string, from int) (int, bool) {
	inString := false
	//
	for i := from; i+3 <= len(input); i++ {
		if input[i] == '"' {
			inString = !inString
			continue
		}
		//
		if inString || input[i:i+3] != "sum" {
			continue
		}
		// Check the keyword stands alone
		if i > 0 && isIdentChar(input[i-1]) {
			continue
		}
		//
		rest := i + 3
		for rest < len(input) && isSpace(input[rest]) {
			rest++
		}
		//
		if rest < len(input) && input[rest] == '(' {
			return i, true
		}
	}
	//
	return 0, false
}

// parseSumHeader consumes "sum ( v in D )" starting at the keyword, returning
// the iterator variable, domain name and the offset of the summand.
func parseSumHeader(input string, at int) (string, string, int, error) {
	i := skipSpace(input, at+3)
	// nextSum guarantees the open bracket
	i = skipSpace(input, i+1)
	//
	variable, i := scanIdent(input, i)
	if variable == "" {
		return "", "", 0, fmt.Errorf("malformed sum: expected iterator variable")
	}
	//
	i = skipSpace(input, i)
	//
	keyword, i := scanIdent(input, i)
	if keyword != "in" {
		return "", "", 0, fmt.Errorf("malformed sum: expected 'in'")
	}
	//
	i = skipSpace(input, i)
	//
	domain, i := scanIdent(input, i)
	if domain == "" {
		return "", "", 0, fmt.Errorf("malformed sum: expected domain name")
	}
	//
	i = skipSpace(input, i)
	//
	if i >= len(input) || input[i] != ')' {
		return "", "", 0, fmt.Errorf("malformed sum: expected ')'")
	}
	//
	return variable, domain, i + 1, nil
}

// termEnd scans forward to the end of one multiplicative term: the first
// additive operator in binary position, relational operator, separator or
// unmatched closing bracket at depth zero.
func termEnd(input string, from int) int {
	var (
		depth    = 0
		inString = false
		// last significant (non-space) byte seen, 0 at term start
		prev byte
	)
	//
	for i := from; i < len(input); i++ {
		c := input[i]
		//
		if inString {
			if c == '"' {
				inString = false
				prev = c
			}
			//
			continue
		}
		//
		switch {
		case c == '"':
			inString = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth == 0 {
				return i
			}
			//
			depth--
		case depth > 0:
			// separators and operators inside brackets never end the term
		case c == ',' || c == ';' || c == ':':
			return i
		case c == '=' || c == '!' || c == '&' || c == '|' || c == '<' || c == '>':
			return i
		case c == '+' || c == '-':
			// binary position only: a sign after an operator (or at term
			// start) is part of the summand
			if prev != 0 && (isIdentChar(prev) || prev == ')' || prev == ']' || prev == '"') {
				return i
			}
		}
		//
		if !isSpace(c) {
			prev = c
		}
	}
	//
	return len(input)
}

// replaceIdent substitutes every free-standing occurrence of an identifier,
// leaving string literals and longer identifiers containing it untouched.
func replaceIdent(input string, ident string, replacement string) string {
	var (
		builder  strings.Builder
		inString = false
		n        = len(ident)
	)
	//
	for i := 0; i < len(input); {
		c := input[i]
		//
		if c == '"' {
			inString = !inString
		}
		//
		boundary := (i == 0 || !isIdentChar(input[i-1])) &&
			(i+n >= len(input) || !isIdentChar(input[i+n]))
		//
		if !inString && i+n <= len(input) && input[i:i+n] == ident && boundary {
			builder.WriteString(replacement)
			i += n
		} else {
			builder.WriteByte(c)
			i++
		}
	}
	//
	return builder.String()
}

func scanIdent(input string, from int) (string, int) {
	i := from
	//
	for i < len(input) && isIdentChar(input[i]) {
		i++
	}
	//
	return input[from:i], i
}

func skipSpace(input string, from int) int {
	for from < len(input) && isSpace(input[from]) {
		from++
	}
	//
	return from
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
