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
	"github.com/consensys/go-opaline/pkg/util/source/lex"
)

// END_OF signals "end of input"
const END_OF uint = 0

// WHITESPACE signals whitespace
const WHITESPACE uint = 1

// LBRACE signals "("
const LBRACE uint = 2

// RBRACE signals ")"
const RBRACE uint = 3

// LSQUARE signals "["
const LSQUARE uint = 4

// RSQUARE signals "]"
const RSQUARE uint = 5

// LCURLY signals "{"
const LCURLY uint = 6

// RCURLY signals "}"
const RCURLY uint = 7

// NUMBER signals an integer literal
const NUMBER uint = 8

// FLOAT signals a floating-point literal
const FLOAT uint = 9

// STRING signals a (non-empty) string literal
const STRING uint = 10

// IDENTIFIER signals a name
const IDENTIFIER uint = 11

// EQUALS signals "=="
const EQUALS uint = 12

// ASSIGN signals "="
const ASSIGN uint = 13

// NOT_EQUALS signals "!="
const NOT_EQUALS uint = 14

// LESSTHAN signals "<" (also the opening bracket of a tuple literal)
const LESSTHAN uint = 15

// LESSTHAN_EQUALS signals "<="
const LESSTHAN_EQUALS uint = 16

// GREATERTHAN signals ">" (also the closing bracket of a tuple literal)
const GREATERTHAN uint = 17

// GREATERTHAN_EQUALS signals ">="
const GREATERTHAN_EQUALS uint = 18

// ADD signals "+"
const ADD uint = 19

// MINUS signals "-"
const MINUS uint = 20

// MUL signals "*"
const MUL uint = 21

// DIVIDE signals "/"
const DIVIDE uint = 22

// COMMA signals ","
const COMMA uint = 23

// SEMICOLON signals ";"
const SEMICOLON uint = 24

// COLON signals ":"
const COLON uint = 25

// DOT signals "."
const DOT uint = 26

// DOTDOT signals ".."
const DOTDOT uint = 27

// ELLIPSIS signals "..." (externally supplied data)
const ELLIPSIS uint = 28

// OR signals "||"
const OR uint = 29

// AND signals "&&"
const AND uint = 30

// BAR signals "|" (comprehension separator)
const BAR uint = 31

// Rule for describing whitespace
var whitespace lex.Scanner[rune] = lex.Many(lex.Or(lex.Unit(' '), lex.Unit('\t'), lex.Unit('\n'), lex.Unit('\r')))

// Rule for describing digit runs
var digits lex.Scanner[rune] = lex.Many(lex.Within('0', '9'))

// Rule for describing floating-point literals.  Observe that "1..3" does not
// begin a float, since the fractional part requires at least one digit.
var float lex.Scanner[rune] = lex.Sequence(digits, lex.Unit('.'), digits)

var identifierStart lex.Scanner[rune] = lex.Or(
	lex.Unit('_'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// Rule for describing identifiers
var identifier lex.Scanner[rune] = lex.And(identifierStart, identifierRest)

// Rule for describing string literals
var stringLiteral lex.Scanner[rune] = lex.Sequence(lex.Unit('"'), lex.Until[rune]('"'), lex.Unit('"'))

// lexing rules.  Order matters: longer spellings come before their prefixes.
var rules []lex.LexRule[rune] = []lex.LexRule[rune]{
	lex.Rule(lex.Unit('('), LBRACE),
	lex.Rule(lex.Unit(')'), RBRACE),
	lex.Rule(lex.Unit('['), LSQUARE),
	lex.Rule(lex.Unit(']'), RSQUARE),
	lex.Rule(lex.Unit('{'), LCURLY),
	lex.Rule(lex.Unit('}'), RCURLY),
	lex.Rule(lex.Unit('+'), ADD),
	lex.Rule(lex.Unit('-'), MINUS),
	lex.Rule(lex.Unit('*'), MUL),
	lex.Rule(lex.Unit('/'), DIVIDE),
	lex.Rule(lex.Unit(','), COMMA),
	lex.Rule(lex.Unit(';'), SEMICOLON),
	lex.Rule(lex.Unit(':'), COLON),
	lex.Rule(lex.Unit('=', '='), EQUALS),
	lex.Rule(lex.Unit('='), ASSIGN),
	lex.Rule(lex.Unit('!', '='), NOT_EQUALS),
	lex.Rule(lex.Unit('<', '='), LESSTHAN_EQUALS),
	lex.Rule(lex.Unit('<'), LESSTHAN),
	lex.Rule(lex.Unit('>', '='), GREATERTHAN_EQUALS),
	lex.Rule(lex.Unit('>'), GREATERTHAN),
	lex.Rule(lex.Unit('|', '|'), OR),
	lex.Rule(lex.Unit('|'), BAR),
	lex.Rule(lex.Unit('&', '&'), AND),
	lex.Rule(lex.Unit('.', '.', '.'), ELLIPSIS),
	lex.Rule(lex.Unit('.', '.'), DOTDOT),
	lex.Rule(lex.Unit('.'), DOT),
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(float, FLOAT),
	lex.Rule(digits, NUMBER),
	lex.Rule(stringLiteral, STRING),
	lex.Rule(identifier, IDENTIFIER),
	lex.Rule(lex.Eof[rune](), END_OF),
}
