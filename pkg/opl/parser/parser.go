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
	"slices"
	"strconv"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/util/source"
	"github.com/consensys/go-opaline/pkg/util/source/lex"
)

// Context tells the parser how a declared name classifies, which determines
// whether an indexed reference becomes a variable, parameter or
// decision-expression node.
type Context interface {
	// IsVariable determines whether a name declares a decision variable.
	IsVariable(name string) bool
	// IsParameter determines whether a name declares a parameter.
	IsParameter(name string) bool
	// IsDexpr determines whether a name declares a decision expression.
	IsDexpr(name string) bool
}

// ParseExpr parses a given input string into an expression tree.
func ParseExpr(input string, ctx Context) (ast.Expr, []source.SyntaxError) {
	parser, errs := NewParser(input, ctx)
	if len(errs) != 0 {
		return nil, errs
	}
	//
	e, errs := parser.parseExpr()
	// Check all input was consumed
	if len(errs) == 0 && !parser.Done() {
		return nil, parser.syntaxErrors(parser.lookahead(), "unknown token")
	}
	//
	return e, errs
}

// RELATIONS captures the set of relational operator tokens.
var RELATIONS = []uint{EQUALS, NOT_EQUALS, LESSTHAN, LESSTHAN_EQUALS, GREATERTHAN, GREATERTHAN_EQUALS}

// Parser provides a general-purpose parser for statements, constraints and
// arithmetic expressions.
type Parser struct {
	ctx     Context
	srcfile *source.File
	tokens  []lex.Token
	// Position within the tokens
	index int
}

// NewParser tokenises an input string, failing if any text cannot be lexed.
func NewParser(input string, ctx Context) (*Parser, []source.SyntaxError) {
	var (
		srcfile = source.NewSourceFile("stmt", []byte(input))
		lexer   = lex.NewLexer[rune](srcfile.Contents(), rules...)
		// Lex as many tokens as possible
		tokens = lexer.Collect()
	)
	// Check whether anything was left (if so this is an error)
	if lexer.Remaining() != 0 {
		start, end := lexer.Index(), lexer.Index()+lexer.Remaining()
		err := srcfile.SyntaxError(source.NewSpan(int(start), int(end)), "unknown text encountered")
		//
		return nil, []source.SyntaxError{*err}
	}
	// Remove any whitespace
	tokens = slices.DeleteFunc(tokens, func(t lex.Token) bool { return t.Kind == WHITESPACE })
	//
	return &Parser{ctx, srcfile, tokens, 0}, nil
}

// Done determines whether or not the parser has parsed all the available
// tokens (a trailing semicolon is permitted).
func (p *Parser) Done() bool {
	p.match(SEMICOLON)
	return p.index+1 >= len(p.tokens)
}

// ============================================================================
// Expressions
// ============================================================================

func (p *Parser) parseExpr() (ast.Expr, []source.SyntaxError) {
	lhs, errs := p.parseAnd()
	//
	for len(errs) == 0 && p.follows(OR) {
		p.expect(OR)
		//
		var rhs ast.Expr
		//
		rhs, errs = p.parseAnd()
		lhs = &ast.Binary{Op: ast.OR, Lhs: lhs, Rhs: rhs}
	}
	//
	return lhs, errs
}

func (p *Parser) parseAnd() (ast.Expr, []source.SyntaxError) {
	lhs, errs := p.parseRelational()
	//
	for len(errs) == 0 && p.follows(AND) {
		p.expect(AND)
		//
		var rhs ast.Expr
		//
		rhs, errs = p.parseRelational()
		lhs = &ast.Binary{Op: ast.AND, Lhs: lhs, Rhs: rhs}
	}
	//
	return lhs, errs
}

func (p *Parser) parseRelational() (ast.Expr, []source.SyntaxError) {
	lhs, errs := p.parseAdditive()
	// Check for an (optional) infix relation
	if len(errs) != 0 || !p.follows(RELATIONS...) {
		return lhs, errs
	}
	//
	op := relationalOp(p.lookahead().Kind)
	p.expect(p.lookahead().Kind)
	//
	rhs, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs}, nil
}

func relationalOp(kind uint) ast.BinOp {
	switch kind {
	case EQUALS:
		return ast.EQ
	case NOT_EQUALS:
		return ast.NEQ
	case LESSTHAN:
		return ast.LT
	case LESSTHAN_EQUALS:
		return ast.LEQ
	case GREATERTHAN:
		return ast.GT
	case GREATERTHAN_EQUALS:
		return ast.GEQ
	}
	//
	panic("unknown relational operator")
}

func (p *Parser) parseAdditive() (ast.Expr, []source.SyntaxError) {
	lhs, errs := p.parseMultiplicative()
	//
	for len(errs) == 0 && p.follows(ADD, MINUS) {
		op := ast.ADD
		//
		if p.lookahead().Kind == MINUS {
			op = ast.SUB
		}
		//
		p.expect(p.lookahead().Kind)
		//
		var rhs ast.Expr
		//
		rhs, errs = p.parseMultiplicative()
		lhs = &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs}
	}
	//
	return lhs, errs
}

func (p *Parser) parseMultiplicative() (ast.Expr, []source.SyntaxError) {
	lhs, errs := p.parseUnary()
	//
	for len(errs) == 0 && p.follows(MUL, DIVIDE) {
		op := ast.MUL
		//
		if p.lookahead().Kind == DIVIDE {
			op = ast.DIV
		}
		//
		p.expect(p.lookahead().Kind)
		//
		var rhs ast.Expr
		//
		rhs, errs = p.parseUnary()
		lhs = &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs}
	}
	//
	return lhs, errs
}

func (p *Parser) parseUnary() (ast.Expr, []source.SyntaxError) {
	if p.match(MINUS) {
		arg, errs := p.parseUnary()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		return &ast.Unary{Arg: arg}, nil
	}
	//
	return p.parsePostfix()
}

// parsePostfix handles field projection chained off a primary expression.
func (p *Parser) parsePostfix() (ast.Expr, []source.SyntaxError) {
	e, errs := p.parsePrimary()
	//
	for len(errs) == 0 && p.follows(DOT) {
		p.expect(DOT)
		//
		if !p.follows(IDENTIFIER) {
			return nil, p.syntaxErrors(p.lookahead(), "expected field name")
		}
		//
		field := p.string(p.expect(IDENTIFIER))
		e = &ast.FieldAccess{Base: e, Field: field}
	}
	//
	return e, errs
}

func (p *Parser) parsePrimary() (ast.Expr, []source.SyntaxError) {
	token := p.lookahead()
	//
	switch token.Kind {
	case LBRACE:
		return p.parseBracketed()
	case NUMBER:
		p.expect(NUMBER)
		n, _ := strconv.Atoi(p.string(token))
		//
		return &ast.Constant{Value: ast.IntValue(n)}, nil
	case FLOAT:
		p.expect(FLOAT)
		f, _ := strconv.ParseFloat(p.string(token), 64)
		//
		return &ast.Constant{Value: ast.FloatValue(f)}, nil
	case STRING:
		p.expect(STRING)
		text := p.string(token)
		// Strip enclosing quotes
		return &ast.Constant{Value: ast.StringValue(text[1 : len(text)-1])}, nil
	case IDENTIFIER:
		return p.parseIdentifier()
	}
	//
	return nil, p.syntaxErrors(token, "unknown expression")
}

func (p *Parser) parseBracketed() (ast.Expr, []source.SyntaxError) {
	p.expect(LBRACE)
	//
	e, errs := p.parseExpr()
	//
	if len(errs) == 0 && !p.match(RBRACE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ')'")
	}
	//
	return e, errs
}

func (p *Parser) parseIdentifier() (ast.Expr, []source.SyntaxError) {
	name := p.string(p.expect(IDENTIFIER))
	// Intrinsics
	switch {
	case name == "sum" && p.follows(LBRACE):
		return p.parseSum()
	case name == "item" && p.follows(LBRACE):
		return p.parseItem()
	}
	// Collect index chains, e.g. x[i][j] or x[i,j].
	var indices []ast.Expr
	//
	for p.follows(LSQUARE) {
		chain, errs := p.parseIndexChain()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		indices = append(indices, chain...)
	}
	// Classify the reference
	switch {
	case p.ctx.IsVariable(name) && len(indices) == 0:
		return &ast.VarRef{Name: name}, nil
	case p.ctx.IsVariable(name):
		return &ast.IndexedVarRef{Name: name, Indices: indices}, nil
	case p.ctx.IsDexpr(name) && len(indices) == 0:
		return &ast.DexprRef{Name: name}, nil
	case p.ctx.IsDexpr(name) && len(indices) == 1:
		return &ast.DexprRef{Name: name, Index: indices[0]}, nil
	case p.ctx.IsDexpr(name):
		return nil, p.syntaxErrors(p.lookahead(), "decision expressions take at most one index")
	case len(indices) == 0:
		// Parameters and bound iterator variables both resolve by name.
		return &ast.ParamRef{Name: name}, nil
	}
	//
	return &ast.IndexedParamRef{Name: name, Indices: indices}, nil
}

func (p *Parser) parseIndexChain() ([]ast.Expr, []source.SyntaxError) {
	var indices []ast.Expr
	//
	p.expect(LSQUARE)
	//
	for {
		index, errs := p.parseAdditive()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		indices = append(indices, index)
		//
		if !p.match(COMMA) {
			break
		}
	}
	//
	if !p.match(RSQUARE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ']'")
	}
	//
	return indices, nil
}

// parseSum parses a symbolic summation "sum(v in D) term", where the summand
// binds at multiplicative precedence.
func (p *Parser) parseSum() (ast.Expr, []source.SyntaxError) {
	p.expect(LBRACE)
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected iterator variable")
	}
	//
	variable := p.string(p.expect(IDENTIFIER))
	//
	if !p.matchKeyword("in") {
		return nil, p.syntaxErrors(p.lookahead(), "expected 'in'")
	}
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected domain name")
	}
	//
	domain := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(RBRACE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ')'")
	}
	//
	body, errs := p.parseMultiplicative()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ast.Summation{Var: variable, Domain: domain, Body: body}, nil
}

// parseItem parses a keyed tuple lookup "item(Set, <k1,k2>)"; a single
// non-composite key may omit the angle brackets.
func (p *Parser) parseItem() (ast.Expr, []source.SyntaxError) {
	p.expect(LBRACE)
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected tuple set name")
	}
	//
	set := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(COMMA) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ','")
	}
	//
	var (
		keys []ast.Expr
		errs []source.SyntaxError
	)
	//
	if p.match(LESSTHAN) {
		for {
			var key ast.Expr
			//
			key, errs = p.parseAdditive()
			if len(errs) != 0 {
				return nil, errs
			}
			//
			keys = append(keys, key)
			//
			if !p.match(COMMA) {
				break
			}
		}
		//
		if !p.match(GREATERTHAN) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '>'")
		}
	} else {
		var key ast.Expr
		//
		key, errs = p.parseAdditive()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		keys = []ast.Expr{key}
	}
	//
	if !p.match(RBRACE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ')'")
	}
	//
	return &ast.ItemLookup{Set: set, Keys: keys}, nil
}

// ============================================================================
// Helpers
// ============================================================================

// Get the text representing the given token as a string.
func (p *Parser) string(token lex.Token) string {
	return p.srcfile.Text(token.Span)
}

// Follows checks whether one of the given token kinds is next.
func (p *Parser) follows(options ...uint) bool {
	return slices.Contains(options, p.lookahead().Kind)
}

// followsKeyword checks whether a given keyword is next.
func (p *Parser) followsKeyword(keyword string) bool {
	token := p.lookahead()
	return token.Kind == IDENTIFIER && p.string(token) == keyword
}

// Lookahead returns the next token.  This must exist because EOF is always
// appended at the end of the token stream.
func (p *Parser) lookahead() lex.Token {
	return p.tokens[p.index]
}

// lookaheadAt returns the nth token after the next, without advancing.
func (p *Parser) lookaheadAt(n int) lex.Token {
	if p.index+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	//
	return p.tokens[p.index+n]
}

func (p *Parser) expect(kind uint) lex.Token {
	if p.lookahead().Kind != kind {
		panic("internal failure")
	}
	//
	token := p.tokens[p.index]
	p.index++
	//
	return token
}

func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) matchKeyword(keyword string) bool {
	if p.followsKeyword(keyword) {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) syntaxErrors(token lex.Token, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.srcfile.SyntaxError(token.Span, msg)}
}
