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
	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/util/source"
)

// Statement is the closed set of declaration forms produced by the statement
// parser.
type Statement interface {
	isStatement()
}

// Iterator pairs an iteration variable with its domain and an optional filter
// expression.
type Iterator struct {
	// Var being bound on each step.
	Var string
	// Domain being iterated.
	Domain string
	// Filter applied under the binding of Var (nil if none).
	Filter ast.Expr
}

// RangeDecl declares a contiguous integer range, e.g. "range I = 1..n;".
type RangeDecl struct {
	Name string
	Lo   ast.Expr
	Hi   ast.Expr
}

// PrimitiveSetDecl declares an explicit set of literal values, e.g.
// "{string} Cities = {"ab", "cd"};".
type PrimitiveSetDecl struct {
	Name string
	// ElemType is one of "int", "float" or "string".
	ElemType string
	Elements []ast.Expr
}

// ComputedSetDecl declares a set comprehension, optionally indexed by one
// outer domain (a set family), e.g. "{int} S[k in K] = {i | i in I : i != k};".
type ComputedSetDecl struct {
	Name     string
	ElemType string
	// OuterVar / OuterDomain describe the family index ("" when plain).
	OuterVar    string
	OuterDomain string
	// Output is the projected element expression left of the bar.
	Output    ast.Expr
	Iterators []Iterator
	// Filter is the trailing global filter (nil if none).
	Filter ast.Expr
}

// SchemaField is one field of a tuple schema declaration.
type SchemaField struct {
	Key  bool
	Type string
	Name string
}

// TupleSchemaDecl declares a tuple schema, e.g.
// "tuple Arc { key int src; key int dst; float weight; }".
type TupleSchemaDecl struct {
	Name   string
	Fields []SchemaField
}

// TupleSetDecl declares a set of tuple instances, either inline
// ("{Arc} Arcs = {<1,2,7.0>};") or externally supplied ("{Arc} Arcs = ...;").
type TupleSetDecl struct {
	Name   string
	Schema string
	// Rows holds the inline instances, one value per schema field.
	Rows [][]ast.Expr
	// External marks a "..." initializer.
	External bool
}

// ParamDecl declares a scalar or indexed parameter.  An indexed parameter with
// inline values assigns them to its (single) domain's elements in order; a
// "..." or absent initializer marks the parameter externally supplied.
type ParamDecl struct {
	Name string
	Type string
	// Dims holds the indexing domain names (empty for a scalar).
	Dims []string
	// Scalar initializer (nil unless scalar and inline).
	Scalar ast.Expr
	// Values holds inline indexed values in domain order (nil otherwise).
	Values   []ast.Expr
	External bool
}

// DvarDecl declares a decision variable, e.g. "dvar float x[I] in 0..10;".
type DvarDecl struct {
	Name string
	// Type is one of "float", "int" or "boolean".
	Type string
	Dims []string
	// Lo / Hi are optional bounds (nil when absent).  A "+" suffix on the
	// type sets Lo to zero.
	Lo ast.Expr
	Hi ast.Expr
}

// DexprDecl declares a named decision expression, optionally indexed by one
// domain, e.g. "dexpr float load[j in J] = sum(i in I) flow[i][j];".
type DexprDecl struct {
	Name        string
	Type        string
	IndexVar    string
	IndexDomain string
	Body        ast.Expr
}

// ObjectiveDecl declares the objective, e.g. "minimize totalCost;".
type ObjectiveDecl struct {
	// Maximize distinguishes the two senses.
	Maximize bool
	// Name is the optional objective label.
	Name string
	Body ast.Expr
}

// ConstraintDecl declares a single (unquantified) relational constraint with
// an optional label, e.g. "cap: x + y <= 10;".
type ConstraintDecl struct {
	Label    string
	Lhs      ast.Expr
	Rhs      ast.Expr
	Relation ast.Relation
}

// ForallDecl declares a quantified constraint, e.g.
// "forall(i in I, j in J : i != j) flow[i][j] <= cap[i][j];".
type ForallDecl struct {
	Iterators  []Iterator
	Constraint ConstraintDecl
}

func (*RangeDecl) isStatement()        {}
func (*PrimitiveSetDecl) isStatement() {}
func (*ComputedSetDecl) isStatement()  {}
func (*TupleSchemaDecl) isStatement()  {}
func (*TupleSetDecl) isStatement()     {}
func (*ParamDecl) isStatement()        {}
func (*DvarDecl) isStatement()         {}
func (*DexprDecl) isStatement()        {}
func (*ObjectiveDecl) isStatement()    {}
func (*ConstraintDecl) isStatement()   {}
func (*ForallDecl) isStatement()       {}

// ParseStatement parses a single statement string (one declaration, already
// isolated from surrounding comments and terminators).
func ParseStatement(input string, ctx Context) (Statement, []source.SyntaxError) {
	parser, errs := NewParser(input, ctx)
	if len(errs) != 0 {
		return nil, errs
	}
	//
	stmt, errs := parser.parseStatement()
	// Check all input was consumed
	if len(errs) == 0 && !parser.Done() {
		return nil, parser.syntaxErrors(parser.lookahead(), "unknown token")
	}
	//
	return stmt, errs
}

func (p *Parser) parseStatement() (Statement, []source.SyntaxError) {
	token := p.lookahead()
	//
	switch {
	case token.Kind == LCURLY:
		return p.parseSetDecl()
	case p.followsKeyword("range"):
		return p.parseRangeDecl()
	case p.followsKeyword("tuple"):
		return p.parseTupleSchemaDecl()
	case p.followsKeyword("dvar"):
		return p.parseDvarDecl()
	case p.followsKeyword("dexpr"):
		return p.parseDexprDecl()
	case p.followsKeyword("minimize"), p.followsKeyword("maximize"):
		return p.parseObjectiveDecl()
	case p.followsKeyword("forall"):
		return p.parseForallDecl()
	case token.Kind == IDENTIFIER && (isTypeName(p.string(token)) || p.string(token) == "boolean"):
		return p.parseParamDecl()
	}
	//
	return p.parseConstraintDecl()
}

// ============================================================================
// Declarations
// ============================================================================

func (p *Parser) parseRangeDecl() (Statement, []source.SyntaxError) {
	p.expect(IDENTIFIER)
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected range name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(ASSIGN) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '='")
	}
	//
	lo, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	if !p.match(DOTDOT) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '..'")
	}
	//
	hi, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &RangeDecl{Name: name, Lo: lo, Hi: hi}, nil
}

// parseSetDecl parses any of the three "{T} Name = ..." forms: primitive set,
// tuple set and computed set.  The element type distinguishes tuple sets; the
// initializer shape distinguishes primitive sets from comprehensions.
func (p *Parser) parseSetDecl() (Statement, []source.SyntaxError) {
	p.expect(LCURLY)
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected element type")
	}
	//
	elem := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(RCURLY) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '}'")
	}
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected set name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	// Optional family index "[k in K]"
	outerVar, outerDomain, errs := p.parseFamilyIndex()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	if !p.match(ASSIGN) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '='")
	}
	// Tuple sets admit an external initializer
	if !isTypeName(elem) && p.match(ELLIPSIS) {
		return &TupleSetDecl{Name: name, Schema: elem, External: true}, nil
	}
	//
	if !p.match(LCURLY) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '{'")
	}
	//
	switch {
	case !isTypeName(elem):
		return p.parseTupleRows(name, elem)
	case p.follows(RCURLY):
		p.expect(RCURLY)
		return &PrimitiveSetDecl{Name: name, ElemType: elem}, nil
	}
	// Primitive sets and comprehensions both open with an expression; the bar
	// decides which.
	first, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	if p.follows(BAR) {
		return p.parseComprehension(name, elem, outerVar, outerDomain, first)
	} else if outerVar != "" {
		return nil, p.syntaxErrors(p.lookahead(), "only comprehensions may declare a set family")
	}
	//
	elements := []ast.Expr{first}
	//
	for p.match(COMMA) {
		e, errs := p.parseAdditive()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		elements = append(elements, e)
	}
	//
	if !p.match(RCURLY) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '}'")
	}
	//
	return &PrimitiveSetDecl{Name: name, ElemType: elem, Elements: elements}, nil
}

func (p *Parser) parseFamilyIndex() (string, string, []source.SyntaxError) {
	if !p.match(LSQUARE) {
		return "", "", nil
	}
	//
	if !p.follows(IDENTIFIER) {
		return "", "", p.syntaxErrors(p.lookahead(), "expected index variable")
	}
	//
	outerVar := p.string(p.expect(IDENTIFIER))
	//
	if !p.matchKeyword("in") {
		return "", "", p.syntaxErrors(p.lookahead(), "expected 'in'")
	}
	//
	if !p.follows(IDENTIFIER) {
		return "", "", p.syntaxErrors(p.lookahead(), "expected domain name")
	}
	//
	outerDomain := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(RSQUARE) {
		return "", "", p.syntaxErrors(p.lookahead(), "expected ']'")
	}
	//
	return outerVar, outerDomain, nil
}

func (p *Parser) parseComprehension(name, elem, outerVar, outerDomain string,
	output ast.Expr) (Statement, []source.SyntaxError) {
	//
	p.expect(BAR)
	//
	iterators, filter, errs := p.parseIterators(RCURLY)
	if len(errs) != 0 {
		return nil, errs
	}
	//
	p.expect(RCURLY)
	//
	return &ComputedSetDecl{
		Name:        name,
		ElemType:    elem,
		OuterVar:    outerVar,
		OuterDomain: outerDomain,
		Output:      output,
		Iterators:   iterators,
		Filter:      filter,
	}, nil
}

func (p *Parser) parseTupleRows(name, schema string) (Statement, []source.SyntaxError) {
	var rows [][]ast.Expr
	//
	for !p.follows(RCURLY) {
		if !p.match(LESSTHAN) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '<'")
		}
		//
		var row []ast.Expr
		//
		for {
			value, errs := p.parseAdditive()
			if len(errs) != 0 {
				return nil, errs
			}
			//
			row = append(row, value)
			//
			if !p.match(COMMA) {
				break
			}
		}
		//
		if !p.match(GREATERTHAN) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '>'")
		}
		//
		rows = append(rows, row)
		//
		if !p.match(COMMA) {
			break
		}
	}
	//
	if !p.match(RCURLY) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '}'")
	}
	//
	return &TupleSetDecl{Name: name, Schema: schema, Rows: rows}, nil
}

func (p *Parser) parseTupleSchemaDecl() (Statement, []source.SyntaxError) {
	p.expect(IDENTIFIER)
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected schema name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	//
	if !p.match(LCURLY) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '{'")
	}
	//
	var fields []SchemaField
	//
	for !p.follows(RCURLY) {
		key := p.matchKeyword("key")
		//
		if !p.follows(IDENTIFIER) || !isTypeName(p.string(p.lookahead())) {
			return nil, p.syntaxErrors(p.lookahead(), "expected field type")
		}
		//
		ftype := p.string(p.expect(IDENTIFIER))
		//
		if !p.follows(IDENTIFIER) {
			return nil, p.syntaxErrors(p.lookahead(), "expected field name")
		}
		//
		fname := p.string(p.expect(IDENTIFIER))
		//
		if !p.match(SEMICOLON) {
			return nil, p.syntaxErrors(p.lookahead(), "expected ';'")
		}
		//
		fields = append(fields, SchemaField{Key: key, Type: ftype, Name: fname})
	}
	//
	p.expect(RCURLY)
	//
	return &TupleSchemaDecl{Name: name, Fields: fields}, nil
}

func (p *Parser) parseParamDecl() (Statement, []source.SyntaxError) {
	ptype := p.string(p.expect(IDENTIFIER))
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected parameter name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	//
	dims, errs := p.parseDims()
	if len(errs) != 0 {
		return nil, errs
	}
	// Absent initializer marks external data
	if !p.match(ASSIGN) {
		return &ParamDecl{Name: name, Type: ptype, Dims: dims, External: true}, nil
	}
	//
	if p.match(ELLIPSIS) {
		return &ParamDecl{Name: name, Type: ptype, Dims: dims, External: true}, nil
	}
	// Indexed parameters take a value list in domain order
	if len(dims) != 0 {
		if !p.match(LCURLY) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '{'")
		}
		//
		var values []ast.Expr
		//
		for !p.follows(RCURLY) {
			value, errs := p.parseAdditive()
			if len(errs) != 0 {
				return nil, errs
			}
			//
			values = append(values, value)
			//
			if !p.match(COMMA) {
				break
			}
		}
		//
		if !p.match(RCURLY) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '}'")
		}
		//
		return &ParamDecl{Name: name, Type: ptype, Dims: dims, Values: values}, nil
	}
	//
	scalar, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ParamDecl{Name: name, Type: ptype, Scalar: scalar}, nil
}

// parseDims parses zero or more indexing domains, accepting both the chained
// "[I][J]" and comma "[I,J]" spellings.
func (p *Parser) parseDims() ([]string, []source.SyntaxError) {
	var dims []string
	//
	for p.match(LSQUARE) {
		for {
			if !p.follows(IDENTIFIER) {
				return nil, p.syntaxErrors(p.lookahead(), "expected domain name")
			}
			//
			dims = append(dims, p.string(p.expect(IDENTIFIER)))
			//
			if !p.match(COMMA) {
				break
			}
		}
		//
		if !p.match(RSQUARE) {
			return nil, p.syntaxErrors(p.lookahead(), "expected ']'")
		}
	}
	//
	return dims, nil
}

func (p *Parser) parseDvarDecl() (Statement, []source.SyntaxError) {
	p.expect(IDENTIFIER)
	//
	if !p.follows(IDENTIFIER) || !isVarTypeName(p.string(p.lookahead())) {
		return nil, p.syntaxErrors(p.lookahead(), "expected variable type")
	}
	//
	vtype := p.string(p.expect(IDENTIFIER))
	//
	var lo ast.Expr
	// "float+" constrains the variable to be non-negative
	if p.match(ADD) {
		lo = ast.NewConstant(0)
	}
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected variable name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	//
	dims, errs := p.parseDims()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	var hi ast.Expr
	// Optional explicit bounds "in lo..hi"
	if p.matchKeyword("in") {
		lo, errs = p.parseAdditive()
		if len(errs) != 0 {
			return nil, errs
		}
		//
		if !p.match(DOTDOT) {
			return nil, p.syntaxErrors(p.lookahead(), "expected '..'")
		}
		//
		hi, errs = p.parseAdditive()
		if len(errs) != 0 {
			return nil, errs
		}
	}
	//
	return &DvarDecl{Name: name, Type: vtype, Dims: dims, Lo: lo, Hi: hi}, nil
}

func (p *Parser) parseDexprDecl() (Statement, []source.SyntaxError) {
	p.expect(IDENTIFIER)
	//
	if !p.follows(IDENTIFIER) || !isVarTypeName(p.string(p.lookahead())) {
		return nil, p.syntaxErrors(p.lookahead(), "expected expression type")
	}
	//
	dtype := p.string(p.expect(IDENTIFIER))
	//
	if !p.follows(IDENTIFIER) {
		return nil, p.syntaxErrors(p.lookahead(), "expected expression name")
	}
	//
	name := p.string(p.expect(IDENTIFIER))
	//
	indexVar, indexDomain, errs := p.parseFamilyIndex()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	if !p.match(ASSIGN) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '='")
	}
	//
	body, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &DexprDecl{
		Name:        name,
		Type:        dtype,
		IndexVar:    indexVar,
		IndexDomain: indexDomain,
		Body:        body,
	}, nil
}

func (p *Parser) parseObjectiveDecl() (Statement, []source.SyntaxError) {
	maximize := p.followsKeyword("maximize")
	p.expect(IDENTIFIER)
	//
	var name string
	// Optional "name :" label
	if p.lookahead().Kind == IDENTIFIER && p.lookaheadAt(1).Kind == COLON {
		name = p.string(p.expect(IDENTIFIER))
		p.expect(COLON)
	}
	//
	body, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ObjectiveDecl{Maximize: maximize, Name: name, Body: body}, nil
}

func (p *Parser) parseForallDecl() (Statement, []source.SyntaxError) {
	p.expect(IDENTIFIER)
	//
	if !p.match(LBRACE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '('")
	}
	//
	iterators, global, errs := p.parseIterators(RBRACE)
	if len(errs) != 0 {
		return nil, errs
	}
	// A trailing filter attaches to the innermost iterator, which is
	// equivalent to filtering globally.
	if global != nil {
		iterators[len(iterators)-1].Filter = global
	}
	//
	p.expect(RBRACE)
	//
	stmt, errs := p.parseConstraintDecl()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ForallDecl{Iterators: iterators, Constraint: *stmt.(*ConstraintDecl)}, nil
}

// parseIterators parses a comma-separated iterator list, where each iterator
// may carry a ": filter" suffix.  A filter following the last iterator is
// returned separately as the global filter.  The terminating token is left
// unconsumed.
func (p *Parser) parseIterators(terminator uint) ([]Iterator, ast.Expr, []source.SyntaxError) {
	var (
		iterators []Iterator
		global    ast.Expr
	)
	//
	for {
		if !p.follows(IDENTIFIER) {
			return nil, nil, p.syntaxErrors(p.lookahead(), "expected iterator variable")
		}
		//
		variable := p.string(p.expect(IDENTIFIER))
		//
		if !p.matchKeyword("in") {
			return nil, nil, p.syntaxErrors(p.lookahead(), "expected 'in'")
		}
		//
		if !p.follows(IDENTIFIER) {
			return nil, nil, p.syntaxErrors(p.lookahead(), "expected domain name")
		}
		//
		domain := p.string(p.expect(IDENTIFIER))
		//
		var filter ast.Expr
		//
		if p.match(COLON) {
			var errs []source.SyntaxError
			//
			filter, errs = p.parseExpr()
			if len(errs) != 0 {
				return nil, nil, errs
			}
		}
		//
		iterators = append(iterators, Iterator{Var: variable, Domain: domain, Filter: filter})
		//
		if !p.match(COMMA) {
			break
		}
	}
	// The last iterator's filter doubles as the global filter.
	if n := len(iterators) - 1; iterators[n].Filter != nil {
		global = iterators[n].Filter
		iterators[n].Filter = nil
	}
	//
	if !p.follows(terminator) {
		return nil, nil, p.syntaxErrors(p.lookahead(), "malformed iterator list")
	}
	//
	return iterators, global, nil
}

func (p *Parser) parseConstraintDecl() (Statement, []source.SyntaxError) {
	var label string
	// Optional "label :" prefix
	if p.lookahead().Kind == IDENTIFIER && p.lookaheadAt(1).Kind == COLON {
		label = p.string(p.expect(IDENTIFIER))
		p.expect(COLON)
	}
	//
	lhs, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	if !p.follows(RELATIONS...) {
		return nil, p.syntaxErrors(p.lookahead(), "expected relational operator")
	}
	//
	rel, ok := constraintRelation(p.lookahead().Kind)
	if !ok {
		return nil, p.syntaxErrors(p.lookahead(), "operator invalid in a constraint")
	}
	//
	p.expect(p.lookahead().Kind)
	//
	rhs, errs := p.parseAdditive()
	if len(errs) != 0 {
		return nil, errs
	}
	//
	return &ConstraintDecl{Label: label, Lhs: lhs, Rhs: rhs, Relation: rel}, nil
}

func constraintRelation(kind uint) (ast.Relation, bool) {
	switch kind {
	case EQUALS:
		return ast.EQUALS, true
	case LESSTHAN_EQUALS:
		return ast.LESS_EQUALS, true
	case GREATERTHAN_EQUALS:
		return ast.GREATER_EQUALS, true
	case LESSTHAN:
		return ast.LESS, true
	case GREATERTHAN:
		return ast.GREATER, true
	}
	//
	return ast.EQUALS, false
}

func isTypeName(name string) bool {
	switch name {
	case "int", "float", "string":
		return true
	}
	//
	return false
}

func isVarTypeName(name string) bool {
	switch name {
	case "int", "float", "boolean":
		return true
	}
	//
	return false
}
