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
	"fmt"
	"strings"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/opl/expand"
	"github.com/consensys/go-opaline/pkg/opl/linear"
	"github.com/consensys/go-opaline/pkg/opl/model"
	"github.com/consensys/go-opaline/pkg/opl/parser"
	"github.com/consensys/go-opaline/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Compiler turns model statements into a flat list of linear equations plus
// one objective.  One compiler instance compiles one model, synchronously,
// statement by statement.
type Compiler struct {
	registry *model.Registry
	scope    *model.Scope
	// Equations accumulated so far, in emission order.
	equations []*linear.Equation
	// Objective (nil until declared).
	objective *linear.Objective
}

// New constructs a compiler over an empty registry.
func New() *Compiler {
	registry := model.NewRegistry()
	//
	return &Compiler{
		registry: registry,
		scope:    model.NewScope(registry),
	}
}

// Registry returns the underlying registry.
func (p *Compiler) Registry() *model.Registry {
	return p.registry
}

// Scope returns the binding environment this compiler expands under.
func (p *Compiler) Scope() *model.Scope {
	return p.scope
}

// Equations returns all equations emitted so far, in emission order.
func (p *Compiler) Equations() []*linear.Equation {
	return p.equations
}

// Objective returns the declared objective (nil until declared).
func (p *Compiler) Objective() *linear.Objective {
	return p.objective
}

// CompileModel splits a complete model text into statements and compiles them
// in order, failing on the first erroneous statement.
func (p *Compiler) CompileModel(text string) error {
	for _, stmt := range SplitStatements(text) {
		if err := p.Compile(stmt); err != nil {
			return fmt.Errorf("%q: %w", stmt, err)
		}
	}
	//
	return nil
}

// Compile parses and compiles a single statement, either updating the
// registry (declarations) or emitting equations (constraints, forall,
// objective).  A failing statement leaves no partial equations behind.
func (p *Compiler) Compile(stmt string) error {
	parsed, errs := p.parse(stmt)
	if len(errs) != 0 {
		return fmt.Errorf("syntax error: %s", errs[0].Message())
	}
	//
	log.Debugf("compiling %T", parsed)
	//
	switch s := parsed.(type) {
	case *parser.RangeDecl:
		return p.compileRange(s)
	case *parser.PrimitiveSetDecl:
		return p.compilePrimitiveSet(s)
	case *parser.ComputedSetDecl:
		return p.compileComputedSet(s)
	case *parser.TupleSchemaDecl:
		return p.compileSchema(s)
	case *parser.TupleSetDecl:
		return p.compileTupleSet(s)
	case *parser.ParamDecl:
		return p.compileParam(s)
	case *parser.DvarDecl:
		return p.compileDvar(s)
	case *parser.DexprDecl:
		return p.compileDexpr(s)
	case *parser.ObjectiveDecl:
		return p.compileObjective(s)
	case *parser.ConstraintDecl:
		return p.emitConstraint(s, "", nil)
	case *parser.ForallDecl:
		return p.compileForall(s)
	}
	//
	panic("unknown statement kind")
}

// parse runs the textual summation pre-expansion where possible before
// handing the statement text to the parser.  Decision-expression bodies keep
// their summations symbolic, since they are re-expanded at every reference;
// any domain without a textual element form (tuple sets, unresolved families)
// falls back to the symbolic summation node.  Both routes must agree on the
// resulting model.
func (p *Compiler) parse(stmt string) (parser.Statement, []source.SyntaxError) {
	text := stmt
	//
	if !strings.HasPrefix(strings.TrimSpace(stmt), "dexpr") && strings.Contains(stmt, "sum") {
		if expanded, err := parser.ExpandSums(stmt, p.domainText); err == nil {
			text = expanded
		} else {
			log.Debugf("textual expansion failed (%v), keeping summation symbolic", err)
		}
	}
	//
	return parser.ParseStatement(text, p.registry)
}

// domainText renders a domain's elements in splice-ready textual form.
func (p *Compiler) domainText(name string) ([]string, error) {
	elements, err := p.registry.Resolve(name, p.scope)
	if err != nil {
		return nil, err
	}
	//
	texts := make([]string, len(elements))
	//
	for i, v := range elements {
		if v.Kind() == ast.TUPLE_VALUE {
			return nil, ast.Errorf(ast.TypeCoercionFailed,
				"elements of tuple set %s have no textual form", name)
		}
		// String values splice as quoted literals.
		texts[i] = v.String()
	}
	//
	return texts, nil
}

// ============================================================================
// Declarations
// ============================================================================

func (p *Compiler) compileRange(s *parser.RangeDecl) error {
	lo, hi := ast.Simplify(s.Lo), ast.Simplify(s.Hi)
	// Literal bounds declare a fixed index set; anything else stays lazy.
	if l, lok := constInt(lo); lok {
		if h, hok := constInt(hi); hok {
			return p.registry.DeclareIndexSet(model.NewIndexSet(s.Name, l, h))
		}
	}
	//
	return p.registry.DeclareRange(model.NewBoundRange(s.Name, lo, hi))
}

func (p *Compiler) compilePrimitiveSet(s *parser.PrimitiveSetDecl) error {
	elements := make([]ast.Value, len(s.Elements))
	//
	for i, e := range s.Elements {
		v, err := ast.Eval(e, p.scope)
		if err != nil {
			return err
		}
		//
		if s.ElemType == "int" && v.IsNumeric() {
			n, _ := v.Int()
			v = ast.IntValue(n)
		}
		//
		elements[i] = v
	}
	//
	return p.registry.DeclarePrimitiveSet(model.NewPrimitiveSet(s.Name, elements))
}

func (p *Compiler) compileComputedSet(s *parser.ComputedSetDecl) error {
	iterators := convertIterators(s.Iterators)
	//
	var set *model.ComputedSet
	//
	if s.OuterVar != "" {
		set = model.NewComputedSetFamily(s.Name, s.OuterVar, s.OuterDomain, iterators, s.Filter, s.Output)
	} else {
		set = model.NewComputedSet(s.Name, iterators, s.Filter, s.Output)
	}
	//
	return p.registry.DeclareComputedSet(set)
}

func (p *Compiler) compileSchema(s *parser.TupleSchemaDecl) error {
	fields := make([]model.Field, len(s.Fields))
	//
	for i, f := range s.Fields {
		fields[i] = model.Field{Name: f.Name, Type: fieldType(f.Type), Key: f.Key}
	}
	//
	schema, err := model.NewTupleSchema(s.Name, fields)
	if err != nil {
		return err
	}
	//
	return p.registry.DeclareSchema(schema)
}

func (p *Compiler) compileTupleSet(s *parser.TupleSetDecl) error {
	schema, ok := p.registry.Schema(s.Schema)
	if !ok {
		return ast.Errorf(ast.DomainNotFound, "unknown tuple type %s", s.Schema)
	}
	//
	set := model.NewTupleSet(s.Name, schema, s.External)
	//
	for _, row := range s.Rows {
		values := make([]ast.Value, len(row))
		//
		for i, e := range row {
			v, err := ast.Eval(e, p.scope)
			if err != nil {
				return err
			}
			//
			values[i] = v
		}
		//
		if err := set.Add(values); err != nil {
			return err
		}
	}
	//
	return p.registry.DeclareTupleSet(set)
}

func (p *Compiler) compileParam(s *parser.ParamDecl) error {
	param := model.NewParameter(s.Name, paramType(s.Type), s.Dims, s.External)
	//
	if s.Scalar != nil {
		v, err := ast.Eval(s.Scalar, p.scope)
		if err != nil {
			return err
		}
		//
		if err := param.SetScalar(v); err != nil {
			return err
		}
	}
	//
	if s.Values != nil {
		if len(s.Dims) != 1 {
			return ast.Errorf(ast.DimensionMismatch,
				"inline values for %s require exactly one indexing domain", s.Name)
		}
		//
		elements, err := p.registry.Resolve(s.Dims[0], p.scope)
		//
		if err != nil {
			return err
		} else if len(elements) != len(s.Values) {
			return ast.Errorf(ast.DimensionMismatch,
				"%s has %d values for %d elements of %s", s.Name, len(s.Values), len(elements), s.Dims[0])
		}
		// Inline values assign to the domain's elements in order.
		for i, e := range s.Values {
			v, err := ast.Eval(e, p.scope)
			if err != nil {
				return err
			}
			//
			if err := param.SetIndexed([]ast.Value{elements[i]}, v); err != nil {
				return err
			}
		}
	}
	//
	return p.registry.DeclareParameter(param)
}

func (p *Compiler) compileDvar(s *parser.DvarDecl) error {
	if len(s.Dims) > 2 {
		return ast.Errorf(ast.DimensionMismatch,
			"variable %s declares %d dimensions (at most two are supported)", s.Name, len(s.Dims))
	}
	//
	return p.registry.DeclareVariable(
		model.NewIndexedVariable(s.Name, varKind(s.Type), s.Dims, s.Lo, s.Hi))
}

func (p *Compiler) compileDexpr(s *parser.DexprDecl) error {
	return p.registry.DeclareDexpr(
		model.NewDecisionExpression(s.Name, varKind(s.Type), s.IndexVar, s.IndexDomain, s.Body))
}

// ============================================================================
// Constraints & objective
// ============================================================================

func (p *Compiler) compileObjective(s *parser.ObjectiveDecl) error {
	if p.objective != nil {
		return fmt.Errorf("objective already declared")
	}
	//
	sense := linear.MINIMIZE
	if s.Maximize {
		sense = linear.MAXIMIZE
	}
	//
	body, err := ast.Substitute(s.Body, p.scope)
	if err != nil {
		return err
	}
	//
	objective, err := linear.FromObjective(body, sense, s.Name, p.scope)
	if err != nil {
		return err
	}
	//
	p.objective = objective
	//
	return nil
}

// emitConstraint substitutes, linearizes and records one concrete constraint
// under the current bindings.
func (p *Compiler) emitConstraint(s *parser.ConstraintDecl, baseName string, indices []ast.Value) error {
	lhs, err := ast.Substitute(s.Lhs, p.scope)
	if err != nil {
		return err
	}
	//
	rhs, err := ast.Substitute(s.Rhs, p.scope)
	if err != nil {
		return err
	}
	//
	equation, err := linear.FromConstraint(lhs, rhs, s.Relation, p.scope)
	if err != nil {
		return err
	}
	//
	equation.Label = s.Label
	equation.BaseName = baseName
	equation.Indices = indices
	//
	p.equations = append(p.equations, equation)
	//
	return nil
}

// compileForall expands a quantified constraint into one equation per index
// combination satisfying all filters.  On failure no equation of this
// statement is retained.
func (p *Compiler) compileForall(s *parser.ForallDecl) error {
	var (
		iterators = convertIterators(s.Iterators)
		mark      = len(p.equations)
		count     = 0
	)
	//
	err := expand.Enumerate(p.scope, iterators, nil, func() error {
		indices := make([]ast.Value, len(iterators))
		//
		for i, it := range iterators {
			indices[i], _ = p.scope.Bound(it.Var)
		}
		//
		count++
		//
		return p.emitConstraint(&s.Constraint, s.Constraint.Label, indices)
	})
	//
	if err != nil {
		p.equations = p.equations[:mark]
		return err
	}
	//
	log.Debugf("forall expanded into %d equations", count)
	//
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func convertIterators(iterators []parser.Iterator) []expand.Iterator {
	converted := make([]expand.Iterator, len(iterators))
	//
	for i, it := range iterators {
		converted[i] = expand.Iterator{Var: it.Var, Domain: it.Domain, Filter: it.Filter}
	}
	//
	return converted
}

func constInt(e ast.Expr) (int, bool) {
	if c, ok := e.(*ast.Constant); ok && c.Value.IsNumeric() {
		n, _ := c.Value.Int()
		return n, true
	}
	//
	return 0, false
}

func fieldType(name string) model.FieldType {
	switch name {
	case "int":
		return model.INT_FIELD
	case "float":
		return model.FLOAT_FIELD
	}
	//
	return model.STRING_FIELD
}

func paramType(name string) model.ParamType {
	switch name {
	case "int":
		return model.INT_PARAM
	case "float":
		return model.FLOAT_PARAM
	case "string":
		return model.STRING_PARAM
	}
	//
	return model.BOOL_PARAM
}

func varKind(name string) model.VarKind {
	switch name {
	case "int":
		return model.INT_VAR
	case "boolean":
		return model.BOOL_VAR
	}
	//
	return model.FLOAT_VAR
}
