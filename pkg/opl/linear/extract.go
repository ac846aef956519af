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
package linear

import (
	"math"

	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// Form is the result of term extraction: an expression decomposed into a
// per-variable coefficient map plus a constant, such that the input is
// equivalent to sum(coeffs[v]*v) + constant under every valid environment.
type Form struct {
	// Coeffs maps each decision variable to its coefficient expression.
	Coeffs *CoeffMap
	// Constant is the variable-free remainder.
	Constant ast.Expr
}

// Extract linearizes a fully substituted expression (no iterator variables
// remain; summations are already flattened to addition chains).  Extraction
// carries a running multiplier, initially +1, which both encodes the sign of
// the enclosing context and distributes constant-like factors over sums.
// Any product or quotient in which a decision variable cannot be isolated
// linearly fails with NonLinearTerm: an unclassifiable multiplicative
// sub-expression is never silently evaluated as a constant, since that could
// discard a variable reference inside it.
func Extract(e ast.Expr, env ast.Environment) (*Form, error) {
	x := &extractor{env, NewCoeffMap(), nil, nil}
	//
	if err := x.extract(e, ast.NewConstant(1)); err != nil {
		return nil, err
	}
	//
	return x.finalize()
}

// extractor accumulates coefficients and constant terms during one
// extraction.  The visiting list tracks decision expressions currently being
// inlined, rejecting reference cycles.
type extractor struct {
	env      ast.Environment
	coeffs   *CoeffMap
	constant ast.Expr
	visiting []string
}

func (p *extractor) extract(e ast.Expr, multiplier ast.Expr) error {
	switch e := e.(type) {
	case *ast.VarRef:
		p.coeffs.Add(e.Name, multiplier)
		return nil
	case *ast.IndexedVarRef:
		key, err := ast.VarKey(e.Name, e.Indices)
		if err != nil {
			return err
		}
		//
		p.coeffs.Add(key, multiplier)
		//
		return nil
	case *ast.Constant, *ast.ParamRef, *ast.IndexedParamRef, *ast.FieldAccess, *ast.ItemLookup:
		p.addConstant(mul(multiplier, e))
		return nil
	case *ast.Binary:
		return p.extractBinary(e, multiplier)
	case *ast.Unary:
		return p.extract(e.Arg, neg(multiplier))
	case *ast.Summation:
		// Summations are flattened to addition chains before extraction.
		panic("unflattened summation reached term extraction")
	case *ast.DexprRef:
		return p.extractDexprRef(e, multiplier)
	}
	//
	panic("unknown expression kind")
}

func (p *extractor) extractBinary(e *ast.Binary, multiplier ast.Expr) error {
	switch e.Op {
	case ast.ADD:
		if err := p.extract(e.Lhs, multiplier); err != nil {
			return err
		}
		//
		return p.extract(e.Rhs, multiplier)
	case ast.SUB:
		if err := p.extract(e.Lhs, multiplier); err != nil {
			return err
		}
		//
		return p.extract(e.Rhs, neg(multiplier))
	case ast.MUL:
		return p.extractProduct(e, multiplier)
	case ast.DIV:
		return p.extractQuotient(e, multiplier)
	}
	//
	return ast.Errorf(ast.NonLinearTerm, "operator %s has no linear form", e.Op)
}

// extractProduct classifies each factor as constant-like or
// variable-bearing.  A constant-like factor is folded into the running
// multiplier and distributed over the other side; two variable-bearing
// factors have no linear form.
func (p *extractor) extractProduct(e *ast.Binary, multiplier ast.Expr) error {
	lconst, err := p.constantLike(e.Lhs)
	if err != nil {
		return err
	}
	//
	rconst, err := p.constantLike(e.Rhs)
	if err != nil {
		return err
	}
	//
	switch {
	case lconst && rconst:
		p.addConstant(mul(multiplier, e))
		return nil
	case lconst:
		return p.extract(e.Rhs, mul(multiplier, e.Lhs))
	case rconst:
		return p.extract(e.Lhs, mul(multiplier, e.Rhs))
	}
	//
	return ast.Errorf(ast.NonLinearTerm,
		"product of two variable expressions: %s", ast.Format(e))
}

// extractQuotient admits division of a variable expression by a
// constant-like divisor; a divisor containing a variable has no linear form.
func (p *extractor) extractQuotient(e *ast.Binary, multiplier ast.Expr) error {
	rconst, err := p.constantLike(e.Rhs)
	//
	if err != nil {
		return err
	} else if !rconst {
		return ast.Errorf(ast.NonLinearTerm,
			"division by a variable expression: %s", ast.Format(e))
	}
	//
	lconst, err := p.constantLike(e.Lhs)
	if err != nil {
		return err
	}
	//
	if lconst {
		p.addConstant(mul(multiplier, e))
		return nil
	}
	//
	return p.extract(e.Lhs, &ast.Binary{Op: ast.DIV, Lhs: multiplier, Rhs: e.Rhs})
}

// extractDexprRef inlines a decision expression which is not reducible to a
// constant, carrying the same multiplier; constant-like decision expressions
// accumulate into the constant term symbolically.
func (p *extractor) extractDexprRef(e *ast.DexprRef, multiplier ast.Expr) error {
	dexpr, ok := p.env.Dexpr(e.Name)
	if !ok {
		return ast.Errorf(ast.UnboundName, "unknown decision expression %s", e.Name)
	}
	//
	for _, name := range p.visiting {
		if name == e.Name {
			return ast.Errorf(ast.CyclicDecisionExpression,
				"decision expression %s references itself", e.Name)
		}
	}
	//
	constant, err := p.constantLike(e)
	//
	if err != nil {
		return err
	} else if constant {
		p.addConstant(mul(multiplier, e))
		return nil
	}
	//
	p.visiting = append(p.visiting, e.Name)
	defer func() { p.visiting = p.visiting[:len(p.visiting)-1] }()
	// Substitute the index binding (if any) into the body, flattening any
	// summations, then extract the result in place of the reference.
	body, err := p.inlineBody(dexpr, e.Index)
	if err != nil {
		return err
	}
	//
	return p.extract(body, multiplier)
}

func (p *extractor) inlineBody(dexpr *ast.Dexpr, index ast.Expr) (ast.Expr, error) {
	switch {
	case dexpr.IndexVar == "" && index == nil:
		return ast.Substitute(dexpr.Body, p.env)
	case dexpr.IndexVar == "":
		return nil, ast.Errorf(ast.DimensionMismatch, "decision expression %s is not indexed", dexpr.Name)
	case index == nil:
		return nil, ast.Errorf(ast.DimensionMismatch, "decision expression %s requires an index", dexpr.Name)
	}
	//
	value, err := ast.Eval(index, p.env)
	if err != nil {
		return nil, err
	}
	//
	release := p.env.Bind(dexpr.IndexVar, value)
	defer release()
	//
	return ast.Substitute(dexpr.Body, p.env)
}

// constantLike determines whether an expression folds to a value with no
// decision-variable dependency, looking through decision-expression bodies.
// A reference cycle is reported rather than recursed into.
func (p *extractor) constantLike(e ast.Expr) (bool, error) {
	return p.constantLikeWith(e, nil)
}

func (p *extractor) constantLikeWith(e ast.Expr, visiting []string) (bool, error) {
	switch e := e.(type) {
	case *ast.VarRef, *ast.IndexedVarRef:
		return false, nil
	case *ast.Binary:
		l, err := p.constantLikeWith(e.Lhs, visiting)
		if err != nil || !l {
			return false, err
		}
		//
		return p.constantLikeWith(e.Rhs, visiting)
	case *ast.Unary:
		return p.constantLikeWith(e.Arg, visiting)
	case *ast.Summation:
		return p.constantLikeWith(e.Body, visiting)
	case *ast.DexprRef:
		for _, name := range visiting {
			if name == e.Name {
				return false, ast.Errorf(ast.CyclicDecisionExpression,
					"decision expression %s references itself", e.Name)
			}
		}
		//
		dexpr, ok := p.env.Dexpr(e.Name)
		if !ok {
			return false, ast.Errorf(ast.UnboundName, "unknown decision expression %s", e.Name)
		}
		//
		return p.constantLikeWith(dexpr.Body, append(visiting, e.Name))
	}
	// Constants, parameters, field accesses and item lookups never contain
	// decision variables.
	return true, nil
}

func (p *extractor) addConstant(e ast.Expr) {
	if p.constant == nil {
		p.constant = e
	} else {
		p.constant = &ast.Binary{Op: ast.ADD, Lhs: p.constant, Rhs: e}
	}
}

// finalize simplifies all accumulated expressions, folds those which are
// already evaluable, and enforces the zero-coefficient invariant.
func (p *extractor) finalize() (*Form, error) {
	if p.constant == nil {
		p.constant = ast.NewConstant(0)
	}
	//
	constant := fold(ast.Simplify(p.constant), p.env)
	// Enforce canonical minimality: no zero coefficients survive.
	for _, name := range append([]string(nil), p.coeffs.Names()...) {
		coeff, _ := p.coeffs.Get(name)
		coeff = fold(ast.Simplify(coeff), p.env)
		//
		if f, ok := asNumber(coeff); ok && math.Abs(f) <= ast.Epsilon {
			p.coeffs.Remove(name)
		} else {
			p.coeffs.Set(name, coeff)
		}
	}
	//
	return &Form{p.coeffs, constant}, nil
}

func asNumber(e ast.Expr) (float64, bool) {
	if c, ok := e.(*ast.Constant); ok && c.Value.IsNumeric() {
		f, _ := c.Value.Float()
		return f, true
	}
	//
	return 0, false
}

func mul(lhs ast.Expr, rhs ast.Expr) ast.Expr {
	return &ast.Binary{Op: ast.MUL, Lhs: lhs, Rhs: rhs}
}

func neg(e ast.Expr) ast.Expr {
	return &ast.Unary{Arg: e}
}
