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
package linear_test

import (
	"math"
	"testing"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/opl/linear"
	"github.com/consensys/go-opaline/pkg/opl/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Extract_01(t *testing.T) {
	// single variable: x
	form := extract(t, x())
	//
	checkCoeff(t, form, "x", 1)
	checkConstant(t, form, 0)
}

func Test_Extract_02(t *testing.T) {
	// 3*x
	form := extract(t, mul(num(3), x()))
	checkCoeff(t, form, "x", 3)
}

func Test_Extract_03(t *testing.T) {
	// x*3 (commuted)
	form := extract(t, mul(x(), num(3)))
	checkCoeff(t, form, "x", 3)
}

func Test_Extract_04(t *testing.T) {
	// x + x accumulates
	form := extract(t, add(x(), x()))
	checkCoeff(t, form, "x", 2)
}

func Test_Extract_05(t *testing.T) {
	// x - y, constant 5
	form := extract(t, sub(add(x(), num(5)), y()))
	//
	checkCoeff(t, form, "x", 1)
	checkCoeff(t, form, "y", -1)
	checkConstant(t, form, 5)
}

func Test_Extract_06(t *testing.T) {
	// negation distributes: -(x + 2*y)
	form := extract(t, neg(add(x(), mul(num(2), y()))))
	//
	checkCoeff(t, form, "x", -1)
	checkCoeff(t, form, "y", -2)
}

func Test_Extract_07(t *testing.T) {
	// a leading coefficient distributes over a parenthesized sum: 2*(x + y + 1)
	form := extract(t, mul(num(2), add(add(x(), y()), num(1))))
	//
	checkCoeff(t, form, "x", 2)
	checkCoeff(t, form, "y", 2)
	checkConstant(t, form, 2)
}

func Test_Extract_08(t *testing.T) {
	// nested distribution: 2*(3*(x + 1))
	form := extract(t, mul(num(2), mul(num(3), add(x(), num(1)))))
	//
	checkCoeff(t, form, "x", 6)
	checkConstant(t, form, 6)
}

func Test_Extract_09(t *testing.T) {
	// division by a constant: x / 4
	form := extract(t, div(x(), num(4)))
	checkCoeff(t, form, "x", 0.25)
}

func Test_Extract_10(t *testing.T) {
	// indexed variables key by concrete instance
	e := add(
		mul(num(2), xi(1)),
		mul(num(3), xi(2)))
	//
	form := extract(t, e)
	checkCoeff(t, form, "x[1]", 2)
	checkCoeff(t, form, "x[2]", 3)
}

func Test_Extract_11(t *testing.T) {
	// x - x cancels entirely: no zero coefficient survives
	form := extract(t, sub(x(), x()))
	assert.Equal(t, 0, form.Coeffs.Len())
}

func Test_Extract_12(t *testing.T) {
	// 2*x - 2*x cancels likewise
	form := extract(t, sub(mul(num(2), x()), mul(num(2), x())))
	assert.Equal(t, 0, form.Coeffs.Len())
}

func Test_Extract_13(t *testing.T) {
	// unpopulated parameters stay symbolic in the coefficient
	env := testEnv(t)
	//
	e := mul(&ast.ParamRef{Name: "price"}, x())
	form, err := linear.Extract(e, env)
	require.NoError(t, err)
	//
	coeff, ok := form.Coeffs.Get("x")
	require.True(t, ok)
	assert.Contains(t, ast.Format(coeff), "price")
}

// Non-affine structure is rejected, never approximated.

func Test_Extract_20(t *testing.T) {
	// x * y
	checkNonLinear(t, mul(x(), y()))
}

func Test_Extract_21(t *testing.T) {
	// x * x
	checkNonLinear(t, mul(x(), x()))
}

func Test_Extract_22(t *testing.T) {
	// (x + 1) * (y + 1)
	checkNonLinear(t, mul(add(x(), num(1)), add(y(), num(1))))
}

func Test_Extract_23(t *testing.T) {
	// 1 / x
	checkNonLinear(t, div(num(1), x()))
}

func Test_Extract_24(t *testing.T) {
	// x / y
	checkNonLinear(t, div(x(), y()))
}

// Decision expressions inline with their multiplier.

func Test_Extract_30(t *testing.T) {
	env := testEnv(t)
	env.Registry().DeclareDexpr(model.NewDecisionExpression(
		"total", model.FLOAT_VAR, "", "", add(x(), y())))
	//
	form, err := linear.Extract(mul(num(2), &ast.DexprRef{Name: "total"}), env)
	require.NoError(t, err)
	//
	checkCoeff(t, form, "x", 2)
	checkCoeff(t, form, "y", 2)
}

func Test_Extract_31(t *testing.T) {
	// cyclic decision expressions fail fatally
	env := testEnv(t)
	env.Registry().DeclareDexpr(model.NewDecisionExpression(
		"a", model.FLOAT_VAR, "", "", &ast.DexprRef{Name: "b"}))
	env.Registry().DeclareDexpr(model.NewDecisionExpression(
		"b", model.FLOAT_VAR, "", "", &ast.DexprRef{Name: "a"}))
	//
	_, err := linear.Extract(&ast.DexprRef{Name: "a"}, env)
	assert.True(t, ast.IsKind(err, ast.CyclicDecisionExpression))
}

// Extraction agrees with direct evaluation on affine expressions: assigning
// test values to all variables, coeffs·values + constant must equal the
// expression evaluated with those assignments substituted in.
func Test_Extract_Affine(t *testing.T) {
	exprs := []ast.Expr{
		add(mul(num(2), x()), num(3)),
		sub(mul(num(5), x()), mul(num(2), y())),
		mul(num(2), add(x(), add(y(), num(4)))),
		neg(sub(div(x(), num(2)), num(1))),
		add(add(x(), x()), sub(y(), x())),
	}
	//
	assignment := map[string]float64{"x": 1.5, "y": -2.0}
	//
	for _, e := range exprs {
		form := extract(t, e)
		// reconstruct via the extracted form
		reconstructed := evalConstant(t, form.Constant)
		//
		for _, name := range form.Coeffs.Names() {
			coeff, _ := form.Coeffs.Get(name)
			reconstructed += evalConstant(t, coeff) * assignment[name]
		}
		// evaluate directly with variables replaced by their values
		direct := evalConstant(t, replaceVars(e, assignment))
		//
		if math.Abs(reconstructed-direct) > ast.Epsilon {
			t.Errorf("extraction of %s disagrees with evaluation: %f vs %f",
				ast.Format(e), reconstructed, direct)
		}
	}
}

// ============================================================================
// Equations
// ============================================================================

func Test_Constraint_01(t *testing.T) {
	// 2*x + 3 <= 10 normalizes to 2*x <= 7
	env := testEnv(t)
	//
	eq, err := linear.FromConstraint(
		add(mul(num(2), x()), num(3)), num(10), ast.LESS_EQUALS, env)
	require.NoError(t, err)
	//
	coeff, _ := eq.Coeffs.Get("x")
	assert.Equal(t, 2.0, evalConstant(t, coeff))
	assert.Equal(t, 7.0, evalConstant(t, eq.Constant))
	assert.Equal(t, ast.LESS_EQUALS, eq.Relation)
}

func Test_Constraint_02(t *testing.T) {
	// variables on both sides gather left: x >= y - 1  ==>  x - y >= -1
	env := testEnv(t)
	//
	eq, err := linear.FromConstraint(x(), sub(y(), num(1)), ast.GREATER_EQUALS, env)
	require.NoError(t, err)
	//
	cx, _ := eq.Coeffs.Get("x")
	cy, _ := eq.Coeffs.Get("y")
	assert.Equal(t, 1.0, evalConstant(t, cx))
	assert.Equal(t, -1.0, evalConstant(t, cy))
	assert.Equal(t, -1.0, evalConstant(t, eq.Constant))
}

func Test_Constraint_03(t *testing.T) {
	eq := &linear.Equation{
		BaseName: "cap",
		Indices:  []ast.Value{ast.IntValue(1), ast.IntValue(2)},
		Coeffs:   linear.NewCoeffMap(),
		Constant: num(0),
		Relation: ast.EQUALS,
	}
	//
	assert.Equal(t, "cap[1][2]", eq.Name())
}

func Test_Objective_01(t *testing.T) {
	env := testEnv(t)
	//
	objective, err := linear.FromObjective(
		add(mul(num(3), x()), mul(num(4), y())), linear.MINIMIZE, "cost", env)
	require.NoError(t, err)
	//
	cx, _ := objective.Coeffs.Get("x")
	assert.Equal(t, 3.0, evalConstant(t, cx))
	assert.Equal(t, "minimize", objective.Sense.String())
}

// ============================================================================
// Helpers
// ============================================================================

func testEnv(t *testing.T) *model.Scope {
	registry := model.NewRegistry()
	//
	require.NoError(t, registry.DeclareVariable(
		model.NewIndexedVariable("x", model.FLOAT_VAR, nil, nil, nil)))
	require.NoError(t, registry.DeclareVariable(
		model.NewIndexedVariable("y", model.FLOAT_VAR, nil, nil, nil)))
	require.NoError(t, registry.DeclareParameter(
		model.NewParameter("price", model.FLOAT_PARAM, nil, true)))
	//
	return model.NewScope(registry)
}

func extract(t *testing.T, e ast.Expr) *linear.Form {
	form, err := linear.Extract(e, testEnv(t))
	require.NoError(t, err)
	//
	return form
}

func checkCoeff(t *testing.T, form *linear.Form, name string, expected float64) {
	coeff, ok := form.Coeffs.Get(name)
	//
	if !ok {
		t.Fatalf("no coefficient for %s", name)
	}
	//
	if actual := evalConstant(t, coeff); math.Abs(actual-expected) > ast.Epsilon {
		t.Errorf("coefficient of %s: got %f, expected %f", name, actual, expected)
	}
}

func checkConstant(t *testing.T, form *linear.Form, expected float64) {
	if actual := evalConstant(t, form.Constant); math.Abs(actual-expected) > ast.Epsilon {
		t.Errorf("constant: got %f, expected %f", actual, expected)
	}
}

func checkNonLinear(t *testing.T, e ast.Expr) {
	_, err := linear.Extract(e, testEnv(t))
	//
	if !ast.IsKind(err, ast.NonLinearTerm) {
		t.Errorf("extracting %s: expected a non-linear failure, got %v", ast.Format(e), err)
	}
}

func evalConstant(t *testing.T, e ast.Expr) float64 {
	registry := model.NewRegistry()
	//
	f, err := ast.EvalFloat(e, model.NewScope(registry))
	require.NoError(t, err)
	//
	return f
}

// replaceVars substitutes concrete numbers for variable references, for
// cross-checking extraction against evaluation.
func replaceVars(e ast.Expr, assignment map[string]float64) ast.Expr {
	switch e := e.(type) {
	case *ast.VarRef:
		return num(assignment[e.Name])
	case *ast.Binary:
		return &ast.Binary{Op: e.Op, Lhs: replaceVars(e.Lhs, assignment), Rhs: replaceVars(e.Rhs, assignment)}
	case *ast.Unary:
		return &ast.Unary{Arg: replaceVars(e.Arg, assignment)}
	}
	//
	return e
}

func x() ast.Expr {
	return &ast.VarRef{Name: "x"}
}

func y() ast.Expr {
	return &ast.VarRef{Name: "y"}
}

func xi(i int) ast.Expr {
	return &ast.IndexedVarRef{Name: "x", Indices: []ast.Expr{num(float64(i))}}
}

func num(f float64) ast.Expr {
	return ast.NewConstant(f)
}

func add(l ast.Expr, r ast.Expr) ast.Expr {
	return &ast.Binary{Op: ast.ADD, Lhs: l, Rhs: r}
}

func sub(l ast.Expr, r ast.Expr) ast.Expr {
	return &ast.Binary{Op: ast.SUB, Lhs: l, Rhs: r}
}

func mul(l ast.Expr, r ast.Expr) ast.Expr {
	return &ast.Binary{Op: ast.MUL, Lhs: l, Rhs: r}
}

func div(l ast.Expr, r ast.Expr) ast.Expr {
	return &ast.Binary{Op: ast.DIV, Lhs: l, Rhs: r}
}

func neg(e ast.Expr) ast.Expr {
	return &ast.Unary{Arg: e}
}
