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
	"testing"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/opl/linear"
	"github.com/consensys/go-opaline/pkg/opl/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Compiler_01(t *testing.T) {
	// one equation per index, coefficient from the indexed parameter
	c := compileModel(t, `
		range I = 1..3;
		float cost[I] = {10, 20, 30};
		dvar float x[I];
		forall(i in I) cap: cost[i]*x[i] <= 100;`)
	//
	require.Len(t, c.Equations(), 3)
	//
	for i, expected := range []float64{10, 20, 30} {
		eq := c.Equations()[i]
		//
		require.Equal(t, 1, eq.Coeffs.Len())
		assert.Equal(t, expected, coeff(t, c, eq, eq.Coeffs.Names()[0]))
		assert.Equal(t, 100.0, constant(t, c, eq))
		assert.Equal(t, ast.LESS_EQUALS, eq.Relation)
	}
	//
	assert.Equal(t, "cap[1]", c.Equations()[0].Name())
	assert.Equal(t, "cap[3]", c.Equations()[2].Name())
}

func Test_Compiler_02(t *testing.T) {
	// summation objective
	c := compileModel(t, `
		range I = 1..2;
		float c[I] = {3, 4};
		dvar float+ x[I];
		minimize obj: sum(i in I) c[i]*x[i];`)
	//
	objective := c.Objective()
	require.NotNil(t, objective)
	//
	assert.Equal(t, linear.MINIMIZE, objective.Sense)
	assert.Equal(t, "obj", objective.Name)
	assert.Equal(t, []string{"x[1]", "x[2]"}, objective.Coeffs.Names())
	assert.Equal(t, 3.0, objCoeff(t, c, objective, "x[1]"))
	assert.Equal(t, 4.0, objCoeff(t, c, objective, "x[2]"))
}

func Test_Compiler_03(t *testing.T) {
	// decision expressions inline at their use site
	c := compileModel(t, `
		range I = 1..2;
		dvar float x[I];
		dexpr float total = sum(i in I) x[i];
		total <= 10;`)
	//
	require.Len(t, c.Equations(), 1)
	//
	eq := c.Equations()[0]
	assert.Equal(t, []string{"x[1]", "x[2]"}, eq.Coeffs.Names())
	assert.Equal(t, 1.0, coeff(t, c, eq, "x[1]"))
	assert.Equal(t, 10.0, constant(t, c, eq))
}

func Test_Compiler_04(t *testing.T) {
	// keyed tuple lookup in a constraint bound
	c := compileModel(t, `
		tuple Arc { key int src; key int dst; float weight; }
		{Arc} Arcs = {<1,2,7.0>, <2,3,4.0>};
		dvar float y;
		cap: y <= item(Arcs, <1,2>).weight;`)
	//
	require.Len(t, c.Equations(), 1)
	//
	eq := c.Equations()[0]
	assert.Equal(t, 1.0, coeff(t, c, eq, "y"))
	assert.Equal(t, 7.0, constant(t, c, eq))
	assert.Equal(t, "cap", eq.Name())
}

func Test_Compiler_05(t *testing.T) {
	// nested quantification with a filter
	c := compileModel(t, `
		range I = 1..2;
		dvar float flow[I][I];
		forall(i in I, j in I : i != j) flow[i][j] <= 1;`)
	//
	require.Len(t, c.Equations(), 2)
	assert.Equal(t, []string{"flow[1][2]"}, c.Equations()[0].Coeffs.Names())
	assert.Equal(t, []string{"flow[2][1]"}, c.Equations()[1].Coeffs.Names())
}

func Test_Compiler_06(t *testing.T) {
	// summing over a tuple set stays symbolic (no textual form) yet still
	// flattens during substitution
	c := compileModel(t, `
		range I = 1..2;
		tuple Arc { key int src; key int dst; float weight; }
		{Arc} Arcs = {<1,2,7.0>, <2,3,4.0>};
		dvar float u[I];
		minimize sum(a in Arcs) a.weight * u[a.src];`)
	//
	objective := c.Objective()
	require.NotNil(t, objective)
	//
	assert.Equal(t, 7.0, objCoeff(t, c, objective, "u[1]"))
	assert.Equal(t, 4.0, objCoeff(t, c, objective, "u[2]"))
}

func Test_Compiler_07(t *testing.T) {
	// indexed decision expression referenced under quantification
	c := compileModel(t, `
		range I = 1..2;
		range J = 1..2;
		dvar float flow[I][J];
		dexpr float load[j in J] = sum(i in I) flow[i][j];
		forall(j in J) cap: load[j] <= 5;`)
	//
	require.Len(t, c.Equations(), 2)
	assert.Equal(t, []string{"flow[1][1]", "flow[2][1]"}, c.Equations()[0].Coeffs.Names())
	assert.Equal(t, []string{"flow[1][2]", "flow[2][2]"}, c.Equations()[1].Coeffs.Names())
}

func Test_Compiler_08(t *testing.T) {
	// scalar parameters evaluate at declaration and fold into bounds
	c := compileModel(t, `
		float c = 2.5;
		float d = c * 2;
		dvar float x;
		x <= d;`)
	//
	eq := c.Equations()[0]
	assert.Equal(t, 5.0, constant(t, c, eq))
}

func Test_Compiler_09(t *testing.T) {
	// set comprehension as a quantification domain
	c := compileModel(t, `
		range I = 1..4;
		{int} Odd = {i | i in I : i != 2 && i != 4};
		dvar float x[I];
		forall(i in Odd) x[i] <= 1;`)
	//
	require.Len(t, c.Equations(), 2)
	assert.Equal(t, []string{"x[1]"}, c.Equations()[0].Coeffs.Names())
	assert.Equal(t, []string{"x[3]"}, c.Equations()[1].Coeffs.Names())
}

func Test_Compiler_10(t *testing.T) {
	// only one objective may be declared
	c := New()
	require.NoError(t, c.CompileModel("dvar float x; minimize x;"))
	//
	assert.Error(t, c.Compile("minimize 2*x"))
}

func Test_Compiler_11(t *testing.T) {
	// a failing forall leaves no partial equations behind, even when earlier
	// iterations already emitted
	c := New()
	require.NoError(t, c.CompileModel(`
		range I = 1..2;
		tuple Arc { key int src; key int dst; float weight; }
		{Arc} Arcs = {<1,2,7.0>};
		dvar float x[I];`))
	//
	err := c.Compile("forall(i in I) x[i] <= item(Arcs, <i, i+1>).weight")
	require.Error(t, err)
	assert.Empty(t, c.Equations())
}

func Test_Compiler_12(t *testing.T) {
	// nonlinear constraints are rejected
	c := New()
	require.NoError(t, c.CompileModel("dvar float x; dvar float y;"))
	//
	err := c.Compile("x * y <= 1")
	assert.True(t, ast.IsKind(err, ast.NonLinearTerm))
}

func Test_Compiler_13(t *testing.T) {
	// CompileModel reports the failing statement
	c := New()
	err := c.CompileModel("range I = 1..3; range I = 2..4;")
	//
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range I = 2..4")
}

func Test_Compiler_14(t *testing.T) {
	c := compileModel(t, `
		range I = 1..3;
		dvar float x[I];
		sum(i in I) x[i] == 1;`)
	//
	require.Len(t, c.Equations(), 1)
	//
	eq := c.Equations()[0]
	assert.Equal(t, []string{"x[1]", "x[2]", "x[3]"}, eq.Coeffs.Names())
	assert.Equal(t, 1.0, coeff(t, c, eq, "x[2]"))
	assert.Equal(t, 1.0, constant(t, c, eq))
	assert.Equal(t, ast.EQUALS, eq.Relation)
}

func Test_Compiler_15(t *testing.T) {
	// the textual and symbolic summation routes agree on the flat equation
	c := compileModel(t, `
		range I = 1..3;
		float cost[I] = {10, 20, 30};
		dvar float x[I];
		sum(i in I) cost[i]*x[i] <= 100;`)
	// re-parse the same constraint without the textual pre-expansion, so the
	// summation survives to substitution as a symbolic node
	stmt, errs := parser.ParseStatement("sum(i in I) cost[i]*x[i] <= 100", c.Registry())
	require.Empty(t, errs)
	require.NoError(t, c.emitConstraint(stmt.(*parser.ConstraintDecl), "", nil))
	//
	textual, symbolic := c.Equations()[0], c.Equations()[1]
	require.Equal(t, textual.Coeffs.Names(), symbolic.Coeffs.Names())
	//
	for _, name := range textual.Coeffs.Names() {
		assert.Equal(t, coeff(t, c, textual, name), coeff(t, c, symbolic, name))
	}
	//
	assert.Equal(t, constant(t, c, textual), constant(t, c, symbolic))
}

func Test_Compiler_16(t *testing.T) {
	// a comprehension whose filter references an enclosing iterator yields
	// different elements for each binding of that iterator
	c := compileModel(t, `
		range I = 1..2;
		range J = 1..2;
		{int} S = {j | j in J : j != i};
		dvar float x[I][J];
		forall(i in I, k in S) x[i][k] <= 1;`)
	//
	require.Len(t, c.Equations(), 2)
	assert.Equal(t, []string{"x[1][2]"}, c.Equations()[0].Coeffs.Names())
	assert.Equal(t, []string{"x[2][1]"}, c.Equations()[1].Coeffs.Names())
}

// ============================================================================
// External data
// ============================================================================

func Test_Data_01(t *testing.T) {
	// scalar data supplied after declaration, consumed by a lazy range
	c := New()
	require.NoError(t, c.CompileModel(`
		int n = ...;
		range I = 1..n;
		dvar float x[I];`))
	//
	require.NoError(t, c.SetScalar("n", ast.IntValue(2)))
	require.NoError(t, c.Compile("forall(i in I) x[i] <= 1"))
	//
	assert.Len(t, c.Equations(), 2)
}

func Test_Data_02(t *testing.T) {
	c := New()
	require.NoError(t, c.CompileModel(`
		range I = 1..2;
		float cost[I] = ...;
		dvar float x[I];`))
	//
	require.NoError(t, c.SetIndexed("cost", []ast.Value{ast.IntValue(1)}, ast.FloatValue(10)))
	require.NoError(t, c.SetIndexed("cost", []ast.Value{ast.IntValue(2)}, ast.FloatValue(20)))
	require.NoError(t, c.Compile("forall(i in I) cost[i]*x[i] <= 100"))
	//
	require.Len(t, c.Equations(), 2)
	assert.Equal(t, 10.0, coeff(t, c, c.Equations()[0], "x[1]"))
	assert.Equal(t, 20.0, coeff(t, c, c.Equations()[1], "x[2]"))
}

func Test_Data_03(t *testing.T) {
	c := New()
	require.NoError(t, c.CompileModel(`
		tuple Arc { key int src; key int dst; float weight; }
		{Arc} Arcs = ...;
		dvar float y;`))
	//
	values := []ast.Value{ast.IntValue(1), ast.IntValue(2), ast.FloatValue(7)}
	require.NoError(t, c.AddTuple("Arcs", values))
	require.NoError(t, c.Compile("y <= item(Arcs, <1,2>).weight"))
	//
	assert.Equal(t, 7.0, constant(t, c, c.Equations()[0]))
}

func Test_Data_04(t *testing.T) {
	c := New()
	//
	assert.Error(t, c.SetScalar("nope", ast.IntValue(1)))
	assert.Error(t, c.SetIndexed("nope", nil, ast.IntValue(1)))
	assert.Error(t, c.AddTuple("nope", nil))
}

// ============================================================================
// Statement splitting
// ============================================================================

func Test_Split_01(t *testing.T) {
	stmts := SplitStatements("a; b; c")
	assert.Equal(t, []string{"a", "b", "c"}, stmts)
}

func Test_Split_02(t *testing.T) {
	stmts := SplitStatements("// leading\nrange I = 1..3; /* mid; dle */ int n = 2;")
	//
	require.Len(t, stmts, 2)
	assert.Equal(t, "range I = 1..3", stmts[0])
	assert.Equal(t, "int n = 2", stmts[1])
}

func Test_Split_03(t *testing.T) {
	// schema-internal semicolons do not terminate the statement
	stmts := SplitStatements("tuple Arc { key int src; float w; } {Arc} Arcs = ...;")
	//
	require.Len(t, stmts, 2)
	assert.Equal(t, "tuple Arc { key int src; float w; }", stmts[0])
}

func Test_Split_04(t *testing.T) {
	stmts := SplitStatements(`{string} S = {"a;b"};`)
	//
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], `"a;b"`)
}

func Test_Split_05(t *testing.T) {
	// a trailing statement without its terminator is kept
	stmts := SplitStatements("a; b")
	assert.Equal(t, []string{"a", "b"}, stmts)
}

// ============================================================================
// Helpers
// ============================================================================

func compileModel(t *testing.T, text string) *Compiler {
	c := New()
	require.NoError(t, c.CompileModel(text))
	//
	return c
}

func coeff(t *testing.T, c *Compiler, eq *linear.Equation, name string) float64 {
	e, ok := eq.Coeffs.Get(name)
	require.True(t, ok, "no coefficient for %s", name)
	//
	return evalFloat(t, c, e)
}

func objCoeff(t *testing.T, c *Compiler, objective *linear.Objective, name string) float64 {
	e, ok := objective.Coeffs.Get(name)
	require.True(t, ok, "no coefficient for %s", name)
	//
	return evalFloat(t, c, e)
}

func constant(t *testing.T, c *Compiler, eq *linear.Equation) float64 {
	return evalFloat(t, c, eq.Constant)
}

func evalFloat(t *testing.T, c *Compiler, e ast.Expr) float64 {
	f, err := ast.EvalFloat(e, c.Scope())
	require.NoError(t, err)
	//
	return f
}
