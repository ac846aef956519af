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
package model

import (
	"testing"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/opl/expand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Domains & registry
// ============================================================================

func Test_Registry_01(t *testing.T) {
	scope := testScope(t)
	//
	elements, err := scope.Elements("I")
	require.NoError(t, err)
	assert.Equal(t, keys(elements), []string{"1", "2", "3"})
}

func Test_Registry_02(t *testing.T) {
	scope := testScope(t)
	//
	_, err := scope.Elements("nowhere")
	assert.True(t, ast.IsKind(err, ast.DomainNotFound))
}

func Test_Registry_03(t *testing.T) {
	// redeclaration is rejected across all variants
	registry := NewRegistry()
	require.NoError(t, registry.DeclareIndexSet(NewIndexSet("I", 1, 3)))
	//
	assert.Error(t, registry.DeclareIndexSet(NewIndexSet("I", 1, 5)))
	assert.Error(t, registry.DeclarePrimitiveSet(NewPrimitiveSet("I", nil)))
	assert.Error(t, registry.DeclareParameter(NewParameter("I", INT_PARAM, nil, false)))
}

func Test_Registry_04(t *testing.T) {
	// primitive sets preserve insertion order
	scope := testScope(t)
	//
	elements, err := scope.Elements("Cities")
	require.NoError(t, err)
	assert.Equal(t, []string{"paris", "lyon", "nice"}, keys(elements))
}

func Test_BoundRange_01(t *testing.T) {
	// bounds evaluate lazily against parameter values
	registry := NewRegistry()
	scope := NewScope(registry)
	//
	n := NewParameter("n", INT_PARAM, nil, true)
	require.NoError(t, registry.DeclareParameter(n))
	require.NoError(t, registry.DeclareRange(NewBoundRange("R",
		ast.NewConstant(1), &ast.ParamRef{Name: "n"})))
	// unpopulated: resolution fails
	_, err := scope.Elements("R")
	require.Error(t, err)
	// populate and retry
	require.NoError(t, n.SetScalar(ast.IntValue(3)))
	//
	elements, err := scope.Elements("R")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, keys(elements))
}

func Test_BoundRange_02(t *testing.T) {
	// cached bounds survive a parameter change until invalidated
	registry := NewRegistry()
	scope := NewScope(registry)
	//
	n := NewParameter("n", INT_PARAM, nil, true)
	require.NoError(t, n.SetScalar(ast.IntValue(2)))
	require.NoError(t, registry.DeclareParameter(n))
	require.NoError(t, registry.DeclareRange(NewBoundRange("R",
		ast.NewConstant(1), &ast.ParamRef{Name: "n"})))
	//
	elements, err := scope.Elements("R")
	require.NoError(t, err)
	assert.Len(t, elements, 2)
	//
	require.NoError(t, n.SetScalar(ast.IntValue(4)))
	// still cached
	elements, err = scope.Elements("R")
	require.NoError(t, err)
	assert.Len(t, elements, 2)
	//
	registry.Invalidate()
	//
	elements, err = scope.Elements("R")
	require.NoError(t, err)
	assert.Len(t, elements, 4)
}

// ============================================================================
// Tuple sets
// ============================================================================

func Test_TupleSet_01(t *testing.T) {
	scope := testScope(t)
	//
	tuple, err := scope.ItemByKey("Arcs", []ast.Value{ast.IntValue(1), ast.IntValue(2)})
	require.NoError(t, err)
	//
	weight, ok := tuple.Field("weight")
	require.True(t, ok)
	assert.Equal(t, "7", weight.Key())
}

func Test_TupleSet_02(t *testing.T) {
	scope := testScope(t)
	//
	_, err := scope.ItemByKey("Arcs", []ast.Value{ast.IntValue(9), ast.IntValue(9)})
	assert.True(t, ast.IsKind(err, ast.KeyLookupFailed))
}

func Test_TupleSet_03(t *testing.T) {
	// key arity must match the schema's key fields
	scope := testScope(t)
	//
	_, err := scope.ItemByKey("Arcs", []ast.Value{ast.IntValue(1)})
	assert.True(t, ast.IsKind(err, ast.DimensionMismatch))
}

func Test_TupleSet_04(t *testing.T) {
	// ambiguous keys resolve to the first instance in insertion order
	schema, err := NewTupleSchema("Pair", []Field{
		{Name: "id", Type: INT_FIELD, Key: true},
		{Name: "v", Type: INT_FIELD},
	})
	require.NoError(t, err)
	//
	set := NewTupleSet("Pairs", schema, false)
	require.NoError(t, set.Add([]ast.Value{ast.IntValue(1), ast.IntValue(10)}))
	require.NoError(t, set.Add([]ast.Value{ast.IntValue(1), ast.IntValue(20)}))
	//
	tuple, err := set.ItemByKey([]ast.Value{ast.IntValue(1)})
	require.NoError(t, err)
	//
	v, _ := tuple.Field("v")
	assert.Equal(t, "10", v.Key())
}

func Test_TupleSet_05(t *testing.T) {
	// numeric keys match within the equality tolerance
	scope := testScope(t)
	//
	tuple, err := scope.ItemByKey("Arcs", []ast.Value{ast.FloatValue(1.0), ast.FloatValue(2.0)})
	require.NoError(t, err)
	assert.Equal(t, "Arc", tuple.Schema())
}

func Test_TupleSchema_01(t *testing.T) {
	_, err := NewTupleSchema("Bad", []Field{
		{Name: "x", Type: INT_FIELD},
		{Name: "x", Type: FLOAT_FIELD},
	})
	//
	assert.Error(t, err)
}

// ============================================================================
// Parameters
// ============================================================================

func Test_Parameter_01(t *testing.T) {
	p := NewParameter("c", FLOAT_PARAM, nil, false)
	assert.False(t, p.HasValue())
	//
	require.NoError(t, p.SetScalar(ast.FloatValue(2.5)))
	assert.True(t, p.HasValue())
	//
	v, err := p.Value(nil)
	require.NoError(t, err)
	assert.Equal(t, "2.5", v.Key())
}

func Test_Parameter_02(t *testing.T) {
	// indexed access on a scalar is a dimension mismatch
	p := NewParameter("c", FLOAT_PARAM, nil, false)
	require.NoError(t, p.SetScalar(ast.FloatValue(1)))
	//
	_, err := p.Value([]ast.Value{ast.IntValue(1)})
	assert.True(t, ast.IsKind(err, ast.DimensionMismatch))
}

func Test_Parameter_03(t *testing.T) {
	// scalar access on an indexed parameter
	p := NewParameter("cost", FLOAT_PARAM, []string{"I"}, false)
	require.NoError(t, p.SetIndexed([]ast.Value{ast.IntValue(1)}, ast.FloatValue(10)))
	//
	_, err := p.Value(nil)
	assert.True(t, ast.IsKind(err, ast.NonScalarParameter))
}

func Test_Parameter_04(t *testing.T) {
	// missing entry
	p := NewParameter("cost", FLOAT_PARAM, []string{"I"}, true)
	//
	_, err := p.Value([]ast.Value{ast.IntValue(1)})
	assert.True(t, ast.IsKind(err, ast.MissingIndexedValue))
}

func Test_Parameter_05(t *testing.T) {
	// 1 and 1.0 address the same entry
	p := NewParameter("cost", FLOAT_PARAM, []string{"I"}, false)
	require.NoError(t, p.SetIndexed([]ast.Value{ast.IntValue(1)}, ast.FloatValue(10)))
	//
	v, err := p.Value([]ast.Value{ast.FloatValue(1.0)})
	require.NoError(t, err)
	assert.Equal(t, "10", v.Key())
}

// ============================================================================
// Computed sets
// ============================================================================

func Test_ComputedSet_01(t *testing.T) {
	// {i | i in I : i != 2}
	registry, scope := testRegistry(t)
	//
	set := NewComputedSet("S",
		[]expand.Iterator{{Var: "i", Domain: "I"}},
		&ast.Binary{Op: ast.NEQ, Lhs: &ast.ParamRef{Name: "i"}, Rhs: ast.NewConstant(2)},
		&ast.ParamRef{Name: "i"})
	require.NoError(t, registry.DeclareComputedSet(set))
	//
	elements, err := scope.Elements("S")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, keys(elements))
}

func Test_ComputedSet_02(t *testing.T) {
	// projection comprehension over a tuple set: {a.src | a in Arcs}
	registry, scope := testRegistry(t)
	//
	set := NewComputedSet("Sources",
		[]expand.Iterator{{Var: "a", Domain: "Arcs"}},
		nil,
		&ast.FieldAccess{Base: &ast.ParamRef{Name: "a"}, Field: "src"})
	require.NoError(t, registry.DeclareComputedSet(set))
	//
	elements, err := scope.Elements("Sources")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys(elements))
}

func Test_ComputedSet_03(t *testing.T) {
	// an indexed family requires its outer variable to be bound
	registry, scope := testRegistry(t)
	//
	family := NewComputedSetFamily("S", "k", "I",
		[]expand.Iterator{{Var: "i", Domain: "I"}},
		&ast.Binary{Op: ast.NEQ, Lhs: &ast.ParamRef{Name: "i"}, Rhs: &ast.ParamRef{Name: "k"}},
		&ast.ParamRef{Name: "i"})
	require.NoError(t, registry.DeclareComputedSet(family))
	//
	_, err := scope.Elements("S")
	assert.True(t, ast.IsKind(err, ast.MissingOuterIndex))
	// bind the outer index and retry
	release := scope.Bind("k", ast.IntValue(2))
	defer release()
	//
	elements, err := scope.Elements("S")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, keys(elements))
}

func Test_ComputedSet_04(t *testing.T) {
	// memoization is per outer-index value
	registry, scope := testRegistry(t)
	//
	family := NewComputedSetFamily("S", "k", "I",
		[]expand.Iterator{{Var: "i", Domain: "I"}},
		&ast.Binary{Op: ast.NEQ, Lhs: &ast.ParamRef{Name: "i"}, Rhs: &ast.ParamRef{Name: "k"}},
		&ast.ParamRef{Name: "i"})
	require.NoError(t, registry.DeclareComputedSet(family))
	//
	for _, k := range []int{1, 2, 1} {
		release := scope.Bind("k", ast.IntValue(k))
		//
		elements, err := scope.Elements("S")
		require.NoError(t, err)
		assert.Len(t, elements, 2)
		//
		release()
	}
}

func Test_ComputedSet_05(t *testing.T) {
	// a plain comprehension whose filter references an enclosing binding
	// resolves per binding rather than replaying its first expansion
	registry, scope := testRegistry(t)
	//
	set := NewComputedSet("S",
		[]expand.Iterator{{Var: "i", Domain: "I"}},
		&ast.Binary{Op: ast.NEQ, Lhs: &ast.ParamRef{Name: "i"}, Rhs: &ast.ParamRef{Name: "k"}},
		&ast.ParamRef{Name: "i"})
	require.NoError(t, registry.DeclareComputedSet(set))
	//
	for _, test := range []struct {
		k        int
		expected []string
	}{
		{1, []string{"2", "3"}},
		{2, []string{"1", "3"}},
		{1, []string{"2", "3"}},
	} {
		release := scope.Bind("k", ast.IntValue(test.k))
		//
		elements, err := scope.Elements("S")
		require.NoError(t, err)
		assert.Equal(t, test.expected, keys(elements))
		//
		release()
	}
}

// ============================================================================
// Helpers
// ============================================================================

func testRegistry(t *testing.T) (*Registry, *Scope) {
	registry := NewRegistry()
	//
	require.NoError(t, registry.DeclareIndexSet(NewIndexSet("I", 1, 3)))
	require.NoError(t, registry.DeclarePrimitiveSet(NewPrimitiveSet("Cities", []ast.Value{
		ast.StringValue("paris"), ast.StringValue("lyon"), ast.StringValue("nice"),
	})))
	//
	schema, err := NewTupleSchema("Arc", []Field{
		{Name: "src", Type: INT_FIELD, Key: true},
		{Name: "dst", Type: INT_FIELD, Key: true},
		{Name: "weight", Type: FLOAT_FIELD},
	})
	require.NoError(t, err)
	require.NoError(t, registry.DeclareSchema(schema))
	//
	arcs := NewTupleSet("Arcs", schema, false)
	require.NoError(t, arcs.Add([]ast.Value{ast.IntValue(1), ast.IntValue(2), ast.FloatValue(7)}))
	require.NoError(t, arcs.Add([]ast.Value{ast.IntValue(2), ast.IntValue(3), ast.FloatValue(4)}))
	require.NoError(t, registry.DeclareTupleSet(arcs))
	//
	return registry, NewScope(registry)
}

func testScope(t *testing.T) *Scope {
	_, scope := testRegistry(t)
	return scope
}

func keys(values []ast.Value) []string {
	out := make([]string, len(values))
	//
	for i, v := range values {
		out[i] = v.Key()
	}
	//
	return out
}
