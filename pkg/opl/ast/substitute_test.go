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
package ast

import (
	"testing"
)

func Test_Substitute_01(t *testing.T) {
	// a bound iterator variable becomes a constant
	env := newTestEnv()
	release := env.Bind("i", IntValue(2))
	defer release()
	//
	checkSubstitute(t, env, &ParamRef{Name: "i"}, "2")
}

func Test_Substitute_02(t *testing.T) {
	// an unbound parameter stays symbolic
	env := newTestEnv()
	env.params["n"] = IntValue(5)
	//
	checkSubstitute(t, env, &ParamRef{Name: "n"}, "n")
}

func Test_Substitute_03(t *testing.T) {
	// indices are evaluated eagerly, the reference itself stays symbolic
	env := newTestEnv()
	release := env.Bind("i", IntValue(2))
	defer release()
	//
	e := &IndexedParamRef{Name: "cost", Indices: []Expr{add(&ParamRef{Name: "i"}, num(1))}}
	checkSubstitute(t, env, e, "cost[3]")
}

func Test_Substitute_04(t *testing.T) {
	env := newTestEnv()
	release := env.Bind("i", IntValue(1))
	defer release()
	//
	e := &IndexedVarRef{Name: "x", Indices: []Expr{&ParamRef{Name: "i"}, num(2)}}
	checkSubstitute(t, env, e, "x[1][2]")
}

func Test_Substitute_05(t *testing.T) {
	// summations flatten to an addition chain over the domain
	env := newTestEnv()
	env.domains["I"] = []Value{IntValue(1), IntValue(2), IntValue(3)}
	env.varNames["x"] = true
	//
	body := &IndexedVarRef{Name: "x", Indices: []Expr{&ParamRef{Name: "i"}}}
	e := &Summation{Var: "i", Domain: "I", Body: body}
	//
	checkSubstitute(t, env, e, "((x[1] + x[2]) + x[3])")
}

func Test_Substitute_06(t *testing.T) {
	// a summation over an empty domain flattens to zero
	env := newTestEnv()
	env.domains["I"] = nil
	//
	e := &Summation{Var: "i", Domain: "I", Body: &ParamRef{Name: "i"}}
	checkSubstitute(t, env, e, "0")
}

func Test_Substitute_07(t *testing.T) {
	// tuple field access resolves eagerly once the base is concrete
	env := newTestEnv()
	tuple := NewTuple("Arc", []string{"src", "dst", "weight"},
		[]Value{IntValue(1), IntValue(2), IntValue(7)})
	//
	release := env.Bind("a", TupleValue(tuple))
	defer release()
	//
	e := &FieldAccess{Base: &ParamRef{Name: "a"}, Field: "weight"}
	checkSubstitute(t, env, e, "7")
}

func Test_Substitute_08(t *testing.T) {
	// item() lookups resolve eagerly by key
	env := newTestEnv()
	tuple := NewTuple("Arc", []string{"src", "dst", "weight"},
		[]Value{IntValue(1), IntValue(2), IntValue(7)})
	env.tuples["Arcs"] = []*Tuple{tuple}
	//
	e := &FieldAccess{
		Base:  &ItemLookup{Set: "Arcs", Keys: []Expr{num(1), num(2)}},
		Field: "weight",
	}
	//
	checkSubstitute(t, env, e, "7")
}

func Test_Substitute_09(t *testing.T) {
	env := newTestEnv()
	e := &FieldAccess{Base: num(1), Field: "weight"}
	//
	_, err := Substitute(e, env)
	checkKind(t, err, TypeCoercionFailed)
}

func Test_Substitute_10(t *testing.T) {
	env := newTestEnv()
	tuple := NewTuple("Arc", []string{"src"}, []Value{IntValue(1)})
	//
	release := env.Bind("a", TupleValue(tuple))
	defer release()
	//
	e := &FieldAccess{Base: &ParamRef{Name: "a"}, Field: "nonexistent"}
	//
	_, err := Substitute(e, env)
	checkKind(t, err, UnknownField)
}

// VarKey produces the canonical concrete variable name.

func Test_VarKey_01(t *testing.T) {
	key, err := VarKey("x", nil)
	//
	if err != nil || key != "x" {
		t.Errorf("got %s (%v)", key, err)
	}
}

func Test_VarKey_02(t *testing.T) {
	key, err := VarKey("x", []Expr{num(1)})
	//
	if err != nil || key != "x[1]" {
		t.Errorf("got %s (%v)", key, err)
	}
}

func Test_VarKey_03(t *testing.T) {
	key, err := VarKey("flow", []Expr{num(1), num(2)})
	//
	if err != nil || key != "flow[1][2]" {
		t.Errorf("got %s (%v)", key, err)
	}
}

func Test_VarKey_04(t *testing.T) {
	// unevaluated indices cannot form a key
	_, err := VarKey("x", []Expr{&ParamRef{Name: "i"}})
	//
	if err == nil {
		t.Error("expected an error")
	}
}

func checkSubstitute(t *testing.T, env Environment, e Expr, expected string) {
	substituted, err := Substitute(e, env)
	//
	if err != nil {
		t.Fatalf("substituting %s: %v", Format(e), err)
	}
	//
	if actual := Format(substituted); actual != expected {
		t.Errorf("substituting %s: got %s, expected %s", Format(e), actual, expected)
	}
}
