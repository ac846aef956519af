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
	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// FromConstraint builds one flat equation from a (fully substituted)
// relational constraint "lhs REL rhs".  All variable terms are gathered on
// the left, the constant on the right.
func FromConstraint(lhs ast.Expr, rhs ast.Expr, rel ast.Relation, env ast.Environment) (*Equation, error) {
	form, err := Extract(&ast.Binary{Op: ast.SUB, Lhs: lhs, Rhs: rhs}, env)
	if err != nil {
		return nil, err
	}
	// Move the extracted constant across to the right-hand side.
	constant := fold(ast.Simplify(&ast.Unary{Arg: form.Constant}), env)
	//
	return &Equation{
		Coeffs:   form.Coeffs,
		Constant: constant,
		Relation: rel,
	}, nil
}

// FromObjective builds the linear objective from a (fully substituted)
// objective expression.
func FromObjective(e ast.Expr, sense Sense, name string, env ast.Environment) (*Objective, error) {
	form, err := Extract(e, env)
	if err != nil {
		return nil, err
	}
	//
	return &Objective{
		Sense:    sense,
		Name:     name,
		Coeffs:   form.Coeffs,
		Constant: form.Constant,
	}, nil
}

// fold evaluates a variable-free expression down to a literal constant when
// possible, retaining it symbolically otherwise.
func fold(e ast.Expr, env ast.Environment) ast.Expr {
	if _, ok := e.(*ast.Constant); ok {
		return e
	}
	//
	if v, err := ast.Eval(e, env); err == nil {
		return &ast.Constant{Value: v}
	}
	//
	return e
}
