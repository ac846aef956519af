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
	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// VarKind identifies the numeric kind of a decision variable.
type VarKind uint

const (
	// FLOAT_VAR signals a continuous variable.
	FLOAT_VAR VarKind = iota
	// INT_VAR signals an integer variable.
	INT_VAR
	// BOOL_VAR signals a 0/1 variable.
	BOOL_VAR
)

// IndexedVariable declares a family of decision variables over zero, one or
// two indexing domains.  It is purely declarative: variables have no runtime
// value until solved.
type IndexedVariable struct {
	name string
	kind VarKind
	// Dims names the indexing domains (at most two).
	dims []string
	// Lower bound expression (nil when unbounded below, other than by kind).
	lo ast.Expr
	// Upper bound expression (nil when unbounded above).
	hi ast.Expr
}

// NewIndexedVariable constructs a decision-variable declaration.  Boolean
// variables carry the implicit bounds 0..1.
func NewIndexedVariable(name string, kind VarKind, dims []string, lo ast.Expr, hi ast.Expr) *IndexedVariable {
	if kind == BOOL_VAR {
		lo = ast.NewConstant(0)
		hi = ast.NewConstant(1)
	}
	//
	return &IndexedVariable{name, kind, dims, lo, hi}
}

// Name returns the declared name of this variable.
func (p *IndexedVariable) Name() string {
	return p.name
}

// Kind returns the numeric kind of this variable.
func (p *IndexedVariable) Kind() VarKind {
	return p.kind
}

// Dims returns the names of the indexing domains.
func (p *IndexedVariable) Dims() []string {
	return p.dims
}

// Bounds returns the lower and upper bound expressions (either may be nil).
func (p *IndexedVariable) Bounds() (ast.Expr, ast.Expr) {
	return p.lo, p.hi
}

// DecisionExpression is a named reusable sub-expression ("dexpr"), declared
// once and referenced by name.  It must not participate in a reference
// cycle.
type DecisionExpression struct {
	decl ast.Dexpr
	kind VarKind
}

// NewDecisionExpression constructs a decision expression, optionally indexed
// by one domain.
func NewDecisionExpression(name string, kind VarKind, indexVar string, indexDomain string, body ast.Expr) *DecisionExpression {
	return &DecisionExpression{ast.Dexpr{Name: name, IndexVar: indexVar, IndexDomain: indexDomain, Body: body}, kind}
}

// Name returns the declared name of this decision expression.
func (p *DecisionExpression) Name() string {
	return p.decl.Name
}

// Kind returns the numeric kind of this decision expression.
func (p *DecisionExpression) Kind() VarKind {
	return p.kind
}

// Decl returns the underlying declaration consumed by the evaluator.
func (p *DecisionExpression) Decl() *ast.Dexpr {
	return &p.decl
}
