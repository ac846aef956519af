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

// Expr represents an arbitrary expression over the parameters, iterator
// variables and decision variables of a model.  The set of node kinds is
// closed: every traversal in this package (and in the linearizer) dispatches
// by exhaustive type switch, panicking on any unknown kind.  Expressions are
// immutable value objects and may be freely shared between trees.
type Expr interface {
	isExpr()
}

// BinOp identifies a binary operator.  The arithmetic operators are the only
// ones admitted into the linear model; the relational and logical operators
// exist to express constraint relations and iterator filters, and evaluate to
// the boolean doubles 0.0 / 1.0.
type BinOp uint

const (
	// ADD signals addition.
	ADD BinOp = iota
	// SUB signals subtraction.
	SUB
	// MUL signals multiplication.
	MUL
	// DIV signals division, following plain floating-point semantics.
	DIV
	// EQ signals equality (within Epsilon).
	EQ
	// NEQ signals disequality.
	NEQ
	// LT signals strict less-than.
	LT
	// LEQ signals non-strict less-than.
	LEQ
	// GT signals strict greater-than.
	GT
	// GEQ signals non-strict greater-than.
	GEQ
	// AND signals logical conjunction.
	AND
	// OR signals logical disjunction.
	OR
)

// String returns the source-level spelling of this operator.
func (op BinOp) String() string {
	switch op {
	case ADD:
		return "+"
	case SUB:
		return "-"
	case MUL:
		return "*"
	case DIV:
		return "/"
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case LEQ:
		return "<="
	case GT:
		return ">"
	case GEQ:
		return ">="
	case AND:
		return "&&"
	case OR:
		return "||"
	}
	//
	return "?"
}

// Relation identifies the relational operator of a constraint.
type Relation uint

const (
	// EQUALS signals an equality constraint.
	EQUALS Relation = iota
	// LESS_EQUALS signals a less-or-equal constraint.
	LESS_EQUALS
	// GREATER_EQUALS signals a greater-or-equal constraint.
	GREATER_EQUALS
	// LESS signals a strict less-than constraint.
	LESS
	// GREATER signals a strict greater-than constraint.
	GREATER
)

// String returns the source-level spelling of this relation.
func (r Relation) String() string {
	switch r {
	case EQUALS:
		return "=="
	case LESS_EQUALS:
		return "<="
	case GREATER_EQUALS:
		return ">="
	case LESS:
		return "<"
	case GREATER:
		return ">"
	}
	//
	return "?"
}

// ============================================================================
// Node kinds
// ============================================================================

// Constant is a literal value (number or string).
type Constant struct{ Value Value }

// ParamRef is a reference to a named scalar parameter, or to an iterator
// variable currently bound in the environment (bindings take precedence).
type ParamRef struct{ Name string }

// IndexedParamRef is a reference to one entry of an indexed parameter.
type IndexedParamRef struct {
	Name    string
	Indices []Expr
}

// VarRef is a reference to a scalar decision variable.
type VarRef struct{ Name string }

// IndexedVarRef is a reference to one concrete instance of an indexed
// decision variable.
type IndexedVarRef struct {
	Name    string
	Indices []Expr
}

// FieldAccess projects one field out of a tuple-valued base expression
// (either an item() lookup or an iterator bound to a tuple instance).
type FieldAccess struct {
	Base  Expr
	Field string
}

// Binary applies a binary operator to two sub-expressions.
type Binary struct {
	Op  BinOp
	Lhs Expr
	Rhs Expr
}

// Unary negates its operand.
type Unary struct{ Arg Expr }

// Summation sums its body over all elements of a named domain, binding the
// iterator variable to each element in turn.
type Summation struct {
	Var    string
	Domain string
	Body   Expr
}

// DexprRef is a reference to a named decision expression, optionally
// supplying the index of an indexed declaration.
type DexprRef struct {
	Name string
	// Index is nil for non-indexed decision expressions.
	Index Expr
}

// ItemLookup resolves the unique tuple instance of a named tuple set whose
// key fields (in schema key order) match the given key expressions.
type ItemLookup struct {
	Set  string
	Keys []Expr
}

func (e *Constant) isExpr()        {}
func (e *ParamRef) isExpr()        {}
func (e *IndexedParamRef) isExpr() {}
func (e *VarRef) isExpr()          {}
func (e *IndexedVarRef) isExpr()   {}
func (e *FieldAccess) isExpr()     {}
func (e *Binary) isExpr()          {}
func (e *Unary) isExpr()           {}
func (e *Summation) isExpr()       {}
func (e *DexprRef) isExpr()        {}
func (e *ItemLookup) isExpr()      {}

// NewConstant constructs a numeric constant node.
func NewConstant(f float64) *Constant {
	return &Constant{FloatValue(f)}
}

// ============================================================================
// Structural queries
// ============================================================================

// IsConstant determines whether an expression contains no decision-variable
// reference, transitively.  Parameter and decision-expression references
// count as constant relative to a fixed environment, since they hold
// externally supplied or derived data rather than solver-controlled unknowns.
func IsConstant(e Expr) bool {
	switch e := e.(type) {
	case *Constant, *ParamRef, *DexprRef:
		return true
	case *IndexedParamRef:
		return allConstant(e.Indices)
	case *VarRef, *IndexedVarRef:
		return false
	case *FieldAccess:
		return IsConstant(e.Base)
	case *Binary:
		return IsConstant(e.Lhs) && IsConstant(e.Rhs)
	case *Unary:
		return IsConstant(e.Arg)
	case *Summation:
		return IsConstant(e.Body)
	case *ItemLookup:
		return allConstant(e.Keys)
	}
	//
	panic("unknown expression kind")
}

func allConstant(es []Expr) bool {
	for _, e := range es {
		if !IsConstant(e) {
			return false
		}
	}
	//
	return true
}
